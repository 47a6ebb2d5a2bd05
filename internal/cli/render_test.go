package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/engine"
	"payoff/internal/scenario"
	"payoff/internal/validator"
)

func twoCards() core.DebtSet {
	return core.NewDebtSet([]core.Debt{
		{ID: "A", Name: "Card A", Balance: core.Money{Cents: 300000}, APR: decimal.NewFromInt(22), MinimumPayment: core.Money{Cents: 9000}},
		{ID: "B", Name: "Card B", Balance: core.Money{Cents: 200000}, APR: decimal.NewFromInt(9), MinimumPayment: core.Money{Cents: 6000}},
	})
}

func TestRenderSummary(t *testing.T) {
	tests := []struct {
		name string
		opts engine.Options
		want []string
	}{
		{"converged", engine.Options{}, []string{"Debt-free in:   16 months", "Total interest: 538.76", "Card A", "Card B"}},
		{"horizon", engine.Options{HorizonMonths: 6}, []string{"stopped after 6 months (horizon)", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Simulate(twoCards(), core.Strategy{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}}, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := RenderSummary(&buf, res.Summary); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRenderSummary_Planned(t *testing.T) {
	debts := twoCards().Debts()
	debts[0].PlannedPayment = core.Money{Cents: 20000}
	res, err := engine.Simulate(core.NewDebtSet(debts), core.Strategy{Kind: core.Planned}, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, res.Summary); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Monthly plan:   260.00 (minimums 150.00)") {
		t.Fatalf("missing plan line:\n%s", buf.String())
	}
}

func TestRenderSchedule(t *testing.T) {
	res, err := engine.Simulate(twoCards(), core.Strategy{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}}, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := RenderSchedule(&buf, res); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 17 {
		t.Fatalf("expected header plus 16 months, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Month") || !strings.Contains(lines[0], "Card B") {
		t.Fatalf("unexpected header %q", lines[0])
	}
}

func TestRenderComparison(t *testing.T) {
	cmp, err := scenario.Compare(context.Background(), twoCards(), []core.Strategy{
		{Kind: core.Snowball, ExtraAmount: core.Money{Cents: 20000}},
		{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}},
	}, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := RenderComparison(&buf, cmp); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "minimum-only"):
			if !strings.HasSuffix(strings.TrimSpace(line), "baseline") {
				t.Errorf("baseline not marked: %q", line)
			}
		case strings.HasPrefix(line, "avalanche"):
			if !strings.HasSuffix(strings.TrimSpace(line), "best") || !strings.Contains(line, "1450.16") {
				t.Errorf("best not marked: %q", line)
			}
		}
	}
}

func TestRenderWarnings(t *testing.T) {
	var buf bytes.Buffer
	RenderWarnings(&buf, []validator.NegativeAmortizationWarning{
		{Row: 2, DebtID: "x", Minimum: core.Money{Cents: 1000}, FirstInterest: core.Money{Cents: 2000}},
	})
	want := "warning: row 2 (x): minimum 10.00 does not cover first month interest 20.00\n"
	if buf.String() != want {
		t.Fatalf("got %q", buf.String())
	}
}
