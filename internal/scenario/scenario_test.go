package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/engine"
)

func twoCards() core.DebtSet {
	return core.NewDebtSet([]core.Debt{
		{ID: "A", Name: "Card A", Balance: core.Money{Cents: 300000}, APR: decimal.NewFromInt(22), MinimumPayment: core.Money{Cents: 9000}},
		{ID: "B", Name: "Card B", Balance: core.Money{Cents: 200000}, APR: decimal.NewFromInt(9), MinimumPayment: core.Money{Cents: 6000}},
	})
}

func TestCompare(t *testing.T) {
	strategies := []core.Strategy{
		{Kind: core.Snowball, ExtraAmount: core.Money{Cents: 20000}},
		{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}},
	}
	cmp, err := Compare(context.Background(), twoCards(), strategies, engine.Options{})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(cmp.Outcomes) != 3 {
		t.Fatalf("expected baseline plus 2 outcomes, got %d", len(cmp.Outcomes))
	}
	base := cmp.Baseline()
	if base.Strategy.Kind != core.MinimumOnly || cmp.BaselineIndex != 0 {
		t.Fatalf("baseline should be prepended, got %+v", base.Strategy)
	}
	if base.InterestSaved.Cents != 0 || base.MonthsSaved != 0 {
		t.Fatalf("baseline saves nothing against itself")
	}
	if cmp.Outcomes[1].Strategy.Kind != core.Snowball || cmp.Outcomes[2].Strategy.Kind != core.Avalanche {
		t.Fatalf("outcomes should keep request order")
	}

	best := cmp.BestOutcome()
	if best.Strategy.Kind != core.Avalanche {
		t.Fatalf("expected avalanche to win, got %s", best.Name)
	}
	// 1988.92 baseline interest against 538.76 for avalanche
	if best.InterestSaved.Cents != 145016 || best.MonthsSaved != 36 {
		t.Fatalf("unexpected savings: %d cents, %d months", best.InterestSaved.Cents, best.MonthsSaved)
	}
}

func TestCompare_KeepsExplicitBaseline(t *testing.T) {
	strategies := []core.Strategy{
		{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}},
		{Kind: core.MinimumOnly},
	}
	cmp, err := Compare(context.Background(), twoCards(), strategies, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.Outcomes) != 2 || cmp.BaselineIndex != 1 {
		t.Fatalf("explicit baseline should not be duplicated: %+v", cmp.Outcomes)
	}
	if cmp.Best != 0 {
		t.Fatalf("expected avalanche at index 0 to win")
	}
}

func TestCompare_Errors(t *testing.T) {
	if _, err := Compare(context.Background(), twoCards(), nil, engine.Options{}); !errors.Is(err, ErrNoStrategies) {
		t.Fatalf("expected ErrNoStrategies, got %v", err)
	}

	bad := []core.Strategy{{Kind: "random"}}
	if _, err := Compare(context.Background(), twoCards(), bad, engine.Options{}); !errors.Is(err, core.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := []core.Strategy{{Kind: core.Avalanche}}
	if _, err := Compare(ctx, twoCards(), ok, engine.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	minOnly := core.Strategy{Kind: core.MinimumOnly}

	tests := []struct {
		name         string
		base         core.Strategy
		w            WhatIf
		wantInterest int64
		wantMonths   int
	}{
		{
			name:         "pay off now",
			base:         minOnly,
			w:            WhatIf{Kind: PayOffNow, DebtID: "B"},
			wantInterest: 167878,
			wantMonths:   52,
		},
		{
			name:         "refinance to zero",
			base:         minOnly,
			w:            WhatIf{Kind: Refinance, DebtID: "A", APR: decimal.Zero},
			wantInterest: 31014,
			wantMonths:   39,
		},
		{
			name:         "extra monthly",
			base:         minOnly,
			w:            WhatIf{Kind: ExtraMonthly, Amount: core.Money{Cents: 5000}},
			wantInterest: 114222,
			wantMonths:   34,
		},
		{
			name:         "increase payment",
			base:         minOnly,
			w:            WhatIf{Kind: IncreasePayment, DebtID: "A", Amount: core.Money{Cents: 12000}},
			wantInterest: 136004,
			wantMonths:   39,
		},
		{
			name:         "planned extra monthly",
			base:         core.Strategy{Kind: core.Planned},
			w:            WhatIf{Kind: ExtraMonthly, DebtID: "A", Amount: core.Money{Cents: 5000}},
			wantInterest: 115574,
			wantMonths:   39,
		},
		{
			name:         "planned increase payment",
			base:         core.Strategy{Kind: core.Planned},
			w:            WhatIf{Kind: IncreasePayment, DebtID: "A", Amount: core.Money{Cents: 20000}},
			wantInterest: 85076,
			wantMonths:   39,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate(twoCards(), tt.base, tt.w, engine.Options{})
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if res.Base.TotalInterest.Cents != 198892 {
				t.Fatalf("unexpected base interest %d", res.Base.TotalInterest.Cents)
			}
			if res.Scenario.TotalInterest.Cents != tt.wantInterest || res.Scenario.Months != tt.wantMonths {
				t.Fatalf("scenario = %d cents over %d months, want %d over %d",
					res.Scenario.TotalInterest.Cents, res.Scenario.Months, tt.wantInterest, tt.wantMonths)
			}
			if res.InterestSaved.Cents != 198892-tt.wantInterest || res.MonthsSaved != 52-tt.wantMonths {
				t.Fatalf("unexpected savings %+v", res)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	base := core.Strategy{Kind: core.Avalanche}
	tests := []struct {
		name    string
		w       WhatIf
		wantErr error
	}{
		{"unknown kind", WhatIf{Kind: "lottery", DebtID: "A"}, ErrUnknownWhatIf},
		{"missing debt id", WhatIf{Kind: Refinance}, ErrMissingDebtID},
		{"unknown debt", WhatIf{Kind: PayOffNow, DebtID: "Z"}, core.ErrDebtNotFound},
		{"lower minimum", WhatIf{Kind: IncreasePayment, DebtID: "A", Amount: core.Money{Cents: 100}}, ErrMinimumTooLow},
		{"zero extra", WhatIf{Kind: ExtraMonthly}, ErrMissingAmount},
		{"negative apr", WhatIf{Kind: Refinance, DebtID: "A", APR: decimal.NewFromInt(-1)}, ErrInvalidNewValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Evaluate(twoCards(), base, tt.w, engine.Options{}); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEvaluate_PlannedNeedsDebt(t *testing.T) {
	base := core.Strategy{Kind: core.Planned}
	_, err := Evaluate(twoCards(), base, WhatIf{Kind: ExtraMonthly, Amount: core.Money{Cents: 5000}}, engine.Options{})
	if !errors.Is(err, ErrMissingDebtID) {
		t.Fatalf("expected ErrMissingDebtID, got %v", err)
	}
	_, err = Evaluate(twoCards(), base, WhatIf{Kind: IncreasePayment, DebtID: "A", Amount: core.Money{Cents: 8000}}, engine.Options{})
	if !errors.Is(err, ErrMinimumTooLow) {
		t.Fatalf("expected ErrMinimumTooLow, got %v", err)
	}
}

func TestCompare_PlannedAgainstMinimum(t *testing.T) {
	debts := twoCards().Debts()
	debts[0].PlannedPayment = core.Money{Cents: 20000}
	set := core.NewDebtSet(debts)

	cmp, err := Compare(context.Background(), set, []core.Strategy{{Kind: core.Planned}}, engine.Options{})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(cmp.Outcomes) != 2 || cmp.Baseline().Summary.TotalInterest.Cents != 198892 {
		t.Fatalf("expected the minimum-only baseline first, got %+v", cmp.Outcomes)
	}
	plan := cmp.Outcomes[1]
	if plan.Name != "planned" || plan.Summary.TotalInterest.Cents != 85076 {
		t.Fatalf("unexpected planned outcome %+v", plan.Summary)
	}
	if plan.InterestSaved.Cents != 113816 || plan.MonthsSaved != 13 {
		t.Fatalf("saved %d over %d months", plan.InterestSaved.Cents, plan.MonthsSaved)
	}
	if plan.Summary.SumPlanned.Cents != 26000 || cmp.BestOutcome().Name != "planned" {
		t.Fatalf("sum planned %d, best %s", plan.Summary.SumPlanned.Cents, cmp.BestOutcome().Name)
	}
}

func TestEvaluate_PayOffTargetClearsTarget(t *testing.T) {
	base := core.Strategy{Kind: core.FixedExtra, ExtraAmount: core.Money{Cents: 10000}, TargetID: "B"}
	res, err := Evaluate(twoCards(), base, WhatIf{Kind: PayOffNow, DebtID: "B"}, engine.Options{})
	if err != nil {
		t.Fatalf("removing the target debt should not fail: %v", err)
	}
	if res.Scenario.Strategy.TargetID != "" {
		t.Fatalf("target should be cleared, got %q", res.Scenario.Strategy.TargetID)
	}
}
