package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payoff/internal/core"
	"payoff/internal/scenario"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"debts":[{"name":"a","balance":"1","apr":"1","minimum_payment":"1"}],"rounding":"down"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"debts":[],"extra":1}`, true},
		{"trailing data", `{"debts":[]} {"debts":[]}`, true},
		{"wrong type", `{"debts":"nope"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req validateRequest
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(httptest.NewRecorder(), r, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (len(req.Debts) != 1 || req.Rounding != "down") {
				t.Fatalf("unexpected request %+v", req)
			}
		})
	}

	t.Run("oversized body", func(t *testing.T) {
		var req validateRequest
		body := `{"debts":[` + strings.Repeat(`{"name":"a"},`, maxBodyBytes/10) + `{}]}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := decodeJSON(httptest.NewRecorder(), r, &req)
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			t.Fatalf("expected MaxBytesError, got %v", err)
		}
	})
}

func TestRunParamsOptions(t *testing.T) {
	ro, err := runParams{HorizonMonths: 24, Rounding: "Half-Even", AllowNegativeAmortization: true}.options()
	if err != nil {
		t.Fatal(err)
	}
	if ro.HorizonMonths != 24 || ro.Rounding != core.RoundHalfEven || !ro.AllowNegativeAmortization {
		t.Fatalf("unexpected options %+v", ro)
	}
	if _, err := (runParams{Rounding: "sideways"}).options(); !errors.Is(err, core.ErrUnknownRounding) {
		t.Fatalf("expected ErrUnknownRounding, got %v", err)
	}
}

func TestNormalizeStrategy(t *testing.T) {
	tests := []struct {
		name    string
		in      core.Strategy
		want    core.StrategyKind
		wantErr error
	}{
		{"canonical", core.Strategy{Kind: core.Avalanche}, core.Avalanche, nil},
		{"alias", core.Strategy{Kind: "Fixed", TargetID: " A "}, core.FixedExtra, nil},
		{"unknown kind", core.Strategy{Kind: "tsunami"}, "", core.ErrUnknownStrategy},
		{"unknown split", core.Strategy{Kind: core.FixedExtra, Split: "thirds"}, "", core.ErrUnknownSplit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			err := normalizeStrategy(&s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s.Kind != tt.want || strings.TrimSpace(s.TargetID) != s.TargetID {
				t.Fatalf("unexpected strategy %+v", s)
			}
		})
	}
}

func TestNormalizeWhatIf(t *testing.T) {
	w := scenario.WhatIf{Kind: scenario.PayOffNow, DebtID: " B "}
	if err := normalizeWhatIf(&w); err != nil || w.DebtID != "B" {
		t.Fatalf("unexpected result %+v, %v", w, err)
	}
	bad := scenario.WhatIf{Kind: "win-lottery"}
	if err := normalizeWhatIf(&bad); !errors.Is(err, scenario.ErrUnknownWhatIf) {
		t.Fatalf("expected ErrUnknownWhatIf, got %v", err)
	}
}

func TestWantsCSV(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		accept string
		want   bool
	}{
		{"query csv", "/x?format=csv", "", true},
		{"query json wins over accept", "/x?format=json", "text/csv", false},
		{"accept header", "/x", "text/csv", true},
		{"default", "/x", "application/json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, tt.url, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := wantsCSV(r); got != tt.want {
				t.Fatalf("wantsCSV() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunOptionsFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x?rounding=up&allow_negative_amortization=true", nil)
	ro := runOptionsFromQuery(r)
	if ro.Rounding != core.RoundUp || !ro.AllowNegativeAmortization {
		t.Fatalf("unexpected options %+v", ro)
	}
	r = httptest.NewRequest(http.MethodPost, "/x?rounding=bogus&allow_negative_amortization=maybe", nil)
	if ro := runOptionsFromQuery(r); ro.Rounding != "" || ro.AllowNegativeAmortization {
		t.Fatalf("invalid values should be ignored, got %+v", ro)
	}
}

func TestSanitizeTitle(t *testing.T) {
	if got := sanitizeTitle("  Plan\x00 A\n "); got != "Plan A" {
		t.Fatalf("sanitizeTitle() = %q", got)
	}
}
