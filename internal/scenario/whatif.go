package scenario

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
	"payoff/internal/engine"
)

// WhatIfKind names a single hypothetical change to a plan.
type WhatIfKind string

const (
	PayOffNow       WhatIfKind = "pay-off-now"
	ExtraMonthly    WhatIfKind = "extra-monthly"
	Refinance       WhatIfKind = "refinance"
	IncreasePayment WhatIfKind = "increase-payment"
)

var (
	ErrUnknownWhatIf   = errors.New("unknown what-if kind")
	ErrMinimumTooLow   = errors.New("new minimum is below the current minimum")
	ErrMissingDebtID   = errors.New("what-if requires a debt id")
	ErrMissingAmount   = errors.New("what-if requires an amount")
	ErrInvalidNewValue = errors.New("what-if value is not valid")
)

// WhatIf describes one hypothetical. Amount is the extra for ExtraMonthly and
// the new minimum for IncreasePayment. APR is the new rate for Refinance.
//
// Under the planned strategy both payment changes apply to the planned
// payment of DebtID instead. Otherwise ExtraMonthly ignores DebtID.
type WhatIf struct {
	Kind   WhatIfKind      `json:"kind"`
	DebtID string          `json:"debt_id,omitempty"`
	Amount core.Money      `json:"amount"`
	APR    decimal.Decimal `json:"apr"`
}

type WhatIfResult struct {
	WhatIf        WhatIf       `json:"what_if"`
	Base          core.Summary `json:"base"`
	Scenario      core.Summary `json:"scenario"`
	InterestSaved core.Money   `json:"interest_saved"`
	MonthsSaved   int          `json:"months_saved"`
}

// Evaluate runs base and the modified plan and reports the difference.
func Evaluate(set core.DebtSet, base core.Strategy, w WhatIf, opts engine.Options) (*WhatIfResult, error) {
	baseRun, err := engine.Simulate(set, base, opts)
	if err != nil {
		return nil, err
	}

	altSet, altStrategy, err := apply(set, base, w)
	if err != nil {
		return nil, err
	}
	altRun, err := engine.Simulate(altSet, altStrategy, opts)
	if err != nil {
		return nil, err
	}

	res := &WhatIfResult{
		WhatIf:        w,
		Base:          baseRun.Summary,
		Scenario:      altRun.Summary,
		InterestSaved: core.Money{Cents: baseRun.Summary.TotalInterest.Cents - altRun.Summary.TotalInterest.Cents},
		MonthsSaved:   baseRun.Summary.Months - altRun.Summary.Months,
	}
	return res, nil
}

func apply(set core.DebtSet, s core.Strategy, w WhatIf) (core.DebtSet, core.Strategy, error) {
	if (w.Kind != ExtraMonthly || s.Kind == core.Planned) && w.DebtID == "" {
		return set, s, fmt.Errorf("%s: %w", w.Kind, ErrMissingDebtID)
	}

	switch w.Kind {
	case PayOffNow:
		alt, err := set.Without(w.DebtID)
		if err == nil && s.TargetID == w.DebtID {
			s.TargetID = ""
		}
		return alt, s, wrap(w, err)

	case ExtraMonthly:
		if w.Amount.Cents <= 0 {
			return set, s, fmt.Errorf("%s: %w", w.Kind, ErrMissingAmount)
		}
		if s.Kind == core.Planned {
			d, ok := set.ByID(w.DebtID)
			if !ok {
				return set, s, wrap(w, core.ErrDebtNotFound)
			}
			alt, err := set.WithPlanned(w.DebtID, core.Money{Cents: d.Planned().Cents + w.Amount.Cents})
			return alt, s, wrap(w, err)
		}
		if s.Kind == core.MinimumOnly {
			s.Kind = core.FixedExtra
		}
		s.ExtraAmount.Cents += w.Amount.Cents
		return set, s, nil

	case Refinance:
		if w.APR.IsNegative() {
			return set, s, fmt.Errorf("%s: %w: apr %s", w.Kind, ErrInvalidNewValue, w.APR)
		}
		alt, err := set.WithAPR(w.DebtID, w.APR)
		return alt, s, wrap(w, err)

	case IncreasePayment:
		d, ok := set.ByID(w.DebtID)
		if !ok {
			return set, s, wrap(w, core.ErrDebtNotFound)
		}
		if s.Kind == core.Planned {
			if w.Amount.Cents < d.Planned().Cents {
				return set, s, fmt.Errorf("%s: %w: %s < %s", w.Kind, ErrMinimumTooLow, w.Amount, d.Planned())
			}
			alt, err := set.WithPlanned(w.DebtID, w.Amount)
			return alt, s, wrap(w, err)
		}
		if w.Amount.Cents < d.MinimumPayment.Cents {
			return set, s, fmt.Errorf("%s: %w: %s < %s", w.Kind, ErrMinimumTooLow, w.Amount, d.MinimumPayment)
		}
		alt, err := set.WithMinimum(w.DebtID, w.Amount)
		return alt, s, wrap(w, err)

	default:
		return set, s, fmt.Errorf("%w: %q", ErrUnknownWhatIf, string(w.Kind))
	}
}

func wrap(w WhatIf, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", w.Kind, w.DebtID, err)
}

// ParseWhatIfKind accepts the canonical kind names.
func ParseWhatIfKind(s string) (WhatIfKind, error) {
	switch k := WhatIfKind(s); k {
	case PayOffNow, ExtraMonthly, Refinance, IncreasePayment:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWhatIf, s)
	}
}
