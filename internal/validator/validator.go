// Package validator normalizes raw debt records into a core.DebtSet.
//
// Validation never partially succeeds: callers receive either a Result or a
// ValidationErrors value describing every offending field.
package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payoff/internal/core"
)

// Options tunes the validation bounds.
type Options struct {
	// MaxAPR is the exclusive upper bound on APR, in percent.
	MaxAPR decimal.Decimal
	// MaxBalance is the inclusive upper bound on a single balance.
	MaxBalance core.Money
	// Rounding is used to compute the first month's interest.
	Rounding core.RoundingPolicy
	// AllowNegativeAmortization turns the negative amortization check into a
	// warning instead of a validation error.
	AllowNegativeAmortization bool
}

// DefaultOptions returns the bounds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxAPR:     decimal.NewFromInt(100),
		MaxBalance: core.Money{Cents: 100_000_000_00}, // 100 million
		Rounding:   core.RoundHalfUp,
	}
}

// Result is a validated debt set plus any warnings the caller opted into.
type Result struct {
	Set      core.DebtSet                  `json:"debts"`
	Warnings []NegativeAmortizationWarning `json:"warnings,omitempty"`
}

// Validate parses and checks raw records. Blank ids are replaced with the
// record's 1-based position.
func Validate(raw []core.RawDebt, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	var (
		errs     ValidationErrors
		warnings []NegativeAmortizationWarning
		debts    = make([]core.Debt, 0, len(raw))
		seen     = make(map[string]int, len(raw))
	)

	for i, r := range raw {
		row := i + 1
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = strconv.Itoa(row)
		}
		fe := func(field, reason string) {
			errs = append(errs, FieldError{Row: row, DebtID: id, Field: field, Reason: reason})
		}

		if first, dup := seen[id]; dup {
			fe(FieldID, fmt.Sprintf("duplicate id (first used at row %d)", first))
		} else {
			seen[id] = row
		}

		name := strings.TrimSpace(r.Name)
		if name == "" {
			fe(FieldName, "must not be empty")
		}

		balance, balErr := core.ParseAmount(r.Balance)
		if balErr != nil {
			fe(FieldBalance, amountReason(balErr))
		}
		apr, aprErr := core.ParseAPR(r.APR)
		if aprErr != nil {
			fe(FieldAPR, rateReason(aprErr))
		}
		minimum, minErr := core.ParseAmount(r.MinimumPayment)
		if minErr != nil {
			fe(FieldMinimumPayment, amountReason(minErr))
		}
		var (
			planned    int64
			plannedErr error
		)
		if strings.TrimSpace(r.PlannedPayment) != "" {
			if planned, plannedErr = core.ParseAmount(r.PlannedPayment); plannedErr != nil {
				fe(FieldPlannedPayment, amountReason(plannedErr))
			}
		}
		if balErr != nil || aprErr != nil || minErr != nil || plannedErr != nil {
			continue
		}

		d := core.Debt{
			ID:             id,
			Name:           name,
			Balance:        core.Money{Cents: balance},
			APR:            apr,
			MinimumPayment: core.Money{Cents: minimum},
			PlannedPayment: core.Money{Cents: planned},
		}
		ferrs, warn := checkDebt(row, d, opts)
		errs = append(errs, ferrs...)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		debts = append(debts, d)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Result{Set: core.NewDebtSet(debts), Warnings: warnings}, nil
}

// ValidateDebts applies the same rules to debts that are already typed.
func ValidateDebts(debts []core.Debt, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	var (
		errs     ValidationErrors
		warnings []NegativeAmortizationWarning
		out      = make([]core.Debt, 0, len(debts))
		seen     = make(map[string]int, len(debts))
	)
	for i, d := range debts {
		row := i + 1
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			d.ID = strconv.Itoa(row)
		}
		d.Name = strings.TrimSpace(d.Name)

		if first, dup := seen[d.ID]; dup {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldID,
				Reason: fmt.Sprintf("duplicate id (first used at row %d)", first)})
		} else {
			seen[d.ID] = row
		}
		if d.Name == "" {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldName, Reason: "must not be empty"})
		}
		if d.Balance.Cents < 0 {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldBalance, Reason: "must not be negative"})
		}
		if d.APR.IsNegative() {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldAPR, Reason: "must not be negative"})
		}
		if d.MinimumPayment.Cents < 0 {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldMinimumPayment, Reason: "must not be negative"})
		}
		if d.PlannedPayment.Cents < 0 {
			errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: FieldPlannedPayment, Reason: "must not be negative"})
		}
		if d.Balance.Cents < 0 || d.APR.IsNegative() || d.MinimumPayment.Cents < 0 || d.PlannedPayment.Cents < 0 {
			continue
		}

		ferrs, warn := checkDebt(row, d, opts)
		errs = append(errs, ferrs...)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		out = append(out, d)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Result{Set: core.NewDebtSet(out), Warnings: warnings}, nil
}

// checkDebt applies the bound and amortization rules to a parsed,
// non-negative debt.
func checkDebt(row int, d core.Debt, opts Options) ([]FieldError, *NegativeAmortizationWarning) {
	var errs []FieldError
	fe := func(field, reason string) {
		errs = append(errs, FieldError{Row: row, DebtID: d.ID, Field: field, Reason: reason})
	}

	if d.APR.GreaterThanOrEqual(opts.MaxAPR) {
		fe(FieldAPR, fmt.Sprintf("must be below %s%%", opts.MaxAPR.String()))
	}
	if d.Balance.Cents > opts.MaxBalance.Cents {
		fe(FieldBalance, fmt.Sprintf("must not exceed %s", opts.MaxBalance))
	}
	if d.Balance.Cents > 0 && d.MinimumPayment.Cents == 0 {
		fe(FieldMinimumPayment, "must be greater than zero while a balance is owed")
	}
	if d.PlannedPayment.Cents > 0 && d.PlannedPayment.Cents < d.MinimumPayment.Cents {
		fe(FieldPlannedPayment, fmt.Sprintf("must not be below the minimum %s", d.MinimumPayment))
	}
	if len(errs) > 0 || d.Balance.Cents == 0 {
		return errs, nil
	}

	interest, err := core.MonthlyInterest(d.Balance.Cents, d.APR, opts.Rounding)
	if err != nil {
		fe(FieldAPR, err.Error())
		return errs, nil
	}
	if d.MinimumPayment.Cents > interest {
		return nil, nil
	}

	warn := NegativeAmortizationWarning{
		Row:           row,
		DebtID:        d.ID,
		Minimum:       d.MinimumPayment,
		FirstInterest: core.Money{Cents: interest},
	}
	if !opts.AllowNegativeAmortization {
		return []FieldError{warn.fieldError()}, nil
	}
	return nil, &warn
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.MaxAPR.Sign() <= 0 {
		opts.MaxAPR = def.MaxAPR
	}
	if opts.MaxBalance.Cents <= 0 {
		opts.MaxBalance = def.MaxBalance
	}
	if opts.Rounding == "" {
		opts.Rounding = def.Rounding
	}
	return opts
}

func amountReason(err error) string {
	if errors.Is(err, core.ErrNegativeAmount) {
		return "must not be negative"
	}
	return "not a valid amount"
}

func rateReason(err error) string {
	if errors.Is(err, core.ErrNegativeRate) {
		return "must not be negative"
	}
	return "not a valid percentage"
}
