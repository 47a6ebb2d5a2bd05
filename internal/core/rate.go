package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRate      = errors.New("invalid rate")
	ErrNegativeRate     = errors.New("rate must not be negative")
	ErrUnknownRounding  = errors.New("unknown rounding policy")
	ErrInterestOverflow = errors.New("interest overflows int64 cents")
)

// RoundingPolicy selects how fractional cents are resolved at each accrual.
type RoundingPolicy string

const (
	RoundHalfUp   RoundingPolicy = "half-up"
	RoundHalfEven RoundingPolicy = "half-even"
	RoundDown     RoundingPolicy = "down"
	RoundUp       RoundingPolicy = "up"
)

// 12 months times the percent denominator: apr% / 100 / 12.
var monthlyDivisor = decimal.NewFromInt(1200)

var maxCentsDecimal = decimal.NewFromInt(1<<63 - 1)

// ParseRoundingPolicy maps user input to a policy. Empty input yields half-up.
func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	switch p := RoundingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RoundHalfUp, nil
	case RoundHalfUp, RoundHalfEven, RoundDown, RoundUp:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRounding, s)
	}
}

// IsValid returns true if the policy is one of the known values.
func (p RoundingPolicy) IsValid() bool {
	switch p {
	case RoundHalfUp, RoundHalfEven, RoundDown, RoundUp:
		return true
	}
	return false
}

// ParseAPR parses an annual percentage rate given in percent ("24", "18.99%").
func ParseAPR(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return decimal.Zero, ErrInvalidRate
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidRate
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	return d, nil
}

// MonthlyInterest returns round(balance × apr / 1200) in cents.
//
// The division is carried out as an exact quotient and remainder so the
// rounding decision never depends on a truncated binary or decimal expansion.
func MonthlyInterest(balanceCents int64, apr decimal.Decimal, policy RoundingPolicy) (int64, error) {
	if balanceCents <= 0 || apr.Sign() <= 0 {
		return 0, nil
	}
	num := decimal.NewFromInt(balanceCents).Mul(apr)
	q, r := num.QuoRem(monthlyDivisor, 0)

	switch policy {
	case RoundHalfUp, "":
		if r.Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(monthlyDivisor) {
			q = q.Add(decimal.NewFromInt(1))
		}
	case RoundHalfEven:
		switch r.Mul(decimal.NewFromInt(2)).Cmp(monthlyDivisor) {
		case 1:
			q = q.Add(decimal.NewFromInt(1))
		case 0:
			if q.Mod(decimal.NewFromInt(2)).Sign() != 0 {
				q = q.Add(decimal.NewFromInt(1))
			}
		}
	case RoundDown:
	case RoundUp:
		if r.Sign() > 0 {
			q = q.Add(decimal.NewFromInt(1))
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRounding, string(policy))
	}

	if q.GreaterThan(maxCentsDecimal) {
		return 0, ErrInterestOverflow
	}
	return q.IntPart(), nil
}

// MonthlyRate returns apr/1200 for display; it is never used for accrual.
func MonthlyRate(apr decimal.Decimal) decimal.Decimal {
	return apr.DivRound(monthlyDivisor, 10)
}
