// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering cents back to plain decimal text.
package core

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// MaxCents is the largest amount ParseAmount accepts.
const MaxCents = (1<<63 - 1) / 100

// ParseAmount converts a decimal string to cents with half-up rounding.
//
// Commas are US thousands separators (1,234.56 and 1,234) unless a single
// comma is followed by one or two digits, which is read as a decimal comma
// (12,34). Grouping must be in threes; anything else is rejected. Only ASCII
// digits are accepted. A leading currency symbol is ignored. Zero is
// accepted; negative values return ErrNegativeAmount so callers can report
// the field precisely.
//
// Examples:
//
//	ParseAmount("12.34")     -> 1234, nil
//	ParseAmount("$1,234.5")  -> 123450, nil
//	ParseAmount("1,234")     -> 123400, nil
//	ParseAmount("12,34")     -> 1234, nil
//	ParseAmount("1,2345")    -> 0, ErrInvalidAmount
//	ParseAmount("12.345")    -> 1235, nil (rounds up)
//	ParseAmount("-1")        -> 0, ErrNegativeAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		if _, err := ParseAmount(s[1:]); err == nil {
			return 0, ErrNegativeAmount
		}
		return 0, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")

	if strings.Contains(s, ",") {
		var err error
		if s, err = normalizeCommas(s); err != nil {
			return 0, err
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !asciiDigits(intPart) || !asciiDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv >= MaxCents {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, then half-up on the third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// normalizeCommas strips thousands grouping from the integer part, or turns a
// lone decimal comma into a dot.
func normalizeCommas(s string) (string, error) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	groups := strings.Split(intPart, ",")
	if !hasDot && len(groups) == 2 && len(groups[1]) >= 1 && len(groups[1]) <= 2 {
		return groups[0] + "." + groups[1], nil
	}
	for i, g := range groups {
		if i == 0 && (g == "" || len(g) > 3) {
			return "", ErrInvalidAmount
		}
		if i > 0 && len(g) != 3 {
			return "", ErrInvalidAmount
		}
	}
	out := strings.Join(groups, "")
	if hasDot {
		out += "." + frac
	}
	return out, nil
}

func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatCents renders cents as plain decimal text ("1234.56", "-0.05").
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return FormatCents(m.Cents)
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Dollars returns the value as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point drift.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}
