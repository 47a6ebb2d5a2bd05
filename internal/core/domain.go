package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinimumOnly StrategyKind = "minimum-only"
	FixedExtra  StrategyKind = "fixed-extra"
	Avalanche   StrategyKind = "avalanche"
	Snowball    StrategyKind = "snowball"
	// Planned pays each debt its own planned monthly payment. Nothing is
	// pooled and nothing rolls over between debts.
	Planned StrategyKind = "planned"
)

const (
	SplitTarget SplitMode = "target"
	SplitEven   SplitMode = "even"
)

type (
	StrategyKind string

	// SplitMode controls how fixed-extra spreads its pool.
	SplitMode string

	Money struct {
		Cents int64
	}

	// RawDebt is a debt record exactly as an editor or CSV row supplies it.
	RawDebt struct {
		ID             string `json:"id,omitempty" yaml:"id"`
		Name           string `json:"name" yaml:"name"`
		Balance        string `json:"balance" yaml:"balance"`
		APR            string `json:"apr" yaml:"apr"`
		MinimumPayment string `json:"minimum_payment" yaml:"minimum_payment"`
		PlannedPayment string `json:"planned_payment,omitempty" yaml:"planned_payment"`
	}

	Debt struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		Balance        Money           `json:"balance"`
		APR            decimal.Decimal `json:"apr"`
		MinimumPayment Money           `json:"minimum_payment"`
		// PlannedPayment is what the borrower intends to pay each month.
		// Zero means the minimum.
		PlannedPayment Money           `json:"planned_payment"`
	}

	Strategy struct {
		Kind        StrategyKind `json:"kind" yaml:"kind"`
		ExtraAmount Money        `json:"extra_amount" yaml:"extra_amount"`
		TargetID    string       `json:"target_id,omitempty" yaml:"target_id"`
		Split       SplitMode    `json:"split,omitempty" yaml:"split"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrUnknownStrategy = errors.New("unknown strategy kind")
	ErrUnknownSplit    = errors.New("unknown split mode")
	ErrDebtNotFound    = errors.New("debt not found")
)

// Kinds returns every strategy kind in a stable order.
func Kinds() []StrategyKind {
	return []StrategyKind{MinimumOnly, FixedExtra, Avalanche, Snowball, Planned}
}

// ParseStrategyKind accepts the canonical names plus a few spellings users type.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimum-only", "minimum", "min", "minimum_only":
		return MinimumOnly, nil
	case "fixed-extra", "fixed", "extra", "fixed_extra":
		return FixedExtra, nil
	case "avalanche":
		return Avalanche, nil
	case "snowball":
		return Snowball, nil
	case "planned", "plan", "monthly":
		return Planned, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// IsValid returns true if the kind is one of the supported strategies
func (k StrategyKind) IsValid() bool {
	switch k {
	case MinimumOnly, FixedExtra, Avalanche, Snowball, Planned:
		return true
	default:
		return false
	}
}

// RollsFreedMinimums reports whether minimums released by paid-off debts are
// added to the extra pool.
func (k StrategyKind) RollsFreedMinimums() bool {
	return k == Avalanche || k == Snowball
}

func (s Strategy) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s.Kind))
	}
	if err := s.ExtraAmount.Validate(); err != nil {
		return fmt.Errorf("extra_amount: %w", err)
	}
	switch s.Split {
	case "", SplitTarget, SplitEven:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSplit, string(s.Split))
	}
	return nil
}

// Name is a short label for logs and tables ("avalanche+100.00").
func (s Strategy) Name() string {
	if s.Kind == MinimumOnly || s.Kind == Planned || s.ExtraAmount.IsZero() {
		return string(s.Kind)
	}
	return string(s.Kind) + "+" + s.ExtraAmount.String()
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if err := d.Balance.Validate(); err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if d.APR.IsNegative() {
		return ErrNegativeRate
	}
	if err := d.MinimumPayment.Validate(); err != nil {
		return fmt.Errorf("minimum_payment: %w", err)
	}
	if err := d.PlannedPayment.Validate(); err != nil {
		return fmt.Errorf("planned_payment: %w", err)
	}
	return nil
}

// Planned returns the monthly payment the borrower plans to make, never less
// than the minimum.
func (d Debt) Planned() Money {
	return Money{Cents: max(d.PlannedPayment.Cents, d.MinimumPayment.Cents)}
}

// IsPaid reports whether the debt carries no balance.
func (d Debt) IsPaid() bool {
	return d.Balance.Cents == 0
}

// MarshalJSON encodes Money as a decimal string so cents never pass through a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatCents(m.Cents))
}

// UnmarshalJSON accepts either a JSON string or number holding a decimal amount.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	cents, err := ParseAmount(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// UnmarshalYAML lets plan files write amounts as plain scalars.
func (m *Money) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	cents, err := ParseAmount(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// NewMoney builds Money from cents.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}
