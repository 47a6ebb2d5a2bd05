package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DebtSet is an immutable, ordered collection of validated debts.
//
// Every accessor returns copies and every derivation returns a new set, so a
// single DebtSet can be shared read-only by concurrent simulations.
type DebtSet struct {
	debts []Debt
}

// NewDebtSet copies debts into a new set. Callers normally obtain a set from
// the validator rather than calling this directly.
func NewDebtSet(debts []Debt) DebtSet {
	return DebtSet{debts: append([]Debt(nil), debts...)}
}

// Len returns the number of debts, including those already paid.
func (s DebtSet) Len() int {
	return len(s.debts)
}

// At returns the i-th debt in input order.
func (s DebtSet) At(i int) Debt {
	return s.debts[i]
}

// Debts returns a copy of the debts in input order.
func (s DebtSet) Debts() []Debt {
	return append([]Debt(nil), s.debts...)
}

// ByID returns the debt with the given id.
func (s DebtSet) ByID(id string) (Debt, bool) {
	for _, d := range s.debts {
		if d.ID == id {
			return d, true
		}
	}
	return Debt{}, false
}

func (s DebtSet) indexOf(id string) int {
	for i, d := range s.debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s DebtSet) with(id string, fn func(*Debt)) (DebtSet, error) {
	i := s.indexOf(id)
	if i < 0 {
		return DebtSet{}, ErrDebtNotFound
	}
	out := s.Debts()
	fn(&out[i])
	return DebtSet{debts: out}, nil
}

// WithAPR returns a copy of the set with one debt's APR replaced.
func (s DebtSet) WithAPR(id string, apr decimal.Decimal) (DebtSet, error) {
	return s.with(id, func(d *Debt) { d.APR = apr })
}

// WithMinimum returns a copy of the set with one debt's minimum payment replaced.
func (s DebtSet) WithMinimum(id string, minimum Money) (DebtSet, error) {
	return s.with(id, func(d *Debt) { d.MinimumPayment = minimum })
}

// WithPlanned returns a copy of the set with one debt's planned payment replaced.
func (s DebtSet) WithPlanned(id string, planned Money) (DebtSet, error) {
	return s.with(id, func(d *Debt) { d.PlannedPayment = planned })
}

// WithBalance returns a copy of the set with one debt's balance replaced.
func (s DebtSet) WithBalance(id string, balance Money) (DebtSet, error) {
	return s.with(id, func(d *Debt) { d.Balance = balance })
}

// Without returns a copy of the set with one debt removed.
func (s DebtSet) Without(id string) (DebtSet, error) {
	i := s.indexOf(id)
	if i < 0 {
		return DebtSet{}, ErrDebtNotFound
	}
	out := make([]Debt, 0, len(s.debts)-1)
	out = append(out, s.debts[:i]...)
	out = append(out, s.debts[i+1:]...)
	return DebtSet{debts: out}, nil
}

// TotalBalance sums the balances of all debts.
func (s DebtSet) TotalBalance() Money {
	var total int64
	for _, d := range s.debts {
		total += d.Balance.Cents
	}
	return Money{Cents: total}
}

// TotalMinimum sums the minimum payments of debts that still carry a balance.
func (s DebtSet) TotalMinimum() Money {
	var total int64
	for _, d := range s.debts {
		if d.Balance.Cents > 0 {
			total += d.MinimumPayment.Cents
		}
	}
	return Money{Cents: total}
}

// TotalPlanned sums the planned payments of debts that still carry a balance.
func (s DebtSet) TotalPlanned() Money {
	var total int64
	for _, d := range s.debts {
		if d.Balance.Cents > 0 {
			total += d.Planned().Cents
		}
	}
	return Money{Cents: total}
}

// MarshalJSON encodes the set as a plain array of debts.
func (s DebtSet) MarshalJSON() ([]byte, error) {
	if s.debts == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.debts)
}

// UnmarshalJSON decodes a plain array of debts.
func (s *DebtSet) UnmarshalJSON(b []byte) error {
	var debts []Debt
	if err := json.Unmarshal(b, &debts); err != nil {
		return err
	}
	*s = NewDebtSet(debts)
	return nil
}
