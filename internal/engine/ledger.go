package engine

import (
	"math"

	"payoff/internal/core"
)

// ledger is the working state of a single run. It is created fresh by
// Simulate and never escapes it, so the input DebtSet stays untouched.
type ledger struct {
	debts        []core.Debt
	balance      []int64
	startActive  []bool
	interestPaid []int64
	totalPaid    []int64
	payoffMonth  []int

	// lines holds the current month's per-debt rows while it is being built.
	lines []core.DebtMonth
}

func newLedger(set core.DebtSet) *ledger {
	debts := set.Debts()
	n := len(debts)
	l := &ledger{
		debts:        debts,
		balance:      make([]int64, n),
		startActive:  make([]bool, n),
		interestPaid: make([]int64, n),
		totalPaid:    make([]int64, n),
		payoffMonth:  make([]int, n),
	}
	for i, d := range debts {
		l.balance[i] = d.Balance.Cents
		l.startActive[i] = d.Balance.Cents > 0
	}
	return l
}

func (l *ledger) outstanding() bool {
	for _, b := range l.balance {
		if b > 0 {
			return true
		}
	}
	return false
}

// scheduledMinimums is the monthly minimum budget committed at the start of
// the run. Rolling strategies keep spending it after debts are paid off.
func (l *ledger) scheduledMinimums() int64 {
	var total int64
	for i, d := range l.debts {
		if l.startActive[i] {
			total += d.MinimumPayment.Cents
		}
	}
	return total
}

// plannedTopUps is the monthly amount the planned payments add on top of the
// minimums of debts open at the start.
func (l *ledger) plannedTopUps() int64 {
	var total int64
	for i, d := range l.debts {
		if l.startActive[i] {
			total += d.Planned().Cents - d.MinimumPayment.Cents
		}
	}
	return total
}

func (l *ledger) beginMonth() {
	l.lines = make([]core.DebtMonth, len(l.debts))
	for i, d := range l.debts {
		l.lines[i] = core.DebtMonth{ID: d.ID, Name: d.Name}
	}
}

// accrue charges one month of interest on every open balance. It returns
// false, leaving balances untouched, if any balance would overflow.
func (l *ledger) accrue(policy core.RoundingPolicy) (int64, bool) {
	interest := make([]int64, len(l.debts))
	for i, d := range l.debts {
		if l.balance[i] <= 0 {
			continue
		}
		in, err := core.MonthlyInterest(l.balance[i], d.APR, policy)
		if err != nil || in > math.MaxInt64-l.balance[i] {
			return 0, false
		}
		interest[i] = in
	}

	var total int64
	for i, in := range interest {
		if in == 0 {
			continue
		}
		l.balance[i] += in
		l.interestPaid[i] += in
		l.lines[i].Interest = core.Money{Cents: in}
		total += in
	}
	return total, true
}

// payMinimums applies each open debt's minimum, capped at its balance.
func (l *ledger) payMinimums() int64 {
	var applied int64
	for i, d := range l.debts {
		if l.balance[i] <= 0 {
			continue
		}
		p := min(d.MinimumPayment.Cents, l.balance[i])
		l.balance[i] -= p
		l.totalPaid[i] += p
		l.lines[i].MinimumPaid = core.Money{Cents: p}
		applied += p
	}
	return applied
}

// payExtra applies up to amount to debt i and returns what it absorbed.
func (l *ledger) payExtra(i int, amount int64) int64 {
	p := min(amount, l.balance[i])
	if p <= 0 {
		return 0
	}
	l.balance[i] -= p
	l.totalPaid[i] += p
	l.lines[i].ExtraPaid.Cents += p
	return p
}

// closeMonth finalizes the month's rows and stamps payoff months.
func (l *ledger) closeMonth(month int, interest, running int64) core.MonthlySnapshot {
	var payment int64
	for i := range l.lines {
		line := &l.lines[i]
		line.Payment = core.Money{Cents: line.MinimumPaid.Cents + line.ExtraPaid.Cents}
		line.Balance = core.Money{Cents: l.balance[i]}
		payment += line.Payment.Cents
		if l.startActive[i] && l.balance[i] == 0 && l.payoffMonth[i] == 0 {
			l.payoffMonth[i] = month
		}
	}
	snap := core.MonthlySnapshot{
		Month:           month,
		Debts:           l.lines,
		Interest:        core.Money{Cents: interest},
		Payment:         core.Money{Cents: payment},
		RunningInterest: core.Money{Cents: running},
	}
	l.lines = nil
	return snap
}

// unpaid returns the indices of debts with a balance, in input order.
func (l *ledger) unpaid() []int {
	idx := make([]int, 0, len(l.debts))
	for i, b := range l.balance {
		if b > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func (l *ledger) outcomes() []core.DebtOutcome {
	out := make([]core.DebtOutcome, len(l.debts))
	for i, d := range l.debts {
		out[i] = core.DebtOutcome{
			ID:               d.ID,
			Name:             d.Name,
			StartingBalance:  d.Balance,
			PayoffMonth:      l.payoffMonth[i],
			InterestPaid:     core.Money{Cents: l.interestPaid[i]},
			TotalPaid:        core.Money{Cents: l.totalPaid[i]},
			RemainingBalance: core.Money{Cents: l.balance[i]},
			Paid:             l.balance[i] == 0,
		}
	}
	return out
}

func (l *ledger) remaining() []core.RemainingDebt {
	var out []core.RemainingDebt
	for i, d := range l.debts {
		if l.balance[i] > 0 {
			out = append(out, core.RemainingDebt{ID: d.ID, Name: d.Name, Balance: core.Money{Cents: l.balance[i]}})
		}
	}
	return out
}
