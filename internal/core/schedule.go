package core

// NonConvergence reasons.
const (
	ReasonHorizon  = "horizon"
	ReasonOverflow = "overflow"
)

type (
	// DebtMonth is one debt's line within a monthly snapshot.
	DebtMonth struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Interest    Money  `json:"interest"`
		MinimumPaid Money  `json:"minimum_paid"`
		ExtraPaid   Money  `json:"extra_paid"`
		Payment     Money  `json:"payment"`
		Balance     Money  `json:"balance"`
	}

	// MonthlySnapshot is one row of the schedule.
	MonthlySnapshot struct {
		Month           int         `json:"month"` // 1-based
		Debts           []DebtMonth `json:"debts"`
		Interest        Money       `json:"interest"`
		Payment         Money       `json:"payment"`
		RunningInterest Money       `json:"running_interest"`
	}

	DebtOutcome struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		StartingBalance  Money  `json:"starting_balance"`
		PayoffMonth      int    `json:"payoff_month"` // 0 when paid at input or never paid
		InterestPaid     Money  `json:"interest_paid"`
		TotalPaid        Money  `json:"total_paid"`
		RemainingBalance Money  `json:"remaining_balance"`
		Paid             bool   `json:"paid"`
	}

	RemainingDebt struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Balance Money  `json:"balance"`
	}

	// NonConvergence is the terminal state of a run that stopped with
	// balances outstanding. It is part of the summary, not an error.
	NonConvergence struct {
		Reason    string          `json:"reason"`
		Horizon   int             `json:"horizon"`
		Remaining []RemainingDebt `json:"remaining"`
	}

	Summary struct {
		Strategy       Strategy        `json:"strategy"`
		Converged      bool            `json:"converged"`
		Months         int             `json:"months"`
		TotalInterest  Money           `json:"total_interest"`
		TotalPaid      Money           `json:"total_paid"`
		ExtraUsed      Money           `json:"extra_used"`
		SumMinimums    Money           `json:"sum_minimums"`
		SumPlanned     Money           `json:"sum_planned"`
		Debts          []DebtOutcome   `json:"debts"`
		NonConvergence *NonConvergence `json:"non_convergence,omitempty"`
	}
)

// LongestPayoff returns the latest payoff month among debts that were paid
// during the run.
func (s Summary) LongestPayoff() int {
	longest := 0
	for _, d := range s.Debts {
		if d.PayoffMonth > longest {
			longest = d.PayoffMonth
		}
	}
	return longest
}

// Outcome returns the per-debt outcome for id.
func (s Summary) Outcome(id string) (DebtOutcome, bool) {
	for _, d := range s.Debts {
		if d.ID == id {
			return d, true
		}
	}
	return DebtOutcome{}, false
}

// Debt returns the line for id within the snapshot.
func (m MonthlySnapshot) Debt(id string) (DebtMonth, bool) {
	for _, d := range m.Debts {
		if d.ID == id {
			return d, true
		}
	}
	return DebtMonth{}, false
}

// TotalBalance sums the end-of-month balances.
func (m MonthlySnapshot) TotalBalance() Money {
	var total int64
	for _, d := range m.Debts {
		total += d.Balance.Cents
	}
	return Money{Cents: total}
}
