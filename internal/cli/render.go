package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"payoff/internal/core"
	"payoff/internal/engine"
	"payoff/internal/scenario"
	"payoff/internal/validator"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderSummary prints the totals of one run followed by a per-debt table.
func RenderSummary(w io.Writer, sum core.Summary) error {
	fmt.Fprintf(w, "Strategy:       %s\n", sum.Strategy.Name())
	if sum.Converged {
		fmt.Fprintf(w, "Debt-free in:   %d months\n", sum.Months)
	} else {
		reason := "horizon"
		if sum.NonConvergence != nil {
			reason = sum.NonConvergence.Reason
		}
		fmt.Fprintf(w, "Not paid off:   stopped after %d months (%s)\n", sum.Months, reason)
	}
	fmt.Fprintf(w, "Total interest: %s\n", sum.TotalInterest)
	fmt.Fprintf(w, "Total paid:     %s\n", sum.TotalPaid)
	if sum.Strategy.Kind == core.Planned {
		fmt.Fprintf(w, "Monthly plan:   %s (minimums %s)\n", sum.SumPlanned, sum.SumMinimums)
	}
	fmt.Fprintf(w, "Extra used:     %s\n\n", sum.ExtraUsed)

	tw := newTable(w)
	fmt.Fprintln(tw, "Debt\tStart\tPayoff month\tInterest\tPaid\tRemaining\t")
	for _, d := range sum.Debts {
		payoff := "-"
		if d.Paid {
			payoff = fmt.Sprint(d.PayoffMonth)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			d.Name, d.StartingBalance, payoff, d.InterestPaid, d.TotalPaid, d.RemainingBalance)
	}
	return tw.Flush()
}

// RenderSchedule prints one row per month with each debt's closing balance.
func RenderSchedule(w io.Writer, res *engine.Result) error {
	tw := newTable(w)
	header := []string{"Month", "Payment", "Interest"}
	for _, d := range res.Summary.Debts {
		header = append(header, d.Name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, m := range res.Schedule {
		row := []string{fmt.Sprint(m.Month), m.Payment.String(), m.Interest.String()}
		for _, d := range res.Summary.Debts {
			bal := "0.00"
			if dm, ok := m.Debt(d.ID); ok {
				bal = dm.Balance.String()
			}
			row = append(row, bal)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

// RenderComparison prints every outcome against the minimum-only baseline
// and marks the cheapest one.
func RenderComparison(w io.Writer, cmp *scenario.Comparison) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Strategy\tMonths\tInterest\tInterest saved\tMonths saved\t")
	for i, o := range cmp.Outcomes {
		months := fmt.Sprint(o.Summary.Months)
		if !o.Summary.Converged {
			months = ">" + months
		}
		mark := ""
		switch i {
		case cmp.Best:
			mark = "best"
		case cmp.BaselineIndex:
			mark = "baseline"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			o.Name, months, o.Summary.TotalInterest, o.InterestSaved, o.MonthsSaved, mark)
	}
	return tw.Flush()
}

// RenderWarnings lists debts whose minimum does not cover the first month's
// interest.
func RenderWarnings(w io.Writer, warnings []validator.NegativeAmortizationWarning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "warning: row %d (%s): minimum %s does not cover first month interest %s\n",
			wn.Row, wn.DebtID, wn.Minimum, wn.FirstInterest)
	}
}
