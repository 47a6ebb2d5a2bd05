// Package export turns simulation results into tabular rows and writes them
// to outbound destinations.
package export

import (
	"context"
	"strconv"

	"payoff/internal/core"
	"payoff/internal/engine"
)

// ScheduleHeader is the column layout shared by CSV, spreadsheet and table
// output.
var ScheduleHeader = []string{
	"month", "debt_id", "name", "interest", "minimum_paid", "extra_paid", "payment", "balance",
}

// SummaryHeader is the column layout of per-debt outcome rows.
var SummaryHeader = []string{
	"debt_id", "name", "starting_balance", "payoff_month", "interest_paid", "total_paid", "remaining_balance",
}

// ScheduleWriter is the outbound port for exporting a finished run.
type ScheduleWriter interface {
	WriteSchedule(ctx context.Context, title string, res *engine.Result) (ref string, err error)
}

// ScheduleRows flattens the schedule to one row per debt per month. Debts
// already paid before a month are skipped for that month.
func ScheduleRows(res *engine.Result) [][]string {
	rows := make([][]string, 0, len(res.Schedule)*2)
	for _, m := range res.Schedule {
		month := strconv.Itoa(m.Month)
		for _, d := range m.Debts {
			if d.Payment.IsZero() && d.Interest.IsZero() && d.Balance.IsZero() {
				continue
			}
			rows = append(rows, []string{
				month,
				d.ID,
				d.Name,
				d.Interest.String(),
				d.MinimumPaid.String(),
				d.ExtraPaid.String(),
				d.Payment.String(),
				d.Balance.String(),
			})
		}
	}
	return rows
}

// SummaryRows returns one row per debt outcome. Payoff month is blank for
// debts that were never paid during the run.
func SummaryRows(sum core.Summary) [][]string {
	rows := make([][]string, 0, len(sum.Debts))
	for _, d := range sum.Debts {
		payoff := ""
		if d.PayoffMonth > 0 {
			payoff = strconv.Itoa(d.PayoffMonth)
		}
		rows = append(rows, []string{
			d.ID,
			d.Name,
			d.StartingBalance.String(),
			payoff,
			d.InterestPaid.String(),
			d.TotalPaid.String(),
			d.RemainingBalance.String(),
		})
	}
	return rows
}
