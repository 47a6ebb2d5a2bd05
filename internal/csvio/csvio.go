// Package csvio reads debt lists from CSV and writes schedules back out.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"payoff/internal/core"
	"payoff/internal/engine"
	"payoff/internal/export"
	"payoff/internal/scenario"
)

var (
	ErrEmptyFile     = errors.New("csv: no header row")
	ErrMissingColumn = errors.New("csv: missing required column")
)

const (
	colID = iota
	colName
	colBalance
	colAPR
	colMinimum
	colPlanned
)

// headerAliases maps lower-cased header text to a column. The spreadsheet
// style headers of older exports are accepted alongside the canonical ones.
var headerAliases = map[string]int{
	"id":              colID,
	"debt_id":         colID,
	"name":            colName,
	"balance":         colBalance,
	"apr":             colAPR,
	"annual rate (%)": colAPR,
	"annual rate":     colAPR,
	"rate":            colAPR,
	"minimum_payment": colMinimum,
	"minimum payment": colMinimum,
	"min_payment":     colMinimum,
	"minimum":         colMinimum,
	"planned_payment": colPlanned,
	"planned payment": colPlanned,
	"monthly payment": colPlanned,
	"monthly_payment": colPlanned,
}

var columnNames = map[int]string{
	colName:    "name",
	colBalance: "balance",
	colAPR:     "apr",
	colMinimum: "minimum_payment",
}

// ReadDebts parses a header row followed by one debt per row. The planned
// payment column is optional; the others are required. Values are
// returned as written; parsing and checks are left to the validator so that
// every problem is reported at once. Blank lines are skipped.
func ReadDebts(r io.Reader) ([]core.RawDebt, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	pos := map[int]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headerAliases[key]; ok {
			if _, dup := pos[col]; !dup {
				pos[col] = i
			}
		}
	}
	var missing []string
	for _, col := range []int{colName, colBalance, colAPR, colMinimum} {
		if _, ok := pos[col]; !ok {
			missing = append(missing, columnNames[col])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(rec []string, col int) string {
		i, ok := pos[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []core.RawDebt
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		out = append(out, core.RawDebt{
			ID:             cell(rec, colID),
			Name:           cell(rec, colName),
			Balance:        cell(rec, colBalance),
			APR:            cell(rec, colAPR),
			MinimumPayment: cell(rec, colMinimum),
			PlannedPayment: cell(rec, colPlanned),
		})
	}
	return out, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteDebts writes raw debts with the canonical header.
func WriteDebts(w io.Writer, debts []core.RawDebt) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "balance", "apr", "minimum_payment", "planned_payment"}); err != nil {
		return err
	}
	for _, d := range debts {
		if err := cw.Write([]string{d.ID, d.Name, d.Balance, d.APR, d.MinimumPayment, d.PlannedPayment}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSchedule writes the month-by-month schedule of res.
func WriteSchedule(w io.Writer, res *engine.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(export.ScheduleHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(export.ScheduleRows(res)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteSummary writes one row per debt outcome.
func WriteSummary(w io.Writer, sum core.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(export.SummaryHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(export.SummaryRows(sum)); err != nil {
		return err
	}
	return cw.Error()
}

var comparisonHeader = []string{"strategy", "converged", "months", "total_interest", "total_paid", "interest_saved", "months_saved"}

// WriteComparison writes one row per compared strategy, baseline included.
func WriteComparison(w io.Writer, cmp *scenario.Comparison) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(comparisonHeader); err != nil {
		return err
	}
	for _, o := range cmp.Outcomes {
		err := cw.Write([]string{
			o.Name,
			strconv.FormatBool(o.Summary.Converged),
			strconv.Itoa(o.Summary.Months),
			o.Summary.TotalInterest.String(),
			o.Summary.TotalPaid.String(),
			o.InterestSaved.String(),
			strconv.Itoa(o.MonthsSaved),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
