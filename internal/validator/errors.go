package validator

import (
	"fmt"
	"strings"

	"payoff/internal/core"
)

// Field names used in FieldError.Field.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldBalance        = "balance"
	FieldAPR            = "apr"
	FieldMinimumPayment = "minimum_payment"
	FieldPlannedPayment = "planned_payment"
)

// FieldError describes one problem with one field of one debt record.
type FieldError struct {
	Row    int    `json:"row"` // 1-based position in the input
	DebtID string `json:"debt_id,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	if e.DebtID != "" {
		return fmt.Sprintf("row %d (%s): %s: %s", e.Row, e.DebtID, e.Field, e.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

// ValidationErrors collects every field error found in a debt set.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("debt validation failed:\n- %s", strings.Join(msgs, "\n- "))
}

// ForDebt returns the errors attached to a single debt id.
func (v ValidationErrors) ForDebt(id string) []FieldError {
	var out []FieldError
	for _, e := range v {
		if e.DebtID == id {
			out = append(out, e)
		}
	}
	return out
}

// NegativeAmortizationWarning flags a debt whose minimum payment does not
// exceed its first month's interest. Under minimum-only payments it never
// amortizes.
type NegativeAmortizationWarning struct {
	Row           int        `json:"row"`
	DebtID        string     `json:"debt_id"`
	Minimum       core.Money `json:"minimum_payment"`
	FirstInterest core.Money `json:"first_month_interest"`
}

func (w NegativeAmortizationWarning) String() string {
	return fmt.Sprintf("debt %s: minimum payment %s does not exceed first month interest %s",
		w.DebtID, w.Minimum, w.FirstInterest)
}

func (w NegativeAmortizationWarning) fieldError() FieldError {
	return FieldError{
		Row:    w.Row,
		DebtID: w.DebtID,
		Field:  FieldMinimumPayment,
		Reason: fmt.Sprintf("negative amortization: minimum %s does not exceed first month interest %s",
			w.Minimum, w.FirstInterest),
	}
}
