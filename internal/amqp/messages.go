package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"payoff/internal/core"
	"payoff/internal/validator"
)

var ErrMissingRequestID = errors.New("message has no request_id")

// SimulationRequest asks a worker to validate and simulate a debt list.
type SimulationRequest struct {
	RequestID                 string              `json:"request_id"`
	Debts                     []core.RawDebt      `json:"debts"`
	Strategy                  core.Strategy       `json:"strategy"`
	HorizonMonths             int                 `json:"horizon_months,omitempty"`
	Rounding                  core.RoundingPolicy `json:"rounding,omitempty"`
	AllowNegativeAmortization bool                `json:"allow_negative_amortization,omitempty"`
	IncludeSchedule           bool                `json:"include_schedule,omitempty"`
	Timestamp                 time.Time           `json:"timestamp"`
}

// NewSimulationRequest creates a request with a fresh id.
func NewSimulationRequest(debts []core.RawDebt, strategy core.Strategy) *SimulationRequest {
	return &SimulationRequest{
		RequestID: uuid.NewString(),
		Debts:     debts,
		Strategy:  strategy,
		Timestamp: time.Now(),
	}
}

func (m *SimulationRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SimulationRequestFromJSON decodes a request. A body without a request id
// is treated as malformed.
func SimulationRequestFromJSON(data []byte) (*SimulationRequest, error) {
	var msg SimulationRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RequestID == "" {
		return nil, ErrMissingRequestID
	}
	return &msg, nil
}

// SimulationResult answers a SimulationRequest. Exactly one of Summary,
// Errors or Error is set.
type SimulationResult struct {
	RequestID string                                  `json:"request_id"`
	Summary   *core.Summary                           `json:"summary,omitempty"`
	Schedule  []core.MonthlySnapshot                  `json:"schedule,omitempty"`
	Warnings  []validator.NegativeAmortizationWarning `json:"warnings,omitempty"`
	Errors    []validator.FieldError                  `json:"errors,omitempty"`
	Error     string                                  `json:"error,omitempty"`
	Timestamp time.Time                               `json:"timestamp"`
}

func (m *SimulationResult) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SimulationResultFromJSON(data []byte) (*SimulationResult, error) {
	var msg SimulationResult
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RequestID == "" {
		return nil, ErrMissingRequestID
	}
	return &msg, nil
}
