package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"payoff/internal/core"
	"payoff/internal/csvio"
	"payoff/internal/engine"
	"payoff/internal/log"
	"payoff/internal/scenario"
	"payoff/internal/services"
	"payoff/internal/storage"
	"payoff/internal/validator"
)

// errorBody is the envelope for every non-2xx JSON response.
type errorBody struct {
	Error     string                 `json:"error"`
	Errors    []validator.FieldError `json:"errors,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// badRequestErrors are caller mistakes that map to 400.
var badRequestErrors = []error{
	errEmptyBody,
	core.ErrUnknownStrategy,
	core.ErrUnknownSplit,
	core.ErrUnknownRounding,
	core.ErrInvalidAmount,
	core.ErrNegativeAmount,
	core.ErrDebtNotFound,
	engine.ErrInvalidHorizon,
	engine.ErrUnknownTarget,
	services.ErrHorizonTooLarge,
	scenario.ErrNoStrategies,
	scenario.ErrUnknownWhatIf,
	scenario.ErrMinimumTooLow,
	scenario.ErrMissingDebtID,
	scenario.ErrMissingAmount,
	scenario.ErrInvalidNewValue,
	csvio.ErrEmptyFile,
	csvio.ErrMissingColumn,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes the error envelope.
// Validation failures carry every field error with a 422.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())}

	var verrs validator.ValidationErrors
	var maxBytes *http.MaxBytesError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verrs):
		status = http.StatusUnprocessableEntity
		body.Error = "debt validation failed"
		body.Errors = verrs
	case errors.Is(err, storage.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	case isBadRequest(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

// writeBadRequest reports a malformed request regardless of the error's kind.
func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeScheduleCSV streams the schedule as a CSV attachment.
func writeScheduleCSV(w http.ResponseWriter, r *http.Request, res *engine.Result) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := csvio.WriteSchedule(w, res); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Writing CSV schedule failed", log.FieldError, err)
	}
}

// simulationResponse is the body of a successful simulate call.
type simulationResponse struct {
	Summary  core.Summary                            `json:"summary"`
	Schedule []core.MonthlySnapshot                  `json:"schedule,omitempty"`
	Warnings []validator.NegativeAmortizationWarning `json:"warnings,omitempty"`
	Run      *storage.Run                            `json:"run,omitempty"`
}

func newSimulationResponse(res *engine.Result, includeSchedule bool) simulationResponse {
	out := simulationResponse{Summary: res.Summary}
	if includeSchedule {
		out.Schedule = res.Schedule
	}
	return out
}
