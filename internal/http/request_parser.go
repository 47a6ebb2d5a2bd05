package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"payoff/internal/core"
	"payoff/internal/scenario"
	"payoff/internal/services"
)

// maxBodyBytes caps request bodies. A few thousand debts fit comfortably.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// runParams are the simulation options every endpoint accepts.
type runParams struct {
	HorizonMonths             int    `json:"horizon_months"`
	Rounding                  string `json:"rounding"`
	AllowNegativeAmortization bool   `json:"allow_negative_amortization"`
}

func (p runParams) options() (services.RunOptions, error) {
	ro := services.RunOptions{
		HorizonMonths:             p.HorizonMonths,
		AllowNegativeAmortization: p.AllowNegativeAmortization,
	}
	if p.Rounding != "" {
		policy, err := core.ParseRoundingPolicy(p.Rounding)
		if err != nil {
			return ro, err
		}
		ro.Rounding = policy
	}
	return ro, nil
}

type validateRequest struct {
	Debts []core.RawDebt `json:"debts"`
	runParams
}

type simulateRequest struct {
	Debts    []core.RawDebt `json:"debts"`
	Strategy core.Strategy  `json:"strategy"`
	// IncludeSchedule defaults to true when omitted.
	IncludeSchedule *bool `json:"include_schedule"`
	runParams
}

func (r simulateRequest) includeSchedule() bool {
	return r.IncludeSchedule == nil || *r.IncludeSchedule
}

type compareRequest struct {
	Debts      []core.RawDebt  `json:"debts"`
	Strategies []core.Strategy `json:"strategies"`
	runParams
}

type whatIfRequest struct {
	Debts    []core.RawDebt  `json:"debts"`
	Strategy core.Strategy   `json:"strategy"`
	WhatIf   scenario.WhatIf `json:"what_if"`
	runParams
}

type sessionSimulateRequest struct {
	Strategy        core.Strategy `json:"strategy"`
	IncludeSchedule *bool         `json:"include_schedule"`
	runParams
}

func (r sessionSimulateRequest) includeSchedule() bool {
	return r.IncludeSchedule == nil || *r.IncludeSchedule
}

type exportRequest struct {
	Strategy core.Strategy `json:"strategy"`
	Title    string        `json:"title"`
	runParams
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected data after object")
	}
	return nil
}

// normalizeStrategy accepts the strategy aliases users type and checks the
// result.
func normalizeStrategy(s *core.Strategy) error {
	kind, err := core.ParseStrategyKind(string(s.Kind))
	if err != nil {
		return err
	}
	s.Kind = kind
	s.TargetID = strings.TrimSpace(s.TargetID)
	return s.Validate()
}

func normalizeWhatIf(w *scenario.WhatIf) error {
	kind, err := scenario.ParseWhatIfKind(string(w.Kind))
	if err != nil {
		return err
	}
	w.Kind = kind
	w.DebtID = strings.TrimSpace(w.DebtID)
	return nil
}

// wantsCSV reports whether the caller asked for CSV via ?format=csv or the
// Accept header.
func wantsCSV(r *http.Request) bool {
	if f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); f != "" {
		return f == "csv"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}
