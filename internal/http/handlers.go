package http

import (
	"context"
	"net/http"
	"time"

	"payoff/internal/amqp"
	"payoff/internal/csvio"
	"payoff/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the session store and reports optional integrations.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if err := s.sessions.Ping(ctx); err != nil {
		checks["sessions"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = "ok"
	}
	checks["jobs"] = configured(s.jobs != nil)
	checks["sheets_export"] = configured(s.exporter != nil)
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"hits":           s.rateLimiter.Hits(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func configured(ok bool) string {
	if ok {
		return "ok"
	}
	return "not_configured"
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	ro, err := req.options()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.planner.Validate(req.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if err := normalizeStrategy(&req.Strategy); err != nil {
		writeError(w, r, err)
		return
	}
	ro, err := req.options()
	if err != nil {
		writeError(w, r, err)
		return
	}
	vr, err := s.planner.Validate(req.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.planner.Simulate(r.Context(), vr.Set, req.Strategy, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsCSV(r) {
		writeScheduleCSV(w, r, res)
		return
	}
	out := newSimulationResponse(res, req.includeSchedule())
	out.Warnings = vr.Warnings
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	for i := range req.Strategies {
		if err := normalizeStrategy(&req.Strategies[i]); err != nil {
			writeError(w, r, err)
			return
		}
	}
	ro, err := req.options()
	if err != nil {
		writeError(w, r, err)
		return
	}
	vr, err := s.planner.Validate(req.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmp, err := s.planner.Compare(r.Context(), vr.Set, req.Strategies, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if err := normalizeStrategy(&req.Strategy); err != nil {
		writeError(w, r, err)
		return
	}
	if err := normalizeWhatIf(&req.WhatIf); err != nil {
		writeError(w, r, err)
		return
	}
	ro, err := req.options()
	if err != nil {
		writeError(w, r, err)
		return
	}
	vr, err := s.planner.Validate(req.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.planner.WhatIf(r.Context(), vr.Set, req.Strategy, req.WhatIf, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleImport validates a CSV debt list. With ?session=true the validated
// set is also stored as a new session.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := csvio.ReadDebts(r.Body)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}
	res, err := s.planner.Validate(raw, runOptionsFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Debts imported",
		log.FieldOperation, log.OpImport, log.FieldDebtCount, res.Set.Len())

	if r.URL.Query().Get("session") != "true" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	id, err := s.sessions.CreateSession(r.Context(), res.Set)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+id)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Debts: res.Set, Warnings: res.Warnings})
}

// handleSubmitJob queues a simulation for the worker and returns its id.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "job queue not configured", RequestID: requestIDFrom(r.Context())})
		return
	}
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if err := normalizeStrategy(&req.Strategy); err != nil {
		writeError(w, r, err)
		return
	}
	ro, err := req.options()
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := amqp.NewSimulationRequest(req.Debts, req.Strategy)
	msg.HorizonMonths = ro.HorizonMonths
	msg.Rounding = ro.Rounding
	msg.AllowNegativeAmortization = ro.AllowNegativeAmortization
	msg.IncludeSchedule = req.includeSchedule()

	if err := s.jobs.PublishRequest(r.Context(), msg); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to queue simulation", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "job queue unavailable", RequestID: requestIDFrom(r.Context())})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": msg.RequestID})
}
