package http

import (
	"net/http"

	"payoff/internal/core"
	"payoff/internal/log"
	"payoff/internal/validator"
)

type sessionResponse struct {
	ID       string                                  `json:"id"`
	Debts    core.DebtSet                            `json:"debts"`
	Warnings []validator.NegativeAmortizationWarning `json:"warnings,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
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
	id, err := s.sessions.CreateSession(r.Context(), res.Set)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session created",
		log.FieldOperation, log.OpCreate, log.FieldSessionID, id, log.FieldDebtCount, res.Set.Len())

	w.Header().Set("Location", "/api/v1/sessions/"+id)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Debts: res.Set, Warnings: res.Warnings})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.LoadSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Session deleted",
		log.FieldOperation, log.OpDelete, log.FieldSessionID, id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionSimulate runs a strategy over a stored debt set and records
// the run.
func (s *Server) handleSessionSimulate(w http.ResponseWriter, r *http.Request) {
	var req sessionSimulateRequest
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
	opts, err := s.planner.EngineOptions(ro)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.sessions.LoadSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	vr, err := s.planner.ValidateSet(sess.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.planner.Simulate(r.Context(), vr.Set, req.Strategy, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	run, err := s.sessions.RecordRun(r.Context(), sess.ID, opts.HorizonMonths, res.Summary)
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
	out.Run = run
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.LoadSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	runs, err := s.sessions.ListRuns(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "runs": runs})
}

// handleSessionExport writes a session's schedule to the configured
// spreadsheet and returns the sheet reference.
func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "spreadsheet export not configured", RequestID: requestIDFrom(r.Context())})
		return
	}
	var req exportRequest
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

	sess, err := s.sessions.LoadSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	vr, err := s.planner.ValidateSet(sess.Debts, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.planner.Simulate(r.Context(), vr.Set, req.Strategy, ro)
	if err != nil {
		writeError(w, r, err)
		return
	}

	title := sanitizeTitle(req.Title)
	if title == "" {
		title = req.Strategy.Name()
	}
	ref, err := s.exporter.WriteSchedule(r.Context(), title, res)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Spreadsheet export failed",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "spreadsheet export failed", RequestID: requestIDFrom(r.Context())})
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Schedule exported",
		log.FieldOperation, log.OpExport, log.FieldSessionID, sess.ID, log.FieldSheetsRef, ref)
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}
