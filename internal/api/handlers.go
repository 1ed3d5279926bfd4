package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foundation-app/foundation/internal/domain"
)

// ─── Tracker API ────────────────────────────────────────────────────────────
// GET    /api/dashboard               balance, averages, pinned progress
// POST   /api/credits/session         +1 study session credit
// POST   /api/credits/correct         take back 1 or 0.5 credits
// GET    /api/credits/history         recent balance changes
// GET    /api/subjects                subjects with averages
// GET    /api/subjects/{id}/grades    a subject's grades, newest first
// POST   /api/subjects/{id}/grades    record a grade
// GET    /api/grades/options          selectable grade values
// DELETE /api/grades/{id}             delete a grade
// GET    /api/rewards                 reward catalog
// POST   /api/rewards                 add a reward
// DELETE /api/rewards/{id}            remove a reward
// POST   /api/rewards/{id}/pin        toggle the pin
// POST   /api/rewards/{id}/redeem     spend credits on a reward
// GET    /api/calendar/events         latest upcoming events

const (
	defaultHistory = 50
	maxHistory     = 500
)

// handleDashboard returns the home screen snapshot.
// GET /api/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Dashboard())
}

// ─── Credits ────────────────────────────────────────────────────────────────

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	bal := s.tracker.LogSession(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"balance": bal})
}

func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if fields := bind(w, r, &req); fields != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", fieldMessage(fields))
		return
	}
	amount, err := parseDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	bal, err := s.tracker.CorrectSession(r.Context(), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"balance": bal})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	entries, err := s.tracker.History(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ─── Subjects & Grades ──────────────────────────────────────────────────────

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subjects":        s.tracker.Subjects(),
		"overall_average": s.tracker.OverallAverage(),
	})
}

func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	subj, err := domain.FindSubject(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	grades := s.tracker.GradesFor(subj.ID)
	if grades == nil {
		grades = []domain.Grade{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subject": subj,
		"average": s.tracker.AverageFor(subj.ID),
		"grades":  grades,
	})
}

func (s *Server) handleRecordGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if fields := bind(w, r, &req); fields != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", fieldMessage(fields))
		return
	}
	value, err := parseDecimal(req.Value)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	g, err := s.tracker.RecordGrade(r.Context(), chi.URLParam(r, "id"), value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"grade":   g,
		"balance": s.tracker.Balance(),
	})
}

func (s *Server) handleGradeOptions(w http.ResponseWriter, r *http.Request) {
	opts := domain.GradeOptions()
	out := make([]string, len(opts))
	for i, v := range opts {
		out[i] = v.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"options": out})
}

func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.tracker.DeleteGrade(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Rewards ────────────────────────────────────────────────────────────────

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rewards": s.tracker.Rewards(),
		"balance": s.tracker.Balance(),
	})
}

func (s *Server) handleAddReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if fields := bind(w, r, &req); fields != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", fieldMessage(fields))
		return
	}
	cost, err := parseDecimal(req.Cost)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	rw, err := s.tracker.AddReward(r.Context(), req.Name, cost, req.Image)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rw)
}

func (s *Server) handleRemoveReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.tracker.RemoveReward(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePinReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.tracker.SetPinned(r.Context(), id) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := map[string]interface{}{"pinned": nil}
	if p, ok := s.tracker.PinnedReward(); ok {
		resp["pinned"] = p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bal, err := s.tracker.Redeem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"balance": bal})
}

// ─── Calendar ───────────────────────────────────────────────────────────────

func (s *Server) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"enabled": false,
		"events":  []domain.Event{},
	}
	if s.feed != nil && s.feed.Enabled() {
		resp["enabled"] = true
		resp["events"] = s.feed.Events()
		if at := s.feed.FetchedAt(); !at.IsZero() {
			resp["fetched_at"] = at.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be an integer")
		return 0, false
	}
	return id, true
}

// writeDomainError maps tracker errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrRewardNotFound), errors.Is(err, domain.ErrGradeNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "error", err.Error())
	}
}
