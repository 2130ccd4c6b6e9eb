package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fitinsight/internal/service"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 16

// RecalculateResponse reports how many items a recalculation updated
type RecalculateResponse struct {
	Updated int `json:"updated"`
}

func (s *Server) getZoneAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	result, err := s.service.GetZoneAnalysis(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, result)
}

func (s *Server) customZoneAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req service.ZoneRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	result, err := s.service.CustomZoneAnalysis(r.Context(), userID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, result)
}

func (s *Server) getLoadSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	summary, err := s.service.GetLoadSummary(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, summary)
}

func (s *Server) recalculateLoads(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	n, err := s.service.RecalculateLoads(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, RecalculateResponse{Updated: n})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := s.service.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteSession(r.Context(), userID, sessionID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getGoalAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	analytics, err := s.service.GetGoalAnalytics(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, analytics)
}

func (s *Server) getGoalRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	recs, err := s.service.GetGoalRecommendations(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, recs)
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	list, err := s.service.ListGoalInsights(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, list)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req service.GoalRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	goal, err := s.service.CreateGoal(r.Context(), userID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse{Data: goal})
}

func (s *Server) getGoalInsights(w http.ResponseWriter, r *http.Request) {
	insight, err := s.service.GetGoalInsights(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, insight)
}

func (s *Server) logProgress(w http.ResponseWriter, r *http.Request) {
	var req service.ProgressRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	goal, err := s.service.LogProgress(r.Context(), chi.URLParam(r, "goalID"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse{Data: goal})
}

func (s *Server) recalculateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	n, err := s.service.RecalculateAllProgress(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	success(w, RecalculateResponse{Updated: n})
}

// decodeBody decodes a JSON body into v, writing a 400 on failure.
// An empty body is accepted only when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err), false)
		return false
	}
	return true
}

// userID parses the userID path parameter, writing a 400 when it is malformed
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest,
			&service.ValidationError{Field: "userID", Message: fmt.Sprintf("%q is not an integer", raw)}, false)
		return 0, false
	}
	return id, true
}

// sessionID parses the sessionID path parameter, writing a 400 when it is malformed.
// Imported FIT sessions have negative IDs.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest,
			&service.ValidationError{Field: "sessionID", Message: fmt.Sprintf("%q is not an integer", raw)}, false)
		return 0, false
	}
	return id, true
}

// fail maps err onto a status and writes the error response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, retryable := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err, retryable)
}
