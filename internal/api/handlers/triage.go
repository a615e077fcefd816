package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vetbox/vetbox/internal/service"
)

type TriageHandler struct {
	svc *service.TriageService
}

func NewTriageHandler(svc *service.TriageService) *TriageHandler {
	return &TriageHandler{svc: svc}
}

type answerRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

type clearRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type turnResponse struct {
	SessionID        string            `json:"session_id"`
	State            string            `json:"state"`
	FollowUpQuestion string            `json:"follow_up_question,omitempty"`
	TriageLevel      string            `json:"triage_level,omitempty"`
	Advice           string            `json:"advice,omitempty"`
	Conditions       map[string]string `json:"conditions"`
	Unrecognized     []string          `json:"unrecognized_keys,omitempty"`
	RuleCheckingLog  []string          `json:"rule_checking_log,omitempty"`
}

type sessionResponse struct {
	SessionID    string            `json:"session_id"`
	State        string            `json:"state"`
	Turns        int               `json:"turns"`
	Conditions   map[string]string `json:"conditions"`
	Unrecognized []string          `json:"unrecognized_keys,omitempty"`
	TriageLevel  string            `json:"triage_level,omitempty"`
	Advice       string            `json:"advice,omitempty"`
	CreatedAt    string            `json:"created_at"`
	LastActivity string            `json:"last_activity_at"`
}

// SubmitAnswer processes one conversational turn.
// POST /v1/triage/answer
func (h *TriageHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SubmitAnswer(r.Context(), req.SessionID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyText):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExtractionFailed):
			writeError(w, http.StatusBadGateway, "could not understand the answer, please try rephrasing")
		default:
			writeError(w, http.StatusInternalServerError, "failed to process answer")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTurnResponse(result))
}

// ClearSession resets a session and returns the opening prompt.
// POST /v1/triage/clear
func (h *TriageHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.ClearSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	writeJSON(w, http.StatusOK, toTurnResponse(result))
}

// GetSession returns a session snapshot for debugging UIs.
// GET /v1/triage/session?session_id=...
func (h *TriageHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id query parameter is required")
		return
	}

	snap, err := h.svc.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	resp := sessionResponse{
		SessionID:    snap.ID,
		State:        string(snap.State),
		Turns:        snap.Turns,
		Conditions:   snap.Conditions,
		Unrecognized: snap.Unrecognized,
		CreatedAt:    snap.CreatedAt.Format(time.RFC3339),
		LastActivity: snap.LastActivityAt.Format(time.RFC3339),
	}
	if snap.Result != nil {
		resp.TriageLevel = string(snap.Result.Level)
		resp.Advice = snap.Result.Advice
	}

	writeJSON(w, http.StatusOK, resp)
}

func toTurnResponse(result *service.TurnResult) turnResponse {
	return turnResponse{
		SessionID:        result.SessionID,
		State:            string(result.State),
		FollowUpQuestion: result.FollowUpQuestion,
		TriageLevel:      string(result.TriageLevel),
		Advice:           result.Advice,
		Conditions:       result.Conditions,
		Unrecognized:     result.Unrecognized,
		RuleCheckingLog:  result.Log,
	}
}
