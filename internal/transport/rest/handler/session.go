package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/canvasslabs/canvass/internal/service"
	"github.com/canvasslabs/canvass/internal/transport/rest/middleware"
)

// SessionHandler handles respondent session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Start handles POST /v1/surveys/{surveyId}/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	var req service.StartSessionRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.sessionSvc.Start(r.Context(), surveyID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Questions handles GET /v1/sessions/{sessionId}/questions
func (h *SessionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	view, err := h.sessionSvc.VisibleQuestions(r.Context(), sessionID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SetAnswer handles PUT /v1/sessions/{sessionId}/answers/{questionId}
func (h *SessionHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	questionID := mux.Vars(r)["questionId"]

	var payload service.AnswerPayload
	if err := decodeValid(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	feedback, err := h.sessionSvc.SetAnswer(r.Context(), sessionID, questionID, &payload)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, feedback)
}

// CurrentQuestion handles GET /v1/sessions/{sessionId}/question/current
func (h *SessionHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	question, done, err := h.sessionSvc.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"done":     done,
		"question": question,
	})
}

// Answer handles POST /v1/sessions/{sessionId}/answers
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req service.ChatAnswerRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.sessionSvc.Answer(r.Context(), sessionID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Submit handles POST /v1/sessions/{sessionId}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	result, err := h.sessionSvc.Submit(r.Context(), sessionID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// Abandon handles DELETE /v1/sessions/{sessionId}
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.sessionSvc.Abandon(r.Context(), sessionID); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
