package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/canvasslabs/canvass/internal/service"
	"github.com/canvasslabs/canvass/internal/transport/rest/middleware"
)

// SurveyHandler handles builder-facing survey endpoints
type SurveyHandler struct {
	surveySvc    *service.SurveyService
	generatorSvc *service.GeneratorService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, generatorSvc *service.GeneratorService) *SurveyHandler {
	return &SurveyHandler{
		surveySvc:    surveySvc,
		generatorSvc: generatorSvc,
	}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	if builderID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req service.SaveSurveyRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), builderID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	if builderID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	surveys, err := h.surveySvc.List(r.Context(), builderID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	surveyID := mux.Vars(r)["surveyId"]

	survey, err := h.surveySvc.GetOwned(r.Context(), builderID, surveyID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Update handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	surveyID := mux.Vars(r)["surveyId"]

	var req service.SaveSurveyRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.surveySvc.Update(r.Context(), builderID, surveyID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Delete handles DELETE /v1/surveys/{surveyId}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	surveyID := mux.Vars(r)["surveyId"]

	if err := h.surveySvc.Delete(r.Context(), builderID, surveyID); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Generate handles POST /v1/surveys/generate
func (h *SurveyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	if builderID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req service.GenerateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := h.generatorSvc.Generate(r.Context(), builderID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

// Submissions handles GET /v1/surveys/{surveyId}/submissions
func (h *SurveyHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	surveyID := mux.Vars(r)["surveyId"]

	submissions, err := h.surveySvc.Submissions(r.Context(), builderID, surveyID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": submissions})
}

// SubmissionAnswers handles GET /v1/surveys/{surveyId}/submissions/{submissionId}
func (h *SurveyHandler) SubmissionAnswers(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	vars := mux.Vars(r)

	answers, err := h.surveySvc.SubmissionAnswers(r.Context(), builderID, vars["surveyId"], vars["submissionId"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"answers": answers})
}
