package handler

import (
	"context"
	"log/slog"
	"net/http"
	"readingcompass/internal/model"
	"readingcompass/internal/transport/rest/middleware"
	"strconv"

	"github.com/gorilla/mux"
)

// AssessmentAPI is the assessment workflow used by AssessmentHandler.
type AssessmentAPI interface {
	Start(ctx context.Context, subjectID, taxonomyID string) (*model.AssessmentSession, error)
	Answer(ctx context.Context, sessionID, subjectID string, questionIndex, optionIndex int) (*model.AssessmentState, error)
	Retract(ctx context.Context, sessionID, subjectID string, questionIndex int) (*model.AssessmentState, error)
	Progress(ctx context.Context, sessionID, subjectID string) (*model.AssessmentState, error)
	Finalize(ctx context.Context, sessionID, subjectID string) (*model.ProfileRecord, error)
}

// AssessmentHandler handles assessment endpoints
type AssessmentHandler struct {
	svc AssessmentAPI
	log *slog.Logger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(svc AssessmentAPI, log *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, log: log}
}

// StartAssessmentRequest is the request body for starting an assessment
type StartAssessmentRequest struct {
	TaxonomyID string `json:"taxonomyId" validate:"required"`
}

// AnswerRequest is the request body for answering a question
type AnswerRequest struct {
	OptionIndex *int `json:"optionIndex" validate:"required"`
}

// Start handles POST /v1/assessments
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	subjectID := middleware.GetSubjectID(r.Context())

	var req StartAssessmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.svc.Start(r.Context(), subjectID, req.TaxonomyID)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/assessments/{sessionId}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Progress(r.Context(), mux.Vars(r)["sessionId"], middleware.GetSubjectID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Answer handles PUT /v1/assessments/{sessionId}/answers/{questionIndex}
func (h *AssessmentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	questionIndex, err := strconv.Atoi(vars["questionIndex"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "questionIndex must be an integer")
		return
	}

	var req AnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	state, err := h.svc.Answer(r.Context(), vars["sessionId"], middleware.GetSubjectID(r.Context()), questionIndex, *req.OptionIndex)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Retract handles DELETE /v1/assessments/{sessionId}/answers/{questionIndex}
func (h *AssessmentHandler) Retract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	questionIndex, err := strconv.Atoi(vars["questionIndex"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "questionIndex must be an integer")
		return
	}

	state, err := h.svc.Retract(r.Context(), vars["sessionId"], middleware.GetSubjectID(r.Context()), questionIndex)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Finalize handles POST /v1/assessments/{sessionId}/finalize
func (h *AssessmentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Finalize(r.Context(), mux.Vars(r)["sessionId"], middleware.GetSubjectID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
