package handler

import (
	"context"
	"log/slog"
	"net/http"
	"readingcompass/internal/model"
	"readingcompass/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// CompatibilityAPI is the parent/child surface used by CompatibilityHandler.
type CompatibilityAPI interface {
	IssueLinkCode(ctx context.Context, childID string) (*model.LinkCode, error)
	LinkChild(ctx context.Context, parentID, code string) (string, error)
	Children(ctx context.Context, parentID string) ([]string, error)
	ForPair(ctx context.Context, parentID, childID, parentTaxonomyID, childTaxonomyID string) (*model.CompatibilityView, error)
}

// CompatibilityHandler handles parent endpoints
type CompatibilityHandler struct {
	svc CompatibilityAPI
	log *slog.Logger
}

// NewCompatibilityHandler creates a new compatibility handler
func NewCompatibilityHandler(svc CompatibilityAPI, log *slog.Logger) *CompatibilityHandler {
	return &CompatibilityHandler{svc: svc, log: log}
}

// LinkChildRequest is the request body for linking a child
type LinkChildRequest struct {
	Code string `json:"code" validate:"required"`
}

// IssueLinkCode handles POST /v1/link-codes
func (h *CompatibilityHandler) IssueLinkCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.svc.IssueLinkCode(r.Context(), middleware.GetSubjectID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

// LinkChild handles POST /v1/children
func (h *CompatibilityHandler) LinkChild(w http.ResponseWriter, r *http.Request) {
	var req LinkChildRequest
	if !decodeBody(w, r, &req) {
		return
	}
	childID, err := h.svc.LinkChild(r.Context(), middleware.GetSubjectID(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"childId": childID})
}

// ListChildren handles GET /v1/children
func (h *CompatibilityHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Children(r.Context(), middleware.GetSubjectID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"children": ids})
}

// Compatibility handles GET /v1/children/{childId}/compatibility
func (h *CompatibilityHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.svc.ForPair(r.Context(),
		middleware.GetSubjectID(r.Context()),
		mux.Vars(r)["childId"],
		q.Get("parentTaxonomy"),
		q.Get("childTaxonomy"),
	)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
