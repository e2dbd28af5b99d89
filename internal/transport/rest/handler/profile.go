package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"readingcompass/internal/cache"
	"readingcompass/internal/model"
	"readingcompass/internal/transport/rest/middleware"
	"strconv"

	"github.com/gorilla/mux"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ProfileAPI reads stored profiles.
type ProfileAPI interface {
	Latest(ctx context.Context, subjectID, taxonomyID string) (*model.ProfileRecord, error)
	History(ctx context.Context, subjectID, taxonomyID string, limit int) ([]*model.ProfileRecord, error)
	RetakeAdvice(ctx context.Context, subjectID, taxonomyID string) (*model.RetakeAdvice, error)
	Distribution(ctx context.Context, taxonomyID string, limit int) ([]cache.DistributionEntry, error)
}

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	svc ProfileAPI
	log *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc ProfileAPI, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// Latest handles GET /v1/profiles/{taxonomyId}/latest
func (h *ProfileHandler) Latest(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Latest(r.Context(), middleware.GetSubjectID(r.Context()), mux.Vars(r)["taxonomyId"])
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// History handles GET /v1/profiles/{taxonomyId}/history?limit=
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultHistoryLimit, 1)
	if !ok {
		return
	}
	records, err := h.svc.History(r.Context(), middleware.GetSubjectID(r.Context()), mux.Vars(r)["taxonomyId"], limit)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": records})
}

// Retake handles GET /v1/profiles/{taxonomyId}/retake
func (h *ProfileHandler) Retake(w http.ResponseWriter, r *http.Request) {
	advice, err := h.svc.RetakeAdvice(r.Context(), middleware.GetSubjectID(r.Context()), mux.Vars(r)["taxonomyId"])
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

// Distribution handles GET /v1/taxonomies/{taxonomyId}/distribution?limit=
func (h *ProfileHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 0, 0)
	if !ok {
		return
	}
	taxonomyID := mux.Vars(r)["taxonomyId"]
	entries, err := h.svc.Distribution(r.Context(), taxonomyID, limit)
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"taxonomyId": taxonomyID, "types": entries})
}

// parseLimit reads ?limit= within [lowest, maxHistoryLimit], using fallback when
// it is absent.
func parseLimit(w http.ResponseWriter, r *http.Request, fallback, lowest int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < lowest || limit > maxHistoryLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between %d and %d", lowest, maxHistoryLimit))
		return 0, false
	}
	return limit, true
}
