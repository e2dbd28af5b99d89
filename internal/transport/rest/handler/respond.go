package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"readingcompass/internal/cache"
	"readingcompass/internal/personality"
	"readingcompass/internal/service"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeBody reads a JSON body into dst and runs struct validation. It writes
// the 400 response itself and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
			}
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request", "fields": fields})
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// StatusFor maps service and engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case personality.IsValidation(err):
		return http.StatusBadRequest
	case personality.IsDegenerate(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTaxonomyNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, personality.ErrCompatibilityNotFound),
		errors.Is(err, service.ErrLinkCodeInvalid):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTaxonomyInFlux),
		errors.Is(err, cache.ErrSessionContended):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSessionForbidden),
		errors.Is(err, service.ErrSubjectNotLinked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Internal errors are logged and their detail
// withheld from the client.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}

	var ve *personality.ValidationError
	if errors.As(err, &ve) && len(ve.Missing) > 0 {
		writeJSON(w, status, map[string]interface{}{"error": err.Error(), "missing": ve.Missing})
		return
	}
	writeError(w, status, err.Error())
}
