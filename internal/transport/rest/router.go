package rest

import (
	"log/slog"
	"net/http"
	"readingcompass/internal/model"
	"readingcompass/internal/service"
	"readingcompass/internal/transport/rest/handler"
	"readingcompass/internal/transport/rest/middleware"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService   *service.AuthService
	Assessments   handler.AssessmentAPI
	Profiles      handler.ProfileAPI
	Compatibility handler.CompatibilityAPI
	Gatherer      prometheus.Gatherer
	CORSOrigins   string
	Log           *slog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	assessmentHandler := handler.NewAssessmentHandler(c.Assessments, c.Log)
	profileHandler := handler.NewProfileHandler(c.Profiles, c.Log)
	compatHandler := handler.NewCompatibilityHandler(c.Compatibility, c.Log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(requestLogger(c.Log))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// API v1 routes, all subject-authenticated
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(authMW.RequireSubject)

	v1.HandleFunc("/assessments", assessmentHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/assessments/{sessionId}", assessmentHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/assessments/{sessionId}/answers/{questionIndex}", assessmentHandler.Answer).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/assessments/{sessionId}/answers/{questionIndex}", assessmentHandler.Retract).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/assessments/{sessionId}/finalize", assessmentHandler.Finalize).Methods("POST", "OPTIONS")

	v1.HandleFunc("/profiles/{taxonomyId}/latest", profileHandler.Latest).Methods("GET", "OPTIONS")
	v1.HandleFunc("/profiles/{taxonomyId}/history", profileHandler.History).Methods("GET", "OPTIONS")
	v1.HandleFunc("/profiles/{taxonomyId}/retake", profileHandler.Retake).Methods("GET", "OPTIONS")

	// Student routes
	studentRoutes := v1.NewRoute().Subrouter()
	studentRoutes.Use(middleware.RequireRole(model.RoleStudent))

	studentRoutes.HandleFunc("/link-codes", compatHandler.IssueLinkCode).Methods("POST", "OPTIONS")

	// Parent routes
	parentRoutes := v1.NewRoute().Subrouter()
	parentRoutes.Use(middleware.RequireRole(model.RoleParent))

	parentRoutes.HandleFunc("/children", compatHandler.LinkChild).Methods("POST", "OPTIONS")
	parentRoutes.HandleFunc("/children", compatHandler.ListChildren).Methods("GET", "OPTIONS")
	parentRoutes.HandleFunc("/children/{childId}/compatibility", compatHandler.Compatibility).Methods("GET", "OPTIONS")

	// Staff routes
	staffRoutes := v1.NewRoute().Subrouter()
	staffRoutes.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))

	staffRoutes.HandleFunc("/taxonomies/{taxonomyId}/distribution", profileHandler.Distribution).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
