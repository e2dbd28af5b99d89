package middleware

import (
	"context"
	"net/http"
	"readingcompass/internal/service"
	"strings"
)

type contextKey string

const (
	SubjectIDKey contextKey = "subjectId"
	RoleKey      contextKey = "role"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireSubject validates the subject JWT from the Authorization header
func (m *AuthMiddleware) RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.SubjectID, claims.Role)))
	})
}

// RequireRole admits only callers whose token carries one of roles. It must
// run after RequireSubject.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		})
	}
}

// GetSubjectID extracts the subject ID from context
func GetSubjectID(ctx context.Context) string {
	if v, ok := ctx.Value(SubjectIDKey).(string); ok {
		return v
	}
	return ""
}

// GetRole extracts the caller's role from context
func GetRole(ctx context.Context) string {
	if v, ok := ctx.Value(RoleKey).(string); ok {
		return v
	}
	return ""
}

// WithSubject returns ctx carrying subjectID and role, as RequireSubject
// would set them.
func WithSubject(ctx context.Context, subjectID, role string) context.Context {
	ctx = context.WithValue(ctx, SubjectIDKey, subjectID)
	return context.WithValue(ctx, RoleKey, role)
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
