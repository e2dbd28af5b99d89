package service

import (
	"errors"
	"fmt"
	"readingcompass/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidRole  = errors.New("unknown role")
)

var knownRoles = map[string]bool{
	model.RoleStudent: true,
	model.RoleParent:  true,
	model.RoleTeacher: true,
	model.RoleAdmin:   true,
}

// AuthService issues and validates subject tokens
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
	}
}

// IssueToken signs a token for subjectID. ttl <= 0 issues a token without expiry.
func (s *AuthService) IssueToken(subjectID, role string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id is required")
	}
	if !knownRoles[role] {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	now := time.Now()
	claims := &model.SubjectClaims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subjectID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a subject JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.SubjectClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SubjectClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SubjectClaims)
	if !ok || !token.Valid || claims.SubjectID == "" || !knownRoles[claims.Role] {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
