package service

import (
	"readingcompass/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	auth := NewAuthService("test-secret")

	token, err := auth.IssueToken("mum", model.RoleParent, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mum", claims.SubjectID)
	assert.Equal(t, model.RoleParent, claims.Role)
}

func TestValidateTokenRejections(t *testing.T) {
	auth := NewAuthService("test-secret")

	other, err := NewAuthService("other-secret").IssueToken("mum", model.RoleParent, time.Hour)
	require.NoError(t, err)
	_, err = auth.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := auth.IssueToken("mum", model.RoleParent, 0)
	require.NoError(t, err)
	_, err = auth.ValidateToken(noExpiry)
	assert.NoError(t, err)

	claims := &model.SubjectClaims{
		SubjectID: "mum",
		Role:      model.RoleParent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	_, err := NewAuthService("s").IssueToken("mum", "wizard", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidRole)
}
