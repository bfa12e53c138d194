package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

func operatorClaims(ttl time.Duration) models.JWTClaims {
	return models.JWTClaims{
		UserID: "operator-1",
		Role:   models.RoleManager,
		Email:  "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.IssueToken(operatorClaims(time.Hour))
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret")

	expired, err := svc.IssueToken(operatorClaims(-time.Minute))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign, err := NewTokenService("other").IssueToken(operatorClaims(time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	noExpiry := operatorClaims(time.Hour)
	noExpiry.ExpiresAt = nil
	unbounded, err := svc.IssueToken(noExpiry)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unbounded)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	anonymous := operatorClaims(time.Hour)
	anonymous.UserID = ""
	token, err := svc.IssueToken(anonymous)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
