package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenServiceValidate(t *testing.T) {
	svc := NewTokenService("secret")
	signed := signToken(t, "secret", models.JWTClaims{
		StudentID: "s1",
		Email:     "s1@campus.test",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.StudentID)
	assert.Equal(t, "s1@campus.test", claims.Email)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("secret")
	signed := signToken(t, "other-secret", models.JWTClaims{StudentID: "s1"})

	_, err := svc.Validate(signed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("secret")
	signed := signToken(t, "secret", models.JWTClaims{
		StudentID: "s1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.Validate(signed)
	require.Error(t, err)
}

func TestTokenServiceRejectsMissingStudentID(t *testing.T) {
	svc := NewTokenService("secret")
	signed := signToken(t, "secret", models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := svc.Validate(signed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
