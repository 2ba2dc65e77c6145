package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

// TokenService validates access tokens issued by the identity service. This
// API never issues tokens of its own.
type TokenService struct {
	secret string
}

// NewTokenService constructs TokenService.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: secret}
}

// Validate parses and verifies an access token, returning its claims.
func (s *TokenService) Validate(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no student identity")
	}

	return claims, nil
}
