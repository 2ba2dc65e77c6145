package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload issued by the identity
// service. This API only validates tokens; it never issues them.
type JWTClaims struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	jwt.RegisteredClaims
}
