package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the admin routes.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// JWTClaims represents the bearer token payload attached to each admin request.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
