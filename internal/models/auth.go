package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies the caller class carried in access tokens.
type UserRole string

const (
	RoleStaff   UserRole = "staff"
	RoleStudent UserRole = "student"
	RoleSystem  UserRole = "system"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
