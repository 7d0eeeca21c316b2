package model

import (
	"strings"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles. New accounts start as pending until an admin approves them.
const (
	RolePending  = "pending"
	RoleUser     = "user"
	RoleAdmin    = "admin"
	RoleRejected = "rejected"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RolePending, RoleUser, RoleAdmin, RoleRejected:
		return true
	}
	return false
}

// CanLogin reports whether an account with role may obtain a token.
func CanLogin(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// NormalizeEmail lowercases and trims an address. Emails are stored normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
