package model

import (
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/target/harvester-api/internal/errors"
)

// User is an API account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateUserRequest holds fields for creating a user. PasswordHash is set by the
// auth service, never by callers.
type CreateUserRequest struct {
	Email        string
	Password     string
	PasswordHash string
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const minPasswordLen = 8

// Validate validates the request.
func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperrors.ValidationField("email", "email must be a valid address")
	}
	if len(r.Password) < minPasswordLen {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	return nil
}
