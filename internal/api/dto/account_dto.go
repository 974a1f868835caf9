package dto

import (
	"time"

	"github.com/spec-kit/provision-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Email              string      `json:"email"`
	Password           string      `json:"password"`
	Role               domain.Role `json:"role"`
	ProfileDescription string      `json:"profile_description"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResponse represents account data.
type ProfileResponse struct {
	ID                 string      `json:"id"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Email              string      `json:"email"`
	Role               domain.Role `json:"role"`
	ProfileDescription string      `json:"profile_description"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	ProfileDescription string `json:"profile_description"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
