package dto

import "time"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest payload for POST /auth/signup.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	EmployeeID      string `json:"employee_id" validate:"required"`
}

// PasswordResetRequest payload for POST /auth/password/reset/request.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest payload for POST /auth/password/reset/confirm.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ChangePasswordRequest payload for POST /auth/password/change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResponse describes the caller's resolved identity.
type MeResponse struct {
	Role        string          `json:"role"`
	EmployeeID  *string         `json:"employee_id"`
	SubjectType string          `json:"subject_type"`
	Profile     ProfileResponse `json:"profile"`
}

// LoginResponse pairs the token with the resolved identity.
type LoginResponse struct {
	Auth AuthResponse `json:"auth"`
	Me   MeResponse   `json:"me"`
}
