package domain

import "time"

// AuthAccount holds the credentials checked at sign-in. Its ID is shared with the
// matching EmployeeProfile.
type AuthAccount struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordReset is a single-use reset token issued for an account.
type PasswordReset struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
