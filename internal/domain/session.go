package domain

import "time"

// Session is an authenticated session issued by the authentication service.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// SubjectType differentiates real sessions from the dev bypass identity in tokens.
type SubjectType string

const (
	SubjectTypeSession   SubjectType = "SESSION"
	SubjectTypeDevBypass SubjectType = "DEV_BYPASS"
)
