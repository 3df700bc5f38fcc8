package domain

import "time"

// EmployeeProfile is the login-identity row, optionally linked to an EmployeeRecord.
// RoleRaw keeps the stored value untouched so resolution can fail closed on bad data.
type EmployeeProfile struct {
	ID          string
	Email       string
	Name        string
	RoleRaw     string
	Department  *string
	Position    *string
	EmployeeRef *string
	JoinDate    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpdate carries admin edits; nil fields are left unchanged.
type ProfileUpdate struct {
	Name             *string
	Role             *Role
	Department       *string
	Position         *string
	EmployeeRef      *string
	ClearEmployeeRef bool
}
