package domain

import "time"

// EmployeeStatus represents the roster state of an employee.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusInactive
}

// EmployeeRecord is a roster entry, independent of whether a login profile exists for it.
type EmployeeRecord struct {
	ID        string
	Code      string
	Name      string
	Phone     *string
	Address   *string
	Status    EmployeeStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
