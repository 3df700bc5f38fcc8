package dto

import "time"

// EmployeeRequest payload for creating or replacing a roster row.
type EmployeeRequest struct {
	EmployeeCode string  `json:"employee_code" validate:"required,max=32"`
	Name         string  `json:"name" validate:"required,max=200"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	Status       string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

// EmployeeResponse is one roster row.
type EmployeeResponse struct {
	ID           string    `json:"id"`
	EmployeeCode string    `json:"employee_code"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RosterEntryResponse is the public roster subset used during signup.
type RosterEntryResponse struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
}
