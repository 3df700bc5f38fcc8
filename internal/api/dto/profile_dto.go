package dto

import "time"

// ProfileUpdateRequest payload for PATCH /profiles/:id. Omitted fields stay unchanged.
type ProfileUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Role          *string `json:"role" validate:"omitempty,oneof=admin employee"`
	Department    *string `json:"department" validate:"omitempty,max=120"`
	Position      *string `json:"position" validate:"omitempty,max=120"`
	EmployeeID    *string `json:"employee_id"`
	ClearEmployee bool    `json:"clear_employee"`
}

// ProfileResponse is one login profile.
type ProfileResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Department *string    `json:"department"`
	Position   *string    `json:"position"`
	EmployeeID *string    `json:"employee_id"`
	JoinDate   *time.Time `json:"join_date"`
}
