package dto

import "time"

// SalarySlipResponse is one slip's metadata.
type SalarySlipResponse struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName *string   `json:"employee_name"`
	Month        string    `json:"month"`
	Year         int       `json:"year"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	UploadedBy   *string   `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// SignedLinkResponse carries a time-limited download URL.
type SignedLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
