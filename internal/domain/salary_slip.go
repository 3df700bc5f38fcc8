package domain

import (
	"fmt"
	"strings"
	"time"
)

// Months lists the accepted month names in calendar order.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// NormalizeMonth returns the canonical month name and its 1-based number.
func NormalizeMonth(raw string) (string, int, bool) {
	trimmed := strings.TrimSpace(raw)
	for i, m := range Months {
		if strings.EqualFold(m, trimmed) {
			return m, i + 1, true
		}
	}
	return "", 0, false
}

// SalarySlip is always associated with exactly one EmployeeRecord.
type SalarySlip struct {
	ID           string
	EmployeeRef  string
	EmployeeName *string
	Month        string
	Year         int
	FileRef      string
	FileName     string
	FileSize     int64
	UploadedBy   *string
	UploadedAt   time.Time
}

// SlipPath derives the storage path for a slip; re-uploads for the same key overwrite.
func SlipPath(employeeRef string, year, monthNumber int) string {
	return fmt.Sprintf("salary-slips/%s/%04d-%02d.pdf", employeeRef, year, monthNumber)
}
