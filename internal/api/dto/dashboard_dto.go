package dto

// DashboardResponse is the landing view. Admin counters are omitted for employees.
type DashboardResponse struct {
	Role            string          `json:"role"`
	Profile         ProfileResponse `json:"profile"`
	CurrentMonth    string          `json:"current_month"`
	CurrentYear     int             `json:"current_year"`
	TotalEmployees  *int            `json:"total_employees,omitempty"`
	ActiveEmployees *int            `json:"active_employees,omitempty"`
	TotalSlips      *int            `json:"total_slips,omitempty"`
	Departments     *int            `json:"departments,omitempty"`
	MySlips         *int            `json:"my_slips,omitempty"`
}
