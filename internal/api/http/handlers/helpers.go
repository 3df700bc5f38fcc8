package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

func callerFrom(c *fiber.Ctx) (*auth.Caller, error) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return caller, nil
}

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func paging(c *fiber.Ctx, defaultSize int) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultSize)
	return pageSize, (page - 1) * pageSize
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func profileResponse(p domain.EmployeeProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:         p.ID,
		Email:      p.Email,
		Name:       p.Name,
		Role:       p.RoleRaw,
		Department: p.Department,
		Position:   p.Position,
		EmployeeID: p.EmployeeRef,
		JoinDate:   p.JoinDate,
	}
}

func meResponse(ac identity.AuthorizationContext) dto.MeResponse {
	me := dto.MeResponse{
		Role:       string(ac.Role),
		EmployeeID: ac.EmployeeRef,
		Profile:    profileResponse(ac.Profile),
	}
	if ac.Principal != nil {
		me.SubjectType = string(ac.Principal.SubjectType())
	}
	return me
}

func employeeResponse(e *domain.EmployeeRecord) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:           e.ID,
		EmployeeCode: e.Code,
		Name:         e.Name,
		Phone:        e.Phone,
		Address:      e.Address,
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func slipResponse(s *domain.SalarySlip) dto.SalarySlipResponse {
	return dto.SalarySlipResponse{
		ID:           s.ID,
		EmployeeID:   s.EmployeeRef,
		EmployeeName: s.EmployeeName,
		Month:        s.Month,
		Year:         s.Year,
		FileName:     s.FileName,
		FileSize:     s.FileSize,
		UploadedBy:   s.UploadedBy,
		UploadedAt:   s.UploadedAt,
	}
}
