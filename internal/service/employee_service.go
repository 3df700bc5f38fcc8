package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/employee-portal/internal/access"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// EmployeeService manages the employee roster.
type EmployeeService struct {
	employees repository.EmployeeRepository
}

// NewEmployeeService constructs the service.
func NewEmployeeService(employees repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{employees: employees}
}

// EmployeeInput carries create and update fields.
type EmployeeInput struct {
	Code    string
	Name    string
	Phone   *string
	Address *string
	Status  domain.EmployeeStatus
}

// RosterEntry is the public subset of an employee shown on the signup form.
type RosterEntry struct {
	ID   string
	Code string
	Name string
}

// List returns roster rows matching the filter.
func (s *EmployeeService) List(ctx context.Context, ac identity.AuthorizationContext, filter repository.EmployeeFilter) ([]domain.EmployeeRecord, error) {
	if err := access.Authorize(ac, access.ScreenEmployees, access.ActionView); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
	}
	employees, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// Get returns a single roster row.
func (s *EmployeeService) Get(ctx context.Context, ac identity.AuthorizationContext, id string) (*domain.EmployeeRecord, error) {
	if err := access.Authorize(ac, access.ScreenEmployees, access.ActionView); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", id)
	}
	return employee, nil
}

// Create adds a roster row. Duplicate codes surface as CONFLICT.
func (s *EmployeeService) Create(ctx context.Context, ac identity.AuthorizationContext, input EmployeeInput) (*domain.EmployeeRecord, error) {
	if err := access.Authorize(ac, access.ScreenEmployees, access.ActionCreate); err != nil {
		return nil, err
	}
	employee, err := buildEmployee(input)
	if err != nil {
		return nil, err
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, duplicateCodeOr(err, employee.Code)
	}
	return employee, nil
}

// Update replaces the editable fields of a roster row.
func (s *EmployeeService) Update(ctx context.Context, ac identity.AuthorizationContext, id string, input EmployeeInput) (*domain.EmployeeRecord, error) {
	if err := access.Authorize(ac, access.ScreenEmployees, access.ActionUpdate); err != nil {
		return nil, err
	}
	existing, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", id)
	}
	employee, err := buildEmployee(input)
	if err != nil {
		return nil, err
	}
	employee.ID = existing.ID
	employee.CreatedAt = existing.CreatedAt
	if err := s.employees.Update(ctx, employee); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return nil, duplicateCodeOr(err, employee.Code)
	}
	return employee, nil
}

// Delete removes a roster row. Linked profiles lose their link; rows that still own
// salary slips cannot be deleted.
func (s *EmployeeService) Delete(ctx context.Context, ac identity.AuthorizationContext, id string) error {
	if err := access.Authorize(ac, access.ScreenEmployees, access.ActionDelete); err != nil {
		return err
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.NewConflict("employee still has salary slips", map[string]any{"id": id})
		}
		return notFoundOr(err, "employee", id)
	}
	return nil
}

// Roster lists active employees for signup pairing. It needs no authorization.
func (s *EmployeeService) Roster(ctx context.Context) ([]RosterEntry, error) {
	active := domain.EmployeeStatusActive
	employees, err := s.employees.List(ctx, repository.EmployeeFilter{Status: &active, Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	roster := make([]RosterEntry, 0, len(employees))
	for _, e := range employees {
		roster = append(roster, RosterEntry{ID: e.ID, Code: e.Code, Name: e.Name})
	}
	return roster, nil
}

func buildEmployee(input EmployeeInput) (*domain.EmployeeRecord, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	details := map[string]any{}
	if code == "" {
		details["employee_code"] = "required"
	}
	if name == "" {
		details["name"] = "required"
	}
	status := input.Status
	if status == "" {
		status = domain.EmployeeStatusActive
	}
	if !status.Valid() {
		details["status"] = "must be active or inactive"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid employee", details)
	}
	return &domain.EmployeeRecord{
		Code:    code,
		Name:    name,
		Phone:   trimmedOrNil(input.Phone),
		Address: trimmedOrNil(input.Address),
		Status:  status,
	}, nil
}

func duplicateCodeOr(err error, code string) error {
	if errors.Is(err, apperrors.ErrConflict) {
		return apperrors.NewConflict("employee code already exists", map[string]any{"employee_code": code})
	}
	return apperrors.MapError(err)
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
