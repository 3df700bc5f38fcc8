package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

func TestEmployeeService_AdminCRUD(t *testing.T) {
	repo := newMemEmployees()
	svc := NewEmployeeService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminCtx(), EmployeeInput{Code: " EMP-001 ", Name: "Ana", Phone: ptr("  ")})
	require.NoError(t, err)
	require.Equal(t, "EMP-001", created.Code)
	require.Equal(t, domain.EmployeeStatusActive, created.Status)
	require.Nil(t, created.Phone)

	_, err = svc.Create(ctx, adminCtx(), EmployeeInput{Code: "EMP-001", Name: "Other"})
	require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	updated, err := svc.Update(ctx, adminCtx(), created.ID, EmployeeInput{Code: "EMP-001", Name: "Ana B", Status: domain.EmployeeStatusInactive})
	require.NoError(t, err)
	require.Equal(t, "Ana B", updated.Name)

	inactive := domain.EmployeeStatusInactive
	list, err := svc.List(ctx, adminCtx(), repository.EmployeeFilter{Status: &inactive})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, adminCtx(), created.ID))
	_, err = svc.Get(ctx, adminCtx(), created.ID)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestEmployeeService_Validation(t *testing.T) {
	svc := NewEmployeeService(newMemEmployees())

	_, err := svc.Create(context.Background(), adminCtx(), EmployeeInput{Code: "", Name: ""})
	de := apperrors.ToDomainError(err)
	require.Equal(t, "VALIDATION_FAILED", de.Code)
	require.Contains(t, de.Details, "employee_code")
	require.Contains(t, de.Details, "name")

	_, err = svc.Create(context.Background(), adminCtx(), EmployeeInput{Code: "X", Name: "Y", Status: "retired"})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	bad := domain.EmployeeStatus("retired")
	_, err = svc.List(context.Background(), adminCtx(), repository.EmployeeFilter{Status: &bad})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestEmployeeService_EmployeeRoleDenied(t *testing.T) {
	svc := NewEmployeeService(newMemEmployees(&domain.EmployeeRecord{ID: "E42", Code: "EMP-042", Name: "Ana", Status: domain.EmployeeStatusActive}))
	ctx := context.Background()
	ac := employeeCtx(ptr("E42"))

	_, err := svc.List(ctx, ac, repository.EmployeeFilter{})
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
	_, err = svc.Get(ctx, ac, "E42")
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
	_, err = svc.Create(ctx, ac, EmployeeInput{Code: "X", Name: "Y"})
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
	require.ErrorIs(t, svc.Delete(ctx, ac, "E42"), apperrors.ErrAuthorizationDenied)
}

func TestEmployeeService_DeleteWithSlipsConflicts(t *testing.T) {
	repo := newMemEmployees(&domain.EmployeeRecord{ID: "E42", Code: "EMP-042", Name: "Ana", Status: domain.EmployeeStatusActive})
	repo.slips = &memSlips{rows: []*domain.SalarySlip{{ID: "S1", EmployeeRef: "E42", Month: "March", Year: 2024}}}
	svc := NewEmployeeService(repo)

	err := svc.Delete(context.Background(), adminCtx(), "E42")
	require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestEmployeeService_RosterListsActiveOnly(t *testing.T) {
	svc := NewEmployeeService(newMemEmployees(
		&domain.EmployeeRecord{ID: "E1", Code: "EMP-001", Name: "Ana", Status: domain.EmployeeStatusActive},
		&domain.EmployeeRecord{ID: "E2", Code: "EMP-002", Name: "Bo", Status: domain.EmployeeStatusInactive},
	))

	roster, err := svc.Roster(context.Background())
	require.NoError(t, err)
	require.Equal(t, []RosterEntry{{ID: "E1", Code: "EMP-001", Name: "Ana"}}, roster)
}
