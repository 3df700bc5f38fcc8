package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

func newProfileFixture() (*ProfileService, *memProfiles) {
	profiles := newMemProfiles(
		&domain.EmployeeProfile{ID: "p1", Name: "Ana", Email: "ana@corp.test", RoleRaw: "employee", EmployeeRef: ptr("E42")},
		&domain.EmployeeProfile{ID: "p2", Name: "Bo", Email: "bo@corp.test", RoleRaw: "employee"},
	)
	employees := newMemEmployees(
		&domain.EmployeeRecord{ID: "E42", Code: "EMP-042", Name: "Ana", Status: domain.EmployeeStatusActive},
		&domain.EmployeeRecord{ID: "E60", Code: "EMP-060", Name: "Bo", Status: domain.EmployeeStatusActive},
	)
	return NewProfileService(profiles, employees), profiles
}

func TestProfileService_ListAndUpdate(t *testing.T) {
	svc, _ := newProfileFixture()
	ctx := context.Background()

	list, err := svc.List(ctx, adminCtx(), repository.ProfileFilter{Search: "an"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	admin := domain.RoleAdmin
	updated, err := svc.Update(ctx, adminCtx(), "p2", domain.ProfileUpdate{
		Role:        &admin,
		Department:  ptr("Finance"),
		EmployeeRef: ptr("E60"),
	})
	require.NoError(t, err)
	require.Equal(t, "admin", updated.RoleRaw)
	require.Equal(t, "E60", *updated.EmployeeRef)

	cleared, err := svc.Update(ctx, adminCtx(), "p1", domain.ProfileUpdate{ClearEmployeeRef: true})
	require.NoError(t, err)
	require.Nil(t, cleared.EmployeeRef)
}

func TestProfileService_UpdateValidation(t *testing.T) {
	svc, _ := newProfileFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, adminCtx(), "p1", domain.ProfileUpdate{Name: ptr("  ")})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	bogus := domain.Role("owner")
	_, err = svc.Update(ctx, adminCtx(), "p1", domain.ProfileUpdate{Role: &bogus})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Update(ctx, adminCtx(), "p1", domain.ProfileUpdate{EmployeeRef: ptr("E404")})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Update(ctx, adminCtx(), "missing", domain.ProfileUpdate{Name: ptr("X")})
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestProfileService_EmployeeDenied(t *testing.T) {
	svc, _ := newProfileFixture()

	_, err := svc.List(context.Background(), employeeCtx(ptr("E42")), repository.ProfileFilter{})
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
	_, err = svc.Update(context.Background(), employeeCtx(ptr("E42")), "p1", domain.ProfileUpdate{Name: ptr("Me")})
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
}
