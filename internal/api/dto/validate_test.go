package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(LoginRequest{Email: "not-an-email"})
	de := apperrors.ToDomainError(err)
	require.Equal(t, "VALIDATION_FAILED", de.Code)
	require.Equal(t, "must be a valid email", de.Details["email"])
	require.Equal(t, "required", de.Details["password"])
}

func TestValidate_OptionalFields(t *testing.T) {
	require.NoError(t, Validate(ProfileUpdateRequest{}))

	bad := "owner"
	de := apperrors.ToDomainError(Validate(ProfileUpdateRequest{Role: &bad}))
	require.Equal(t, "must be one of: admin employee", de.Details["role"])

	require.NoError(t, Validate(EmployeeRequest{EmployeeCode: "EMP-1", Name: "Ana"}))
	de = apperrors.ToDomainError(Validate(EmployeeRequest{EmployeeCode: "EMP-1", Name: "Ana", Status: "retired"}))
	require.Contains(t, de.Details, "status")
}
