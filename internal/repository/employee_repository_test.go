package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-portal/internal/domain"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

var employeeRowColumns = []string{"id", "employee_code", "name", "phone", "address", "status", "created_at", "updated_at"}

func TestEmployeeRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO employees \(employee_code, name, phone, address, status\)`).
		WithArgs("EMP-001", "Ana", pgxmock.AnyArg(), pgxmock.AnyArg(), "active").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("E42", now, now))

	employee := &domain.EmployeeRecord{Code: "EMP-001", Name: "Ana", Status: domain.EmployeeStatusActive}
	require.NoError(t, repo.Create(context.Background(), employee))
	require.Equal(t, "E42", employee.ID)
}

func TestEmployeeRepository_CreateDuplicateCode(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`INSERT INTO employees`).
		WithArgs("EMP-001", "Ana", pgxmock.AnyArg(), pgxmock.AnyArg(), "active").
		WillReturnError(pgErr(pgUniqueViolation))

	err := repo.Create(context.Background(), &domain.EmployeeRecord{Code: "EMP-001", Name: "Ana", Status: domain.EmployeeStatusActive})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestEmployeeRepository_UpdateMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(`UPDATE employees`).
		WithArgs("EMP-001", "Ana", pgxmock.AnyArg(), pgxmock.AnyArg(), "inactive", "E404").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &domain.EmployeeRecord{
		ID: "E404", Code: "EMP-001", Name: "Ana", Status: domain.EmployeeStatusInactive,
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEmployeeRepository_DeleteWithSlipsConflicts(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(`DELETE FROM employees WHERE id=\$1`).
		WithArgs("E42").
		WillReturnError(pgErr(pgForeignKeyViolation))

	err := repo.Delete(context.Background(), "E42")
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestEmployeeRepository_DeleteMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(`DELETE FROM employees WHERE id=\$1`).
		WithArgs("E404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "E404"), apperrors.ErrNotFound)
}

func TestEmployeeRepository_ListFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now()
	status := domain.EmployeeStatusActive

	mock.ExpectQuery(`FROM employees WHERE \(name ILIKE \$1 OR employee_code ILIKE \$1 OR phone ILIKE \$1\) AND status=\$2 ORDER BY name ASC`).
		WithArgs("%ana%", "active").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("E42", "EMP-001", "Ana", ptr("555-0100"), nil, "active", now, now))

	employees, err := repo.List(context.Background(), EmployeeFilter{Search: "ana", Status: &status})
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.Equal(t, domain.EmployeeStatusActive, employees[0].Status)
	require.Equal(t, "555-0100", *employees[0].Phone)
	require.Nil(t, employees[0].Address)
}

func TestEmployeeRepository_Count(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	status := domain.EmployeeStatusActive

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees WHERE status=\$1`).
		WithArgs("active").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(9))

	total, err := repo.Count(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 12, total)

	active, err := repo.Count(context.Background(), &status)
	require.NoError(t, err)
	require.Equal(t, 9, active)
}
