package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-portal/internal/domain"
)

// EmployeeRepository persists roster records.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.EmployeeRecord) error
	Update(ctx context.Context, employee *domain.EmployeeRecord) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.EmployeeRecord, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.EmployeeRecord, error)
	Count(ctx context.Context, status *domain.EmployeeStatus) (int, error)
}

// EmployeeFilter narrows roster listings. Search matches name, code or phone.
type EmployeeFilter struct {
	Search string
	Status *domain.EmployeeStatus
	Limit  int
	Offset int
}

const employeeColumns = `id, employee_code, name, phone, address, status, created_at, updated_at`

type employeeRepository struct {
	pool PgxPool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool PgxPool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func scanEmployee(row pgx.Row) (*domain.EmployeeRecord, error) {
	var employee domain.EmployeeRecord
	if err := row.Scan(
		&employee.ID,
		&employee.Code,
		&employee.Name,
		&employee.Phone,
		&employee.Address,
		&employee.Status,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.EmployeeRecord) error {
	const query = `
        INSERT INTO employees (employee_code, name, phone, address, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		employee.Code,
		employee.Name,
		employee.Phone,
		employee.Address,
		string(employee.Status),
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	return translate(err, "employee")
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.EmployeeRecord) error {
	const query = `
        UPDATE employees
        SET employee_code=$1, name=$2, phone=$3, address=$4, status=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		employee.Code,
		employee.Name,
		employee.Phone,
		employee.Address,
		string(employee.Status),
		employee.ID,
	).Scan(&employee.UpdatedAt)
	return translate(err, "employee")
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM employees WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translate(err, "employee")
	}
	if cmd.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "employee")
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.EmployeeRecord, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`

	employee, err := scanEmployee(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "employee")
	}
	return employee, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.EmployeeRecord, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	clauses := []string{}

	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, likePattern(term))
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%[1]d OR employee_code ILIKE $%[1]d OR phone ILIKE $%[1]d)", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "employee")
	}
	defer rows.Close()

	var result []domain.EmployeeRecord
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, translate(err, "employee")
		}
		result = append(result, *employee)
	}
	return result, translate(rows.Err(), "employee")
}

func (r *employeeRepository) Count(ctx context.Context, status *domain.EmployeeStatus) (int, error) {
	query := `SELECT COUNT(*) FROM employees`
	args := []any{}
	if status != nil {
		args = append(args, string(*status))
		query += " WHERE status=$1"
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, translate(err, "employee")
	}
	return count, nil
}
