package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-portal/internal/domain"
)

// SalarySlipRepository persists salary slip metadata.
type SalarySlipRepository interface {
	Upsert(ctx context.Context, slip *domain.SalarySlip) error
	GetByID(ctx context.Context, id string) (*domain.SalarySlip, error)
	List(ctx context.Context, filter SlipFilter) ([]domain.SalarySlip, error)
	Count(ctx context.Context, employeeRef *string) (int, error)
}

// SlipFilter narrows slip listings with equality filters.
type SlipFilter struct {
	EmployeeRef *string
	Month       *string
	Year        *int
	Limit       int
	Offset      int
}

const slipColumns = `s.id, s.employee_id, e.name, s.month, s.year, s.file_url, s.file_name, s.file_size, s.uploaded_by, s.upload_date`

type salarySlipRepository struct {
	pool PgxPool
}

// NewSalarySlipRepository instantiates the repository.
func NewSalarySlipRepository(pool PgxPool) SalarySlipRepository {
	return &salarySlipRepository{pool: pool}
}

func scanSlip(row pgx.Row) (*domain.SalarySlip, error) {
	var slip domain.SalarySlip
	if err := row.Scan(
		&slip.ID,
		&slip.EmployeeRef,
		&slip.EmployeeName,
		&slip.Month,
		&slip.Year,
		&slip.FileRef,
		&slip.FileName,
		&slip.FileSize,
		&slip.UploadedBy,
		&slip.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &slip, nil
}

// Upsert inserts the slip or replaces the row for the same (employee, month, year).
func (r *salarySlipRepository) Upsert(ctx context.Context, slip *domain.SalarySlip) error {
	const query = `
        INSERT INTO salary_slips (employee_id, month, year, file_url, file_name, file_size, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (employee_id, month, year) DO UPDATE
        SET file_url=EXCLUDED.file_url,
            file_name=EXCLUDED.file_name,
            file_size=EXCLUDED.file_size,
            uploaded_by=EXCLUDED.uploaded_by,
            upload_date=NOW()
        RETURNING id, upload_date`

	err := r.pool.QueryRow(ctx, query,
		slip.EmployeeRef,
		slip.Month,
		slip.Year,
		slip.FileRef,
		slip.FileName,
		slip.FileSize,
		slip.UploadedBy,
	).Scan(&slip.ID, &slip.UploadedAt)
	return translate(err, "salary slip")
}

func (r *salarySlipRepository) GetByID(ctx context.Context, id string) (*domain.SalarySlip, error) {
	query := `SELECT ` + slipColumns + `
        FROM salary_slips s
        LEFT JOIN employees e ON e.id = s.employee_id
        WHERE s.id=$1`

	slip, err := scanSlip(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "salary slip")
	}
	return slip, nil
}

func (r *salarySlipRepository) List(ctx context.Context, filter SlipFilter) ([]domain.SalarySlip, error) {
	query := `SELECT ` + slipColumns + `
        FROM salary_slips s
        LEFT JOIN employees e ON e.id = s.employee_id`
	args := []any{}
	clauses := []string{}

	if filter.EmployeeRef != nil {
		args = append(args, *filter.EmployeeRef)
		clauses = append(clauses, fmt.Sprintf("s.employee_id=$%d", len(args)))
	}
	if filter.Month != nil {
		args = append(args, *filter.Month)
		clauses = append(clauses, fmt.Sprintf("s.month=$%d", len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		clauses = append(clauses, fmt.Sprintf("s.year=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY s.year DESC, s.upload_date DESC"
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
		return nil, translate(err, "salary slip")
	}
	defer rows.Close()

	var result []domain.SalarySlip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, translate(err, "salary slip")
		}
		result = append(result, *slip)
	}
	return result, translate(rows.Err(), "salary slip")
}

// Count returns the number of slips, optionally for a single employee.
func (r *salarySlipRepository) Count(ctx context.Context, employeeRef *string) (int, error) {
	query := `SELECT COUNT(*) FROM salary_slips`
	args := []any{}
	if employeeRef != nil {
		args = append(args, *employeeRef)
		query += " WHERE employee_id=$1"
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, translate(err, "salary slip")
	}
	return count, nil
}
