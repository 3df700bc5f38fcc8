package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-portal/internal/domain"
)

// ProfileRepository persists login profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.EmployeeProfile) error
	GetByID(ctx context.Context, id string) (*domain.EmployeeProfile, error)
	List(ctx context.Context, filter ProfileFilter) ([]domain.EmployeeProfile, error)
	Update(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.EmployeeProfile, error)
	CountDepartments(ctx context.Context) (int, error)
}

// ProfileFilter narrows profile listings. Search matches name, email, department or position.
type ProfileFilter struct {
	Search string
	Limit  int
	Offset int
}

const profileColumns = `id, email, name, role, department, position, employee_id, join_date, created_at, updated_at`

type profileRepository struct {
	pool PgxPool
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(pool PgxPool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func scanProfile(row pgx.Row) (*domain.EmployeeProfile, error) {
	var (
		profile domain.EmployeeProfile
		role    *string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.Name,
		&role,
		&profile.Department,
		&profile.Position,
		&profile.EmployeeRef,
		&profile.JoinDate,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if role != nil {
		profile.RoleRaw = *role
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.EmployeeProfile) error {
	const query = `
        INSERT INTO profiles (id, email, name, role, department, position, employee_id, join_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Email,
		profile.Name,
		profile.RoleRaw,
		profile.Department,
		profile.Position,
		profile.EmployeeRef,
		profile.JoinDate,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	return translate(err, "profile")
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.EmployeeProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "profile")
	}
	return profile, nil
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]domain.EmployeeProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	args := []any{}

	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, likePattern(term))
		query += fmt.Sprintf(" WHERE (name ILIKE $%[1]d OR email ILIKE $%[1]d OR department ILIKE $%[1]d OR position ILIKE $%[1]d)", len(args))
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "profile")
	}
	defer rows.Close()

	var result []domain.EmployeeProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, translate(err, "profile")
		}
		result = append(result, *profile)
	}
	return result, translate(rows.Err(), "profile")
}

func (r *profileRepository) Update(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.EmployeeProfile, error) {
	args := []any{}
	sets := []string{}

	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name=$%d", len(args)))
	}
	if update.Role != nil {
		args = append(args, string(*update.Role))
		sets = append(sets, fmt.Sprintf("role=$%d", len(args)))
	}
	if update.Department != nil {
		args = append(args, *update.Department)
		sets = append(sets, fmt.Sprintf("department=$%d", len(args)))
	}
	if update.Position != nil {
		args = append(args, *update.Position)
		sets = append(sets, fmt.Sprintf("position=$%d", len(args)))
	}
	switch {
	case update.ClearEmployeeRef:
		sets = append(sets, "employee_id=NULL")
	case update.EmployeeRef != nil:
		args = append(args, *update.EmployeeRef)
		sets = append(sets, fmt.Sprintf("employee_id=$%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), profileColumns)

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err, "profile")
	}
	return profile, nil
}

func (r *profileRepository) CountDepartments(ctx context.Context) (int, error) {
	const query = `
        SELECT COUNT(DISTINCT department) FROM profiles
        WHERE department IS NOT NULL AND department <> ''`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, translate(err, "profile")
	}
	return count, nil
}
