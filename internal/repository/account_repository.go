package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-portal/internal/domain"
)

// AccountRepository defines persistence access for login credentials.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.AuthAccount) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.AuthAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.AuthAccount, error)
	Delete(ctx context.Context, id string) error
}

type accountRepository struct {
	pool PgxPool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool PgxPool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.AuthAccount) error {
	const query = `
        INSERT INTO auth_accounts (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return translate(err, "account")
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
        UPDATE auth_accounts SET password_hash=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return translate(err, "account")
	}
	if cmd.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "account")
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.AuthAccount, error) {
	const query = `
        SELECT id, email, password_hash, created_at, updated_at
        FROM auth_accounts WHERE id=$1`

	var account domain.AuthAccount
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, translate(err, "account")
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.AuthAccount, error) {
	const query = `
        SELECT id, email, password_hash, created_at, updated_at
        FROM auth_accounts WHERE lower(email)=lower($1)`

	var account domain.AuthAccount
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, translate(err, "account")
	}
	return &account, nil
}

// Delete removes an account; its profile goes with it through the foreign key.
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_accounts WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translate(err, "account")
	}
	if cmd.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "account")
	}
	return nil
}
