package accountrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/suncare/internal/domain/auth"
)

const uniqueViolation = "23505"

// PostgresRepository persists accounts in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new account row.
func (r *PostgresRepository) Create(ctx context.Context, account auth.Account) (auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, created_at
	`, account.ID, account.Email, account.PasswordHash, account.CreatedAt)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.Account{}, auth.ErrEmailExists
		}
		return auth.Account{}, err
	}
	return created, nil
}

// GetByEmail fetches an account by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.Account, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (auth.Account, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

// Delete removes the account row. Missing rows are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (auth.Account, bool, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Account{}, false, nil
	}
	if err != nil {
		return auth.Account{}, false, err
	}
	return account, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (auth.Account, error) {
	var account auth.Account
	var created time.Time
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &created); err != nil {
		return auth.Account{}, err
	}
	account.CreatedAt = created.UTC()
	return account, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
