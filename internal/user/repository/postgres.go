package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tenant-auth-core/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = "id, tenant_id, email, password_hash, role, status, created_at"

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email within the tenant, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, tenantID, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE tenant_id = $1 AND email = $2",
		tenantID, email)
	return scanUser(row)
}

// ListByTenant returns all users of the tenant ordered by creation time.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE tenant_id = $1 ORDER BY created_at",
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create persists the user. The user must have ID set; it is not assigned by
// this method. Returns ErrDuplicateEmail when (tenant_id, email) is taken.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, tenant_id, email, password_hash, role, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateRoleStatus sets role and status of the user within the tenant. Missing rows are a no-op.
func (r *PostgresRepository) UpdateRoleStatus(ctx context.Context, tenantID, id string, role domain.Role, status domain.UserStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET role = $3, status = $4 WHERE tenant_id = $1 AND id = $2",
		tenantID, id, role, status)
	return err
}

// UpdatePasswordHash replaces the stored password hash. Missing rows are a no-op.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, tenantID, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $3 WHERE tenant_id = $1 AND id = $2",
		tenantID, id, passwordHash)
	return err
}

// Delete removes the user; refresh tokens cascade in the store.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM users WHERE tenant_id = $1 AND id = $2", tenantID, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUserRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func scanUserRows(s scanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
