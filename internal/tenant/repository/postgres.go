package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tenant-auth-core/internal/tenant/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tenant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tenantColumns = "id, name, status, created_at"

// GetByID returns the tenant for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
	return scanTenant(row)
}

// GetByName returns the tenant with the given name, or nil if not found.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE name = $1", name)
	return scanTenant(row)
}

// List returns tenants ordered by creation time, optionally filtered by a
// case-insensitive name substring.
func (r *PostgresRepository) List(ctx context.Context, nameFilter string) ([]*domain.Tenant, error) {
	query := "SELECT " + tenantColumns + " FROM tenants"
	args := []any{}
	if nameFilter != "" {
		query += " WHERE name ILIKE '%' || $1 || '%'"
		args = append(args, nameFilter)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Create persists the tenant. The tenant must have ID set; it is not assigned
// by this method. Returns ErrDuplicateName when the name is taken.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tenants (id, name, status, created_at) VALUES ($1, $2, $3, $4)",
		t.ID, t.Name, t.Status, t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

// SetStatus updates the tenant's status. Missing rows are a no-op.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.TenantStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tenants SET status = $2 WHERE id = $1", id, status)
	return err
}

// Delete hard-deletes the tenant; the schema cascades to users and refresh tokens.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", id)
	return err
}

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Status, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
