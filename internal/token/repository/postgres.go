package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tenant-auth-core/internal/token/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a refresh-token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = "id, user_id, tenant_id, secret_digest, jti, revoked_at, created_at, expires_at"

// GetByDigest returns the token whose secret digest matches, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE secret_digest = $1", digest)
	t, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Create persists the token. The token must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, tenant_id, secret_digest, jti, revoked_at, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		t.ID, t.UserID, t.TenantID, t.SecretDigest, t.JTI, nullTime(t.RevokedAt), t.CreatedAt, t.ExpiresAt)
	return err
}

// Rotate atomically revokes the token with oldID and inserts replacement. The
// conditional update's affected-row count decides the race: the transaction
// inserts only when this call is the one that flipped revoked_at, so racing
// rotations of the same secret commit exactly one replacement.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, replacement *domain.RefreshToken) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL",
		oldID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, tenant_id, secret_digest, jti, revoked_at, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, NULL, $6, $7)",
		replacement.ID, replacement.UserID, replacement.TenantID, replacement.SecretDigest,
		replacement.JTI, replacement.CreatedAt, replacement.ExpiresAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks the token with the given id as revoked. Idempotent; already
// revoked or missing rows are a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL",
		id, time.Now().UTC())
	return err
}

// RevokeAllForUser revokes every non-revoked token of the user and returns how
// many rows changed.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL",
		userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanToken(row *sql.Row) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	var revokedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.TenantID, &t.SecretDigest, &t.JTI, &revokedAt, &t.CreatedAt, &t.ExpiresAt); err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
