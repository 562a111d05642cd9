package repository

import (
	"context"

	"tenant-auth-core/internal/token/domain"
)

// Repository defines persistence for refresh tokens. Rows are keyed by the
// SHA-256 digest of the secret; the clear secret is never stored.
type Repository interface {
	// GetByDigest returns the token whose secret digest matches, or nil if not found.
	GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error)
	Create(ctx context.Context, t *domain.RefreshToken) error
	// Rotate atomically revokes the token with oldID and inserts replacement:
	// either both persist or neither does. Returns false without inserting when
	// the old token was already revoked, so two racing rotations of one secret
	// yield exactly one success.
	Rotate(ctx context.Context, oldID string, replacement *domain.RefreshToken) (bool, error)
	// Revoke marks the token revoked. Idempotent; revoking a revoked token is a no-op.
	Revoke(ctx context.Context, id string) error
	// RevokeAllForUser revokes every non-revoked token of the user and returns
	// how many rows changed. Idempotent.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
