package domain

import "time"

// RefreshToken is a persisted, rotating session handle. Only the SHA-256 digest
// of the secret is stored; the clear secret leaves the process exactly once, at
// mint time. TenantID is denormalized from the user so revocation scans stay
// single-query. The row is immutable except for RevokedAt, which is set exactly
// once and never cleared.
type RefreshToken struct {
	ID           string
	UserID       string
	TenantID     string
	SecretDigest string
	JTI          string
	RevokedAt    *time.Time // nil when not revoked
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Usable reports whether the token can still be presented at the given time:
// not revoked and not past expiry. Expiry is evaluated lazily; an expired
// unrevoked row is treated identically to a revoked one.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
