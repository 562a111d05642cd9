package repository

import (
	"context"
	"errors"

	"tenant-auth-core/internal/user/domain"
)

// ErrDuplicateEmail is returned by Create when (tenant id, email) already exists.
var ErrDuplicateEmail = errors.New("email already registered in tenant")

// Repository defines persistence for users. Lookups other than GetByID are
// tenant-scoped; callers never see users from another tenant.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*domain.User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateRoleStatus sets role and status of the user within the tenant. Missing rows are a no-op.
	UpdateRoleStatus(ctx context.Context, tenantID, id string, role domain.Role, status domain.UserStatus) error
	// UpdatePasswordHash replaces the stored password hash. Missing rows are a no-op.
	UpdatePasswordHash(ctx context.Context, tenantID, id, passwordHash string) error
	Delete(ctx context.Context, tenantID, id string) error
}
