package repository

import (
	"context"
	"errors"

	"tenant-auth-core/internal/tenant/domain"
)

// ErrDuplicateName is returned by Create when a tenant with the same name exists.
var ErrDuplicateName = errors.New("tenant name already exists")

// Repository defines persistence for tenants.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetByName(ctx context.Context, name string) (*domain.Tenant, error)
	// List returns tenants, optionally filtered by a case-insensitive name substring.
	List(ctx context.Context, nameFilter string) ([]*domain.Tenant, error)
	Create(ctx context.Context, t *domain.Tenant) error
	// SetStatus updates the tenant's status; deactivation is soft, rows are kept.
	SetStatus(ctx context.Context, id string, status domain.TenantStatus) error
	// Delete hard-deletes the tenant; users and refresh tokens cascade in the store.
	Delete(ctx context.Context, id string) error
}
