package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/tenant/domain"
	tenantrepo "tenant-auth-core/internal/tenant/repository"
)

// Sentinel errors for tenant administration; the handler maps them to HTTP codes.
var (
	ErrDuplicateName  = errors.New("tenant name already exists")
	ErrTenantNotFound = errors.New("tenant not found")
)

// Repo is the tenant repository needed by the tenant service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetByName(ctx context.Context, name string) (*domain.Tenant, error)
	List(ctx context.Context, nameFilter string) ([]*domain.Tenant, error)
	Create(ctx context.Context, t *domain.Tenant) error
	SetStatus(ctx context.Context, id string, status domain.TenantStatus) error
	Delete(ctx context.Context, id string) error
}

// TenantService implements tenant administration: create, list, get, and
// soft-deactivate. Hard deletion cascades to users and their refresh tokens in
// the store.
type TenantService struct {
	repo Repo
}

// NewTenantService returns a TenantService with the given repository.
func NewTenantService(repo Repo) *TenantService {
	return &TenantService{repo: repo}
}

// Create registers a new active tenant. Returns ErrDuplicateName when the name is taken.
func (s *TenantService) Create(ctx context.Context, name string) (*domain.Tenant, error) {
	tenant := &domain.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    domain.TenantStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, persistence("create tenant: get by name", err)
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		if errors.Is(err, tenantrepo.ErrDuplicateName) {
			return nil, ErrDuplicateName
		}
		return nil, persistence("create tenant", err)
	}
	return tenant, nil
}

// List returns tenants, optionally filtered by a case-insensitive name substring.
func (s *TenantService) List(ctx context.Context, nameFilter string) ([]*domain.Tenant, error) {
	tenants, err := s.repo.List(ctx, nameFilter)
	if err != nil {
		return nil, persistence("list tenants", err)
	}
	return tenants, nil
}

// Get returns the tenant for id. Returns ErrTenantNotFound for missing rows.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get tenant", err)
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// Deactivate suspends the tenant; its rows are kept, but login and credential
// checks under it fail from now on.
func (s *TenantService) Deactivate(ctx context.Context, id string) error {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return persistence("deactivate tenant: get", err)
	}
	if tenant == nil {
		return ErrTenantNotFound
	}
	if err := s.repo.SetStatus(ctx, id, domain.TenantStatusSuspended); err != nil {
		return persistence("deactivate tenant", err)
	}
	return nil
}

// Delete hard-deletes the tenant; users and refresh tokens cascade in the store.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return persistence("delete tenant: get", err)
	}
	if tenant == nil {
		return ErrTenantNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistence("delete tenant", err)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, authservice.ErrPersistence, err)
}
