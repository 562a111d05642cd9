package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tenant-auth-core/internal/tenant/domain"
)

type memRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Tenant
}

func newMemRepo() *memRepo {
	return &memRepo{m: map[string]*domain.Tenant{}}
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memRepo) GetByName(ctx context.Context, name string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.m {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(ctx context.Context, nameFilter string) ([]*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Tenant
	for _, t := range r.m {
		if nameFilter == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(nameFilter)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memRepo) Create(ctx context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t2 := *t
	r.m[t.ID] = &t2
	return nil
}

func (r *memRepo) SetStatus(ctx context.Context, id string, status domain.TenantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[id]; ok {
		t.Status = status
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func TestCreateAndGet(t *testing.T) {
	svc := NewTenantService(newMemRepo())
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tenant.ID == "" || tenant.Status != domain.TenantStatusActive {
		t.Errorf("tenant = %+v, want active with id", tenant)
	}

	got, err := svc.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("name = %q, want acme", got.Name)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := NewTenantService(newMemRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "acme"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "acme"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestListWithFilter(t *testing.T) {
	svc := NewTenantService(newMemRepo())
	ctx := context.Background()

	for _, name := range []string{"acme", "acme-eu", "globex"} {
		if _, err := svc.Create(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	filtered, err := svc.List(ctx, "ACME")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("len(filtered) = %d, want 2", len(filtered))
	}
}

func TestDeactivate(t *testing.T) {
	svc := NewTenantService(newMemRepo())
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Deactivate(ctx, tenant.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := svc.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active() {
		t.Error("tenant still active after deactivate")
	}

	if err := svc.Deactivate(ctx, "missing"); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("missing tenant: err = %v, want ErrTenantNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	svc := NewTenantService(newMemRepo())
	ctx := context.Background()

	tenant, err := svc.Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, tenant.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, tenant.ID); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("after delete: err = %v, want ErrTenantNotFound", err)
	}
}
