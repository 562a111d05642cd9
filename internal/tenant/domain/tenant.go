package domain

import (
	"errors"
	"time"
)

// Tenant is the isolation boundary under which users, emails, and tokens are scoped.
type Tenant struct {
	ID        string
	Name      string
	Status    TenantStatus
	CreatedAt time.Time
}

type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Active reports whether the tenant accepts logins and credential checks.
func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

// Validate validates the tenant for persistence. Returns an error describing the first validation failure.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.Status == "" {
		t.Status = TenantStatusActive
	}
	return nil
}
