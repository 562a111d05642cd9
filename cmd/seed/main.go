// seed inserts a development tenant and admin account for local testing.
// Idempotent: skips inserts when the dev tenant already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"tenant-auth-core/internal/config"
	"tenant-auth-core/internal/db"
	"tenant-auth-core/internal/security"
	tenantdomain "tenant-auth-core/internal/tenant/domain"
	tenantrepo "tenant-auth-core/internal/tenant/repository"
	userdomain "tenant-auth-core/internal/user/domain"
	userrepo "tenant-auth-core/internal/user/repository"
)

const (
	devTenantName = "dev-tenant"
	devAdminEmail = "admin@example.com"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	tenants := tenantrepo.NewPostgresRepository(conn)
	users := userrepo.NewPostgresRepository(conn)

	existing, err := tenants.GetByName(ctx, devTenantName)
	if err != nil {
		log.Fatalf("seed: get tenant: %v", err)
	}
	if existing != nil {
		log.Printf("seed: tenant %q already present, nothing to do", devTenantName)
		return
	}

	tenant := &tenantdomain.Tenant{
		ID:        uuid.New().String(),
		Name:      devTenantName,
		Status:    tenantdomain.TenantStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := tenants.Create(ctx, tenant); err != nil {
		log.Fatalf("seed: create tenant: %v", err)
	}

	hasher := security.NewHasher(cfg.Argon2MemoryKiB, cfg.Argon2Iterations)
	hash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	admin := &userdomain.User{
		ID:           uuid.New().String(),
		TenantID:     tenant.ID,
		Email:        devAdminEmail,
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("seed: create admin: %v", err)
	}

	log.Printf("seed: created tenant %s with admin %s", tenant.ID, devAdminEmail)
}
