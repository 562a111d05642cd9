package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "tenant-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "tenant-auth")
	}
	if cfg.JWTAudience != "tenant-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "tenant-api")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.Argon2MemoryKiB != 64*1024 {
		t.Errorf("Argon2MemoryKiB = %d, want %d", cfg.Argon2MemoryKiB, 64*1024)
	}
	if cfg.Argon2Iterations != 3 {
		t.Errorf("Argon2Iterations = %d, want 3", cfg.Argon2Iterations)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("JWT_ACCESS_TTL", "5m")
	os.Setenv("ARGON2_ITERATIONS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.JWTAccessTTL != "5m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "5m")
	}
	if cfg.Argon2Iterations != 4 {
		t.Errorf("Argon2Iterations = %d, want 4", cfg.Argon2Iterations)
	}
}

func TestLoad_RejectsBadTTLs(t *testing.T) {
	cases := []struct {
		name    string
		access  string
		refresh string
	}{
		{"non-duration access", "soon", "168h"},
		{"zero access", "0s", "168h"},
		{"negative refresh", "15m", "-1h"},
		{"access not shorter than refresh", "20h", "10h"},
		{"access equals refresh", "1h", "1h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_ACCESS_TTL", tc.access)
			os.Setenv("JWT_REFRESH_TTL", tc.refresh)
			if _, err := Load(); err == nil {
				t.Error("Load accepted invalid TTLs")
			}
		})
	}
}

func TestTTLAccessors(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "10m", JWTRefreshTTL: "72h"}
	if got := cfg.AccessTTL(); got != 10*time.Minute {
		t.Errorf("AccessTTL = %v, want 10m", got)
	}
	if got := cfg.RefreshTTL(); got != 72*time.Hour {
		t.Errorf("RefreshTTL = %v, want 72h", got)
	}

	broken := &Config{JWTAccessTTL: "nope", JWTRefreshTTL: ""}
	if got := broken.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := broken.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
}
