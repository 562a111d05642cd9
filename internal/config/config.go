// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AccessPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file, used to sign access assertions.
	AccessPrivateKey string `mapstructure:"JWT_ACCESS_PRIVATE_KEY"`
	// AccessPublicKey is the PEM-encoded public key or path to file, used to verify access assertions.
	AccessPublicKey string `mapstructure:"JWT_ACCESS_PUBLIC_KEY"`
	// RefreshPrivateKey signs refresh tokens. Must be a different key pair than the access pair.
	RefreshPrivateKey string `mapstructure:"JWT_REFRESH_PRIVATE_KEY"`
	// RefreshPublicKey verifies refresh tokens.
	RefreshPublicKey string `mapstructure:"JWT_REFRESH_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "tenant-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "tenant-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access assertion lifetime (e.g. "15m"). Must be shorter than JWT_REFRESH_TTL.
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// Argon2MemoryKiB is the Argon2id memory cost in KiB; default 65536 (64 MiB).
	Argon2MemoryKiB uint32 `mapstructure:"ARGON2_MEMORY_KIB"`
	// Argon2Iterations is the Argon2id time cost; default 3.
	Argon2Iterations uint32 `mapstructure:"ARGON2_ITERATIONS"`
	// LogLevel is the zap log level (debug, info, warn, error); default info.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "tenant-auth")
	v.SetDefault("JWT_AUDIENCE", "tenant-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("ARGON2_MEMORY_KIB", 64*1024)
	v.SetDefault("ARGON2_ITERATIONS", 3)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	access, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil || access <= 0 {
		return nil, errors.New("config: JWT_ACCESS_TTL must be a positive duration")
	}
	refresh, err := time.ParseDuration(cfg.JWTRefreshTTL)
	if err != nil || refresh <= 0 {
		return nil, errors.New("config: JWT_REFRESH_TTL must be a positive duration")
	}
	if access >= refresh {
		return nil, errors.New("config: JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL")
	}

	if cfg.Argon2MemoryKiB == 0 {
		cfg.Argon2MemoryKiB = 64 * 1024
	}
	if cfg.Argon2Iterations == 0 {
		cfg.Argon2Iterations = 3
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}
