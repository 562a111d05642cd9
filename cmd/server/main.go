package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tenant-auth-core/internal/auth/guard"
	authhandler "tenant-auth-core/internal/auth/handler"
	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/config"
	"tenant-auth-core/internal/db"
	"tenant-auth-core/internal/logger"
	"tenant-auth-core/internal/metrics"
	"tenant-auth-core/internal/policy/engine"
	"tenant-auth-core/internal/security"
	"tenant-auth-core/internal/server"
	tenanthandler "tenant-auth-core/internal/tenant/handler"
	tenantrepo "tenant-auth-core/internal/tenant/repository"
	tenantservice "tenant-auth-core/internal/tenant/service"
	tokenrepo "tenant-auth-core/internal/token/repository"
	userhandler "tenant-auth-core/internal/user/handler"
	userrepo "tenant-auth-core/internal/user/repository"
	userservice "tenant-auth-core/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "tenant-auth-core",
	}); err != nil {
		log.Fatalf("logger: %v", err)
	}
	zlog := logger.Get()
	defer zlog.Sync()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	accessKeys, err := security.LoadKeyPair(cfg.AccessPrivateKey, cfg.AccessPublicKey)
	if err != nil {
		zlog.Fatal("access keys", zap.Error(err))
	}
	refreshKeys, err := security.LoadKeyPair(cfg.RefreshPrivateKey, cfg.RefreshPublicKey)
	if err != nil {
		zlog.Fatal("refresh keys", zap.Error(err))
	}

	tokens := security.NewTokenProvider(accessKeys, refreshKeys, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.Argon2MemoryKiB, cfg.Argon2Iterations)

	evaluator, err := engine.NewOPAEvaluator()
	if err != nil {
		zlog.Fatal("policy", zap.Error(err))
	}

	tenants := tenantrepo.NewPostgresRepository(conn)
	users := userrepo.NewPostgresRepository(conn)
	refreshTokens := tokenrepo.NewPostgresRepository(conn)

	auth := authservice.NewAuthService(users, tenants, refreshTokens, hasher, tokens)
	tenantSvc := tenantservice.NewTenantService(tenants)
	userSvc := userservice.NewUserService(users, refreshTokens, hasher)
	g := guard.New(users, tenants, tokens, evaluator)

	metrics.MustRegister()

	srv := server.New(
		cfg.HTTPAddr,
		g,
		authhandler.New(auth),
		tenanthandler.New(tenantSvc),
		userhandler.New(userSvc),
	)

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil {
			zlog.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
	zlog.Info("http server stopped")
}
