package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"tenant-auth-core/internal/auth/guard"
	authhandler "tenant-auth-core/internal/auth/handler"
	"tenant-auth-core/internal/logger"
	"tenant-auth-core/internal/metrics"
	tenanthandler "tenant-auth-core/internal/tenant/handler"
	userdomain "tenant-auth-core/internal/user/domain"
	userhandler "tenant-auth-core/internal/user/handler"
)

// Server owns the echo instance and the route table.
type Server struct {
	echo *echo.Echo
	addr string
}

// New wires middleware and routes. Tenant administration is admin-only; user
// administration accepts managers too, except role changes and deletion.
func New(
	addr string,
	g *guard.Guard,
	auth *authhandler.Handler,
	tenants *tenanthandler.Handler,
	users *userhandler.Handler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(RequestID())
	e.Use(logger.RequestLogging())
	e.Use(metrics.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	authGroup := e.Group("/auth")
	session := e.Group("/auth", Authenticate(g))
	auth.Register(authGroup, session)

	api := e.Group("/api", Authenticate(g))

	tenantGroup := api.Group("/tenants", RequireRoles(g, userdomain.RoleAdmin))
	tenants.Register(tenantGroup)

	userRead := api.Group("/users", RequireRoles(g, userdomain.RoleAdmin, userdomain.RoleManager))
	userWrite := api.Group("/users", RequireRoles(g, userdomain.RoleAdmin))
	users.Register(userRead, userWrite)

	return &Server{echo: e, addr: addr}
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	err := s.echo.Start(s.addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
