package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenant-auth-core/internal/auth/guard"
	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/logger"
	"tenant-auth-core/internal/metrics"
	userdomain "tenant-auth-core/internal/user/domain"
)

// Handler exposes the auth lifecycle over HTTP.
type Handler struct {
	auth *authservice.AuthService
}

// New returns an auth Handler backed by the given service.
func New(auth *authservice.AuthService) *Handler {
	return &Handler{auth: auth}
}

// Register mounts the public auth routes on g and the session routes on
// protected (which must already carry the access-token middleware).
func (h *Handler) Register(g *echo.Group, protected *echo.Group) {
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
}

type userResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Role:     string(u.Role),
		Active:   u.Active(),
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

// RegisterUser creates a user under an existing tenant.
func (h *Handler) RegisterUser(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantID == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id, email and password are required"})
	}

	user, err := h.auth.Register(c.Request().Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		metrics.ObserveAuth("register", outcome(err))
		switch {
		case errors.Is(err, authservice.ErrTenantNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown tenant"})
		case errors.Is(err, authservice.ErrEmailAlreadyRegistered):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		default:
			log.Error("register failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	metrics.ObserveAuth("register", "ok")
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login verifies credentials and opens a session.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, _, err := h.auth.Login(c.Request().Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		metrics.ObserveAuth("login", outcome(err))
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	metrics.ObserveAuth("login", "ok")
	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    result.ExpiresAt.Unix(),
	})
}

// Refresh trades a refresh token for a new pair. The presented token is spent
// whether or not another request races this one; only one caller wins.
func (h *Handler) Refresh(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := h.auth.Rotate(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.ObserveAuth("refresh", outcome(err))
		if errors.Is(err, authservice.ErrInvalidRefreshToken) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		log.Error("refresh failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	metrics.ObserveAuth("refresh", "ok")
	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    result.ExpiresAt.Unix(),
	})
}

// Logout revokes every refresh token of the session owner. Unknown or
// already-dead tokens still get a 204.
func (h *Handler) Logout(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		metrics.ObserveAuth("logout", "error")
		log.Error("logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	metrics.ObserveAuth("logout", "ok")
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(c echo.Context) error {
	user, ok := c.Get(guard.ContextUserKey).(*userdomain.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func outcome(err error) string {
	switch {
	case errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, authservice.ErrInvalidRefreshToken):
		return "denied"
	case errors.Is(err, authservice.ErrEmailAlreadyRegistered),
		errors.Is(err, authservice.ErrTenantNotFound):
		return "rejected"
	default:
		return "error"
	}
}
