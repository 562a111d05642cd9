package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenant-auth-core/internal/auth/guard"
	"tenant-auth-core/internal/logger"
	userdomain "tenant-auth-core/internal/user/domain"
	"tenant-auth-core/internal/user/service"
)

// Handler exposes tenant-scoped user administration. The caller's own tenant
// id bounds every lookup, so admins of one tenant cannot see another's users.
type Handler struct {
	users *service.UserService
}

func New(users *service.UserService) *Handler {
	return &Handler{users: users}
}

// Register mounts the user admin routes. Reads go on read (admins and
// managers), mutations on write (admins only).
func (h *Handler) Register(read, write *echo.Group) {
	read.GET("", h.List)
	read.GET("/:id", h.Get)
	write.PATCH("/:id", h.Update)
	write.POST("/:id/reset-password", h.ResetPassword)
	write.DELETE("/:id", h.Delete)
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

func callerTenant(c echo.Context) (string, bool) {
	user, ok := c.Get(guard.ContextUserKey).(*userdomain.User)
	if !ok {
		return "", false
	}
	return user.TenantID, true
}

func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := callerTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	users, err := h.users.List(c.Request().Context(), tenantID)
	if err != nil {
		log.Error("list users failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := callerTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	user, err := h.users.Get(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("get user failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := callerTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Role   *string `json:"role"`
		Active *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var role *userdomain.Role
	if req.Role != nil {
		r := userdomain.Role(*req.Role)
		role = &r
	}

	user, err := h.users.Update(c.Request().Context(), tenantID, c.Param("id"), role, req.Active)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, service.ErrUnknownRole):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		default:
			log.Error("update user failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) ResetPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := callerTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}

	if err := h.users.ResetPassword(c.Request().Context(), tenantID, c.Param("id"), req.Password); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("reset password failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	tenantID, ok := callerTenant(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if err := h.users.Delete(c.Request().Context(), tenantID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("delete user failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
