package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenant-auth-core/internal/logger"
	tenantdomain "tenant-auth-core/internal/tenant/domain"
	"tenant-auth-core/internal/tenant/service"
)

// Handler exposes tenant administration over HTTP. All routes require an
// admin caller; the role check lives in the route middleware, not here.
type Handler struct {
	tenants *service.TenantService
}

func New(tenants *service.TenantService) *Handler {
	return &Handler{tenants: tenants}
}

// Register mounts the tenant admin routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/deactivate", h.Deactivate)
	g.DELETE("/:id", h.Delete)
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

func toTenantResponse(t *tenantdomain.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Unix(),
	}
}

func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	tenant, err := h.tenants.Create(c.Request().Context(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateName) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant name already exists"})
		}
		log.Error("create tenant failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, toTenantResponse(tenant))
}

func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	tenants, err := h.tenants.List(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		log.Error("list tenants failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	out := make([]tenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	tenant, err := h.tenants.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("get tenant failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) Deactivate(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := h.tenants.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("deactivate tenant failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := h.tenants.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("delete tenant failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
