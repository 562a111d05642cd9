package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenant-auth-core/internal/auth/guard"
	"tenant-auth-core/internal/logger"
	userdomain "tenant-auth-core/internal/user/domain"
)

// RequestID tags each request with an id, echoes it back in the response
// header, and stores a request-scoped logger in the echo context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set("X-Request-ID", requestID)
			c.Set("logger", logger.Get().With(zap.String("request_id", requestID)))
			return next(c)
		}
	}
}

// Authenticate resolves the bearer access token into a user via the guard
// and stores it in the context. Missing header, bad signature, expired token
// and deactivated or deleted subjects all produce the same 401.
func Authenticate(g *guard.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			user, err := g.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, guard.ErrInvalidToken) || errors.Is(err, guard.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
				}
				logger.FromEcho(c).Error("authenticate failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			c.Set(guard.ContextUserKey, user)
			return next(c)
		}
	}
}

// RequireRoles rejects callers whose role is not in the given set. Membership
// is flat: an admin asking for a manager-only route is refused unless admin
// is also listed.
func RequireRoles(g *guard.Guard, roles ...userdomain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(guard.ContextUserKey).(*userdomain.User)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			if err := g.Require(c.Request().Context(), user, roles...); err != nil {
				if errors.Is(err, guard.ErrForbidden) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
				}
				logger.FromEcho(c).Error("authorize failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			return next(c)
		}
	}
}
