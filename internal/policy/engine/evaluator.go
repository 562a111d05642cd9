package engine

import (
	"context"

	userdomain "tenant-auth-core/internal/user/domain"
)

// Evaluator decides role authorization for an authenticated user.
type Evaluator interface {
	// Authorize reports whether the user's role is in requiredRoles. The check
	// is flat membership; no role hierarchy is modeled.
	Authorize(ctx context.Context, user *userdomain.User, requiredRoles []userdomain.Role) (bool, error)
}
