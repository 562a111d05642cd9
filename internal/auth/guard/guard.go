package guard

import (
	"context"
	"errors"
	"fmt"

	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/policy/engine"
	"tenant-auth-core/internal/security"
	tenantdomain "tenant-auth-core/internal/tenant/domain"
	userdomain "tenant-auth-core/internal/user/domain"
)

// ContextUserKey is the echo context key under which the access-token
// middleware stores the authenticated user.
const ContextUserKey = "auth_user"

// Sentinel errors for authorization; the handler maps them to HTTP codes.
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("forbidden")
)

// UserRepo is the minimal user repository needed by the guard.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// TenantRepo is the minimal tenant repository needed by the guard.
type TenantRepo interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
}

// Guard resolves access assertions into authenticated identities and checks
// role membership. Assertions are stateless, so Authenticate re-fetches the
// subject: an account deleted or deactivated after issuance is rejected even
// though its signature is still valid.
type Guard struct {
	userRepo   UserRepo
	tenantRepo TenantRepo
	tokens     *security.TokenProvider
	policy     engine.Evaluator
}

// New returns a Guard with the given dependencies.
func New(userRepo UserRepo, tenantRepo TenantRepo, tokens *security.TokenProvider, policy engine.Evaluator) *Guard {
	return &Guard{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		tokens:     tokens,
		policy:     policy,
	}
}

// Authenticate verifies the access assertion and resolves its subject to a live
// active user. Returns ErrInvalidToken when the assertion does not verify and
// ErrUserNotFound when the subject no longer resolves to an active user in an
// active tenant.
func (g *Guard) Authenticate(ctx context.Context, assertion string) (*userdomain.User, error) {
	userID, tenantID, _, err := g.tokens.VerifyAccess(assertion)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, persistence("authenticate: get user", err)
	}
	if user == nil || !user.Active() || user.TenantID != tenantID {
		return nil, ErrUserNotFound
	}

	tenant, err := g.tenantRepo.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, persistence("authenticate: get tenant", err)
	}
	if tenant == nil || !tenant.Active() {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Authorize reports whether the user's role is in requiredRoles.
func (g *Guard) Authorize(ctx context.Context, user *userdomain.User, requiredRoles ...userdomain.Role) (bool, error) {
	return g.policy.Authorize(ctx, user, requiredRoles)
}

// Require is Authorize with a false result mapped to ErrForbidden.
func (g *Guard) Require(ctx context.Context, user *userdomain.User, requiredRoles ...userdomain.Role) error {
	ok, err := g.Authorize(ctx, user, requiredRoles...)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, authservice.ErrPersistence, err)
}
