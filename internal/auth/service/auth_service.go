package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenant-auth-core/internal/security"
	tenantdomain "tenant-auth-core/internal/tenant/domain"
	tokendomain "tenant-auth-core/internal/token/domain"
	userdomain "tenant-auth-core/internal/user/domain"
	userrepo "tenant-auth-core/internal/user/repository"
)

// Sentinel errors for the session lifecycle; the handler maps them to HTTP codes.
// Authentication-outcome errors are deliberately undifferentiated: a wrong
// password and an unknown email both surface ErrInvalidCredentials, and a
// revoked, expired, or unknown refresh secret all surface ErrInvalidRefreshToken.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrPersistence            = errors.New("persistence failure")
)

// AuthResult holds the outcome of Login or Rotate: the minted access assertion,
// the clear refresh secret (returned exactly once, never retrievable again),
// and the access expiry.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	TenantID     string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, tenantID, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// TenantRepo is the minimal tenant repository needed by the auth service.
type TenantRepo interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
}

// TokenRepo is the minimal refresh-token repository needed by the auth service.
type TokenRepo interface {
	GetByDigest(ctx context.Context, digest string) (*tokendomain.RefreshToken, error)
	Create(ctx context.Context, t *tokendomain.RefreshToken) error
	Rotate(ctx context.Context, oldID string, replacement *tokendomain.RefreshToken) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// AuthService implements register, login, refresh rotation, and logout. It
// holds no mutable state of its own; ordering and durability are delegated to
// the store's transactional guarantees.
type AuthService struct {
	userRepo   UserRepo
	tenantRepo TenantRepo
	tokenRepo  TokenRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(userRepo UserRepo, tenantRepo TenantRepo, tokenRepo TokenRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		tokenRepo:  tokenRepo,
		hasher:     hasher,
		tokens:     tokens,
	}
}

// Register creates a user in the tenant with the default role. Returns
// ErrEmailAlreadyRegistered when (tenant, email) is taken and ErrTenantNotFound
// when the tenant does not exist or is suspended.
func (s *AuthService) Register(ctx context.Context, tenantID, email, password string) (*userdomain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, persistence("register: get tenant", err)
	}
	if tenant == nil || !tenant.Active() {
		return nil, ErrTenantNotFound
	}

	existing, err := s.userRepo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, persistence("register: get user", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &userdomain.User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Role:         userdomain.RoleUser,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index decides races the pre-check cannot see.
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, persistence("register: create user", err)
	}
	return user, nil
}

// Login authenticates (tenant, email, password), mints an access assertion and
// a refresh token, and persists the refresh token's digest. The clear refresh
// secret in the result is never retrievable again.
func (s *AuthService) Login(ctx context.Context, tenantID, email, password string) (*AuthResult, *userdomain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, persistence("login: get tenant", err)
	}
	if tenant == nil || !tenant.Active() {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return nil, nil, persistence("login: get user", err)
	}
	if user == nil || !user.Active() {
		return nil, nil, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("login: verify password: %w", err)
	}
	if !match {
		return nil, nil, ErrInvalidCredentials
	}

	result, err := s.issue(ctx, user.ID, user.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return result, user, nil
}

// Rotate consumes refreshSecret exactly once: the stored record is revoked and
// a replacement record plus a new access assertion are minted atomically. A
// second presentation of the same secret fails ErrInvalidRefreshToken, even
// when it races the first.
func (s *AuthService) Rotate(ctx context.Context, refreshSecret string) (*AuthResult, error) {
	userID, tenantID, jti, err := s.tokens.VerifyRefresh(refreshSecret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.tokenRepo.GetByDigest(ctx, security.DigestRefreshSecret(refreshSecret))
	if err != nil {
		return nil, persistence("rotate: get token", err)
	}
	if stored == nil || !stored.Usable(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if stored.JTI != jti || stored.UserID != userID || stored.TenantID != tenantID {
		return nil, ErrInvalidRefreshToken
	}

	newRefresh, newJTI, refreshExp, err := s.tokens.MintRefresh(userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("rotate: mint refresh: %w", err)
	}
	replacement := &tokendomain.RefreshToken{
		ID:           uuid.New().String(),
		UserID:       userID,
		TenantID:     tenantID,
		SecretDigest: security.DigestRefreshSecret(newRefresh),
		JTI:          newJTI,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    refreshExp,
	}

	ok, err := s.tokenRepo.Rotate(ctx, stored.ID, replacement)
	if err != nil {
		return nil, persistence("rotate: rotate token", err)
	}
	if !ok {
		// Lost the race: someone else consumed this secret first.
		return nil, ErrInvalidRefreshToken
	}

	access, accessExp, err := s.tokens.MintAccess(userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("rotate: mint access: %w", err)
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
		TenantID:     tenantID,
	}, nil
}

// Logout revokes every outstanding refresh token of the user who owns
// refreshSecret: a full-session kill, not single-device. Unknown, expired, or
// already-revoked secrets return nil silently so token validity never leaks
// through error codes.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	if _, _, _, err := s.tokens.VerifyRefresh(refreshSecret); err != nil {
		return nil
	}
	stored, err := s.tokenRepo.GetByDigest(ctx, security.DigestRefreshSecret(refreshSecret))
	if err != nil {
		return persistence("logout: get token", err)
	}
	if stored == nil {
		return nil
	}
	if _, err := s.tokenRepo.RevokeAllForUser(ctx, stored.UserID); err != nil {
		return persistence("logout: revoke tokens", err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, userID, tenantID string) (*AuthResult, error) {
	access, accessExp, err := s.tokens.MintAccess(userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("issue: mint access: %w", err)
	}
	refresh, jti, refreshExp, err := s.tokens.MintRefresh(userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("issue: mint refresh: %w", err)
	}

	record := &tokendomain.RefreshToken{
		ID:           uuid.New().String(),
		UserID:       userID,
		TenantID:     tenantID,
		SecretDigest: security.DigestRefreshSecret(refresh),
		JTI:          jti,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    refreshExp,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, persistence("issue: save token", err)
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
		TenantID:     tenantID,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
