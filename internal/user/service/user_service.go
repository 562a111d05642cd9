package service

import (
	"context"
	"errors"
	"fmt"

	authservice "tenant-auth-core/internal/auth/service"
	"tenant-auth-core/internal/security"
	"tenant-auth-core/internal/user/domain"
)

// Sentinel errors for user administration.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnknownRole  = errors.New("unknown role")
)

// Repo is the user repository surface needed by the admin service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error)
	UpdateRoleStatus(ctx context.Context, tenantID, id string, role domain.Role, status domain.UserStatus) error
	UpdatePasswordHash(ctx context.Context, tenantID, id, hash string) error
	Delete(ctx context.Context, tenantID, id string) error
}

// TokenRepo revokes sessions when an account is disabled or wiped.
type TokenRepo interface {
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// UserService implements tenant-scoped user administration. Every operation
// takes the caller's tenant id and refuses to touch rows outside it.
type UserService struct {
	users  Repo
	tokens TokenRepo
	hasher *security.Hasher
}

// NewUserService returns a UserService over the given repositories.
func NewUserService(users Repo, tokens TokenRepo, hasher *security.Hasher) *UserService {
	return &UserService{users: users, tokens: tokens, hasher: hasher}
}

// List returns all users under tenantID.
func (s *UserService) List(ctx context.Context, tenantID string) ([]*domain.User, error) {
	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, persistence("list users", err)
	}
	return users, nil
}

// Get returns the user with id under tenantID. A user belonging to another
// tenant is reported as not found.
func (s *UserService) Get(ctx context.Context, tenantID, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get user", err)
	}
	if user == nil || user.TenantID != tenantID {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update changes the user's role and/or active flag. Nil fields keep the
// current value. Disabling an account also revokes every refresh token it
// holds, ending all of its sessions.
func (s *UserService) Update(ctx context.Context, tenantID, id string, role *domain.Role, active *bool) (*domain.User, error) {
	user, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	newRole := user.Role
	if role != nil {
		if !domain.ValidRole(*role) {
			return nil, ErrUnknownRole
		}
		newRole = *role
	}
	newStatus := user.Status
	if active != nil {
		if *active {
			newStatus = domain.UserStatusActive
		} else {
			newStatus = domain.UserStatusDisabled
		}
	}

	if err := s.users.UpdateRoleStatus(ctx, tenantID, id, newRole, newStatus); err != nil {
		return nil, persistence("update user", err)
	}
	if newStatus == domain.UserStatusDisabled && user.Status == domain.UserStatusActive {
		if _, err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			return nil, persistence("update user: revoke tokens", err)
		}
	}

	user.Role = newRole
	user.Status = newStatus
	return user, nil
}

// ResetPassword replaces the user's password digest and revokes every refresh
// token, forcing a fresh login on all devices.
func (s *UserService) ResetPassword(ctx context.Context, tenantID, id, newPassword string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, tenantID, id, hash); err != nil {
		return persistence("reset password", err)
	}
	if _, err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		return persistence("reset password: revoke tokens", err)
	}
	return nil
}

// Delete removes the user; refresh tokens cascade in the store.
func (s *UserService) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, tenantID, id); err != nil {
		return persistence("delete user", err)
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, authservice.ErrPersistence, err)
}
