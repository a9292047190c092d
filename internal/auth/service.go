package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Repository defines the credential store access the service needs.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	issuer *TokenIssuer
	hasher *Hasher
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer *TokenIssuer, hasher *Hasher) *Service {
	return &Service{repo: repo, issuer: issuer, hasher: hasher}
}

// Login validates username/password credentials and issues an access token.
// Unknown usernames and wrong passwords are indistinguishable to the caller;
// a deactivated account is rejected after the password check so the error
// does not leak whether credentials were correct for unknown users.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", shared.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("auth: find user: %w", err)
	}
	if user == nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, "", shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: user account is deactivated", shared.ErrForbidden)
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, "", err
	}
	token, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResolveToken verifies a bearer token and re-resolves the user by the
// embedded subject. Role and identity claims inside the token are never
// trusted directly, so a role change takes effect immediately.
func (s *Service) ResolveToken(ctx context.Context, token string) (*User, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil || user == nil {
		return nil, shared.ErrUnauthorized
	}
	return user, nil
}

// Hasher exposes the password hasher for account management flows.
func (s *Service) Hasher() *Hasher {
	return s.hasher
}

// CheckPermission decides allow/deny for a resolved user. The admin role
// short-circuits every check. Inactive users are rejected regardless of
// role. Permission failures list the missing permissions.
func CheckPermission(user *User, requiredRole string, requiredPerms []string) error {
	if user == nil {
		return shared.ErrUnauthorized
	}
	if !user.IsActive {
		return fmt.Errorf("%w: user account is deactivated", shared.ErrForbidden)
	}
	if user.IsAdmin() {
		return nil
	}
	if requiredRole != "" && user.RoleName != requiredRole {
		return fmt.Errorf("%w: role %q required", shared.ErrForbidden, requiredRole)
	}
	if len(requiredPerms) > 0 {
		var missing []string
		for _, p := range requiredPerms {
			if !user.Permissions[p] {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			return &shared.MissingPermissionsError{Missing: missing}
		}
	}
	return nil
}
