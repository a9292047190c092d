package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/samudra-erp/samudra-erp/internal/auth"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Statistics(ctx context.Context) (Statistics, error)
}

// TxRepository groups the mutations that must share one transaction with
// the last-admin invariant check.
type TxRepository interface {
	Get(ctx context.Context, id int64) (User, error)
	RoleName(ctx context.Context, roleID int64) (string, error)
	CountOtherActiveAdmins(ctx context.Context, excludeUserID int64) (int, error)
	Create(ctx context.Context, user User) (int64, error)
	Update(ctx context.Context, user User) error
}

// Service handles user management business logic.
type Service struct {
	repo   RepositoryPort
	hasher *auth.Hasher
	stats  singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, hasher *auth.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// CreateUserInput describes the creation payload.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	RoleID    int64
}

// UpdateUserInput enumerates the optional fields of a partial update. Only
// present (non-nil) fields are applied; system fields are excluded from the
// mask by construction.
type UpdateUserInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Phone     *string
	RoleID    *int64
	Active    *bool
}

// Create inserts a new user account. Duplicate usernames or emails fail
// with a conflict and leave the store unchanged.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return User{}, fmt.Errorf("%w: username, email and password are required", shared.ErrValidation)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, err
	}
	var created User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		roleName, err := tx.RoleName(ctx, input.RoleID)
		if err != nil {
			return fmt.Errorf("%w: invalid role id", shared.ErrValidation)
		}
		user := User{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Phone:        input.Phone,
			RoleID:       input.RoleID,
			RoleName:     roleName,
			Status:       StatusActive,
		}
		id, err := tx.Create(ctx, user)
		if err != nil {
			return err
		}
		user.ID = id
		created = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// GetByUsername fetches a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// GetByEmail fetches a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns a page of users. Inactive accounts are excluded unless
// requested.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// Search matches the query case-insensitively against username, email and
// name fields, including inactive accounts.
func (s *Service) Search(ctx context.Context, query string, page, perPage int) ([]User, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("%w: search query required", shared.ErrValidation)
	}
	return s.repo.List(ctx, ListFilters{IncludeInactive: true, Search: query, Page: page, PerPage: perPage})
}

// Update applies a partial update. The last-admin invariant is verified in
// the same transaction before anything is written.
func (s *Service) Update(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	var updated User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		demotes := input.RoleID != nil && *input.RoleID != user.RoleID
		deactivates := input.Active != nil && !*input.Active
		if demotes || deactivates {
			if err := s.checkLastAdmin(ctx, tx, user); err != nil {
				return err
			}
		}
		if input.Email != nil {
			user.Email = strings.TrimSpace(*input.Email)
		}
		if input.Password != nil && *input.Password != "" {
			hash, err := s.hasher.Hash(*input.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		if input.FirstName != nil {
			user.FirstName = *input.FirstName
		}
		if input.LastName != nil {
			user.LastName = *input.LastName
		}
		if input.Phone != nil {
			user.Phone = *input.Phone
		}
		if input.RoleID != nil {
			roleName, err := tx.RoleName(ctx, *input.RoleID)
			if err != nil {
				return fmt.Errorf("%w: invalid role id", shared.ErrValidation)
			}
			user.RoleID = *input.RoleID
			user.RoleName = roleName
		}
		if input.Active != nil {
			if *input.Active {
				user.Status = StatusActive
			} else {
				user.Status = StatusDeactivated
			}
		}
		if err := tx.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// Deactivate performs the soft delete.
func (s *Service) Deactivate(ctx context.Context, id int64) (User, error) {
	return s.setStatus(ctx, id, StatusDeactivated, true)
}

// Activate re-enables a previously deactivated or suspended account.
func (s *Service) Activate(ctx context.Context, id int64) (User, error) {
	return s.setStatus(ctx, id, StatusActive, false)
}

// Delete removes a user account. Deletion is implemented as deactivation;
// rows are never dropped.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.Deactivate(ctx, id)
	return err
}

// ChangeRole moves the user to another role.
func (s *Service) ChangeRole(ctx context.Context, id, roleID int64) (User, error) {
	role := roleID
	return s.Update(ctx, id, UpdateUserInput{RoleID: &role})
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(user.PasswordHash, current) {
			return fmt.Errorf("%w: current password is incorrect", shared.ErrValidation)
		}
		hash, err := s.hasher.Hash(next)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		return tx.Update(ctx, user)
	})
}

// Statistics returns account totals and the role distribution. Concurrent
// calls share one query.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	v, err, _ := s.stats.Do("user-statistics", func() (any, error) {
		return s.repo.Statistics(ctx)
	})
	if err != nil {
		return Statistics{}, err
	}
	return v.(Statistics), nil
}

func (s *Service) setStatus(ctx context.Context, id int64, status Status, guardAdmin bool) (User, error) {
	var updated User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if guardAdmin {
			if err := s.checkLastAdmin(ctx, tx, user); err != nil {
				return err
			}
		}
		user.Status = status
		if err := tx.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// checkLastAdmin fails when the target is the only remaining active admin.
func (s *Service) checkLastAdmin(ctx context.Context, tx TxRepository, target User) error {
	if !target.IsAdmin() || !target.IsActive() {
		return nil
	}
	others, err := tx.CountOtherActiveAdmins(ctx, target.ID)
	if err != nil {
		return err
	}
	if others == 0 {
		return shared.ErrLastAdmin
	}
	return nil
}
