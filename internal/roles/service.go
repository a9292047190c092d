package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, id int64) (int, error)
}

// Service orchestrates role operations.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all roles ordered by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	if id <= 0 {
		return Role{}, fmt.Errorf("%w: invalid role id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new role.
func (s *Service) Create(ctx context.Context, name, description string, permissions map[string]bool) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	if permissions == nil {
		permissions = map[string]bool{}
	}
	return s.repo.Create(ctx, Role{Name: name, Description: strings.TrimSpace(description), Permissions: permissions})
}

// Update rewrites an existing role.
func (s *Service) Update(ctx context.Context, id int64, name, description string, permissions map[string]bool) (Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role.Name = name
	role.Description = strings.TrimSpace(description)
	if permissions != nil {
		role.Permissions = permissions
	}
	if err := s.repo.Update(ctx, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// Delete removes a role. Roles still referenced by users are never deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid role id", shared.ErrValidation)
	}
	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role is referenced by %d user(s)", shared.ErrConflict, count)
	}
	return s.repo.Delete(ctx, id)
}
