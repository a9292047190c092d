package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Create(ctx context.Context, n Notification) (int64, error)
	Get(ctx context.Context, userID, id int64) (Notification, error)
	List(ctx context.Context, userID int64, filters ListFilters) ([]Notification, int, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int, error)
}

// Service handles user notifications. Unread counts are served from the
// cache when warm; every write invalidates the owner's entry.
type Service struct {
	repo  RepositoryPort
	cache *UnreadCache
}

// NewService builds a Service instance. The cache may be nil.
func NewService(repo RepositoryPort, cache *UnreadCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	UserID     int64
	Title      string
	Message    string
	Type       string
	Priority   string
	EntityType string
	EntityID   int64
	ActionURL  string
}

// Create emits a notification to one user.
func (s *Service) Create(ctx context.Context, input CreateInput) (Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.UserID <= 0 {
		return Notification{}, fmt.Errorf("%w: user id is required", shared.ErrValidation)
	}
	if input.Title == "" {
		return Notification{}, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = PriorityNormal
	}

	n := Notification{
		UserID:     input.UserID,
		Title:      input.Title,
		Message:    input.Message,
		Type:       input.Type,
		Priority:   input.Priority,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ActionURL:  input.ActionURL,
	}
	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return Notification{}, err
	}
	n.ID = id
	s.cache.Invalidate(ctx, n.UserID)
	return n, nil
}

// Get fetches one notification owned by the user.
func (s *Service) Get(ctx context.Context, userID, id int64) (Notification, error) {
	if id <= 0 {
		return Notification{}, fmt.Errorf("%w: invalid notification id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, userID, id)
}

// List returns a page of the user's notifications.
func (s *Service) List(ctx context.Context, userID int64, filters ListFilters) ([]Notification, int, error) {
	return s.repo.List(ctx, userID, filters)
}

// UnreadCount returns the user's unread notification count, cached.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if count, ok := s.cache.Get(ctx, userID); ok {
		return count, nil
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, userID, count)
	return count, nil
}

// MarkRead flags one notification read.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

// MarkAllRead flags every unread notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.cache.Invalidate(ctx, userID)
	}
	return affected, nil
}
