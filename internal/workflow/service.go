package workflow

import (
	"context"
	"fmt"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort defines data access methods for workflow history queries.
type RepositoryPort interface {
	Timeline(ctx context.Context, filters TimelineFilters) ([]Entry, int, error)
}

// Service exposes read access to the workflow history.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline returns history rows matching the filters, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) ([]Entry, shared.Pagination, error) {
	if s.repo == nil {
		return nil, shared.Pagination{}, fmt.Errorf("workflow: repository not configured")
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	rows, total, err := s.repo.Timeline(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(filters.Page, filters.PageSize, total), nil
}

// EntityTimeline returns the history of a single entity.
func (s *Service) EntityTimeline(ctx context.Context, entityType string, entityID int64, page, pageSize int) ([]Entry, shared.Pagination, error) {
	if entityType == "" || entityID <= 0 {
		return nil, shared.Pagination{}, fmt.Errorf("%w: entity type and id required", shared.ErrValidation)
	}
	return s.Timeline(ctx, TimelineFilters{
		EntityType: entityType,
		EntityID:   entityID,
		Page:       page,
		PageSize:   pageSize,
	})
}
