package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

// linkableEntities are the entity types a document may attach to.
var linkableEntities = map[string]bool{
	workflow.EntityContract:    true,
	workflow.EntityShipment:    true,
	workflow.EntityTransaction: true,
	workflow.EntityUser:        true,
	"agency":                   true,
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Document, error)
	List(ctx context.Context, filters ListFilters) ([]Document, int, error)
	Create(ctx context.Context, doc Document) (int64, error)
	Update(ctx context.Context, doc Document) error
	SoftDelete(ctx context.Context, id int64) error
}

// Service handles document metadata business logic. File bytes live on
// storage outside this service; only metadata is managed here.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	Name        string
	FilePath    string
	FileSize    int64
	MimeType    string
	EntityType  string
	EntityID    int64
	Category    string
	Description string
	UploadedBy  int64
}

// UpdateInput enumerates the optional fields of a partial update. The file
// reference and entity link are immutable after upload.
type UpdateInput struct {
	Name        *string
	Category    *string
	Description *string
}

// Create records uploaded file metadata.
func (s *Service) Create(ctx context.Context, input CreateInput) (Document, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.FilePath == "" {
		return Document{}, fmt.Errorf("%w: name and file path are required", shared.ErrValidation)
	}
	if input.FileSize < 0 {
		return Document{}, fmt.Errorf("%w: file size must not be negative", shared.ErrValidation)
	}
	if input.EntityType != "" {
		if !linkableEntities[input.EntityType] {
			return Document{}, fmt.Errorf("%w: unknown entity type %q", shared.ErrValidation, input.EntityType)
		}
		if input.EntityID <= 0 {
			return Document{}, fmt.Errorf("%w: entity id is required with entity type", shared.ErrValidation)
		}
	}

	doc := Document{
		Name:        input.Name,
		FilePath:    input.FilePath,
		FileSize:    input.FileSize,
		MimeType:    input.MimeType,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		Category:    input.Category,
		Description: input.Description,
		UploadedBy:  input.UploadedBy,
		IsActive:    true,
	}
	id, err := s.repo.Create(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	doc.ID = id
	return doc, nil
}

// Get fetches a document by id.
func (s *Service) Get(ctx context.Context, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, fmt.Errorf("%w: invalid document id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of documents.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Document, int, error) {
	return s.repo.List(ctx, filters)
}

// ListForEntity returns the documents attached to one business entity.
func (s *Service) ListForEntity(ctx context.Context, entityType string, entityID int64, page, perPage int) ([]Document, int, error) {
	if !linkableEntities[entityType] || entityID <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid entity reference", shared.ErrValidation)
	}
	return s.repo.List(ctx, ListFilters{
		EntityType: entityType,
		EntityID:   entityID,
		Page:       page,
		PerPage:    perPage,
	})
}

// Update applies a partial metadata update.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if input.Name != nil {
		doc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		doc.Category = *input.Category
	}
	if input.Description != nil {
		doc.Description = *input.Description
	}
	if doc.Name == "" {
		return Document{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete soft-deletes a document.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid document id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id)
}
