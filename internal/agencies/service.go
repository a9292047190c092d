package agencies

import (
	"context"
	"fmt"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Agency, error)
	GetByCode(ctx context.Context, code string) (Agency, error)
	List(ctx context.Context, filters ListFilters) ([]Agency, int, error)
	Create(ctx context.Context, agency Agency) (int64, error)
	Update(ctx context.Context, agency Agency) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service handles agency business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	Name          string
	Code          string
	Address       string
	City          string
	Country       string
	Phone         string
	Email         string
	ContactPerson string
	TaxID         string
	PaymentTerms  int
	CreatedBy     int64
}

// UpdateInput enumerates the optional fields of a partial update.
type UpdateInput struct {
	Name          *string
	Address       *string
	City          *string
	Country       *string
	Phone         *string
	Email         *string
	ContactPerson *string
	TaxID         *string
	PaymentTerms  *int
	IsActive      *bool
}

// Create registers a new agency. Codes are uppercased and must be unique.
func (s *Service) Create(ctx context.Context, input CreateInput) (Agency, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Name == "" || input.Code == "" {
		return Agency{}, fmt.Errorf("%w: name and code are required", shared.ErrValidation)
	}

	agency := Agency{
		Name:          input.Name,
		Code:          input.Code,
		Address:       input.Address,
		City:          input.City,
		Country:       input.Country,
		Phone:         input.Phone,
		Email:         input.Email,
		ContactPerson: input.ContactPerson,
		TaxID:         input.TaxID,
		PaymentTerms:  input.PaymentTerms,
		IsActive:      true,
		CreatedBy:     input.CreatedBy,
	}
	id, err := s.repo.Create(ctx, agency)
	if err != nil {
		return Agency{}, err
	}
	agency.ID = id
	return agency, nil
}

// Get fetches an agency by id.
func (s *Service) Get(ctx context.Context, id int64) (Agency, error) {
	if id <= 0 {
		return Agency{}, fmt.Errorf("%w: invalid agency id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// GetByCode fetches an agency by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (Agency, error) {
	return s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// List returns a page of agencies.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Agency, int, error) {
	return s.repo.List(ctx, filters)
}

// Update applies a partial update to an agency.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Agency, error) {
	agency, err := s.repo.Get(ctx, id)
	if err != nil {
		return Agency{}, err
	}
	if input.Name != nil {
		agency.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		agency.Address = *input.Address
	}
	if input.City != nil {
		agency.City = *input.City
	}
	if input.Country != nil {
		agency.Country = *input.Country
	}
	if input.Phone != nil {
		agency.Phone = *input.Phone
	}
	if input.Email != nil {
		agency.Email = *input.Email
	}
	if input.ContactPerson != nil {
		agency.ContactPerson = *input.ContactPerson
	}
	if input.TaxID != nil {
		agency.TaxID = *input.TaxID
	}
	if input.PaymentTerms != nil {
		agency.PaymentTerms = *input.PaymentTerms
	}
	if input.IsActive != nil {
		agency.IsActive = *input.IsActive
	}
	if agency.Name == "" {
		return Agency{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, agency); err != nil {
		return Agency{}, err
	}
	return agency, nil
}

// Deactivate soft-deletes an agency.
func (s *Service) Deactivate(ctx context.Context, id int64) (Agency, error) {
	inactive := false
	return s.Update(ctx, id, UpdateInput{IsActive: &inactive})
}

// Exists reports whether an active agency with the id is present. Used by
// other services to validate references before persisting them.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}
