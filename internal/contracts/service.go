package contracts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Contract, error)
	List(ctx context.Context, filters ListFilters) ([]Contract, int, error)
}

// TxRepository groups the mutations that must share one transaction with
// the workflow history append.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Contract, error)
	AgencyExists(ctx context.Context, agencyID int64) (bool, error)
	Create(ctx context.Context, contract Contract) (int64, error)
	Update(ctx context.Context, contract Contract) error
	AppendHistory(ctx context.Context, entry workflow.Entry) error
}

// Service handles contract business logic. Every business-significant
// mutation appends exactly one workflow history row in the same transaction
// as the contract update.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	ContractNumber string
	AgencyID       int64
	Title          string
	Description    string
	Type           string
	StartDate      *time.Time
	EndDate        *time.Time
	TotalValue     decimal.Decimal
	Currency       string
	PaymentTerms   int
	CreatedBy      int64
}

// UpdateInput enumerates the optional fields of a partial update. Status,
// track and actor fields are excluded from the mask by construction.
type UpdateInput struct {
	Title        *string
	Description  *string
	Type         *string
	StartDate    *time.Time
	EndDate      *time.Time
	TotalValue   *decimal.Decimal
	Currency     *string
	PaymentTerms *int
}

// Create registers a new contract in draft with all three tracks pending.
func (s *Service) Create(ctx context.Context, input CreateInput) (Contract, error) {
	input.ContractNumber = strings.ToUpper(strings.TrimSpace(input.ContractNumber))
	if input.ContractNumber == "" || input.Title == "" {
		return Contract{}, fmt.Errorf("%w: contract number and title are required", shared.ErrValidation)
	}
	if input.AgencyID <= 0 {
		return Contract{}, fmt.Errorf("%w: agency id is required", shared.ErrValidation)
	}
	if input.TotalValue.IsNegative() {
		return Contract{}, fmt.Errorf("%w: total value must not be negative", shared.ErrValidation)
	}
	if input.Currency == "" {
		input.Currency = "IDR"
	}

	var created Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.AgencyExists(ctx, input.AgencyID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: agency %d", shared.ErrNotFound, input.AgencyID)
		}

		contract := Contract{
			ContractNumber: input.ContractNumber,
			AgencyID:       input.AgencyID,
			Title:          strings.TrimSpace(input.Title),
			Description:    input.Description,
			Type:           input.Type,
			StartDate:      input.StartDate,
			EndDate:        input.EndDate,
			TotalValue:     input.TotalValue,
			Currency:       input.Currency,
			PaymentTerms:   input.PaymentTerms,
			Status:         StatusDraft,
			Marketing:      Track{Status: TrackPending},
			Operation:      Track{Status: TrackPending},
			Finance:        Track{Status: TrackPending},
			CreatedBy:      input.CreatedBy,
		}
		id, err := tx.Create(ctx, contract)
		if err != nil {
			return err
		}
		contract.ID = id
		created = contract

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityContract,
			EntityID:   id,
			Action:     workflow.ActionCreate,
			ToStatus:   string(StatusDraft),
			UserID:     input.CreatedBy,
		})
	})
	if err != nil {
		return Contract{}, err
	}
	return created, nil
}

// Get fetches a contract by id.
func (s *Service) Get(ctx context.Context, id int64) (Contract, error) {
	if id <= 0 {
		return Contract{}, fmt.Errorf("%w: invalid contract id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of contracts.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Contract, int, error) {
	return s.repo.List(ctx, filters)
}

// Update applies a partial update to contract detail fields. Status and
// track fields only move through the explicit transition operations.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Contract, error) {
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if contract.Status.Terminal() {
			return fmt.Errorf("%w: contract is %s", shared.ErrInvalidState, contract.Status)
		}
		if input.Title != nil {
			contract.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			contract.Description = *input.Description
		}
		if input.Type != nil {
			contract.Type = *input.Type
		}
		if input.StartDate != nil {
			contract.StartDate = input.StartDate
		}
		if input.EndDate != nil {
			contract.EndDate = input.EndDate
		}
		if input.TotalValue != nil {
			if input.TotalValue.IsNegative() {
				return fmt.Errorf("%w: total value must not be negative", shared.ErrValidation)
			}
			contract.TotalValue = *input.TotalValue
		}
		if input.Currency != nil {
			contract.Currency = *input.Currency
		}
		if input.PaymentTerms != nil {
			contract.PaymentTerms = *input.PaymentTerms
		}
		if contract.Title == "" {
			return fmt.Errorf("%w: title is required", shared.ErrValidation)
		}
		if err := tx.Update(ctx, contract); err != nil {
			return err
		}
		updated = contract
		return nil
	})
	if err != nil {
		return Contract{}, err
	}
	return updated, nil
}

// SubmitTrack moves a departmental track from pending (or rejected) to
// submitted.
func (s *Service) SubmitTrack(ctx context.Context, id int64, dept Department, actorID int64, remarks string) (Contract, error) {
	return s.transitionTrack(ctx, id, dept, TrackSubmitted, workflow.ActionSubmit, actorID, remarks)
}

// ApproveTrack moves a submitted departmental track to approved. When the
// third track approves, the overall status becomes approved.
func (s *Service) ApproveTrack(ctx context.Context, id int64, dept Department, actorID int64, remarks string) (Contract, error) {
	return s.transitionTrack(ctx, id, dept, TrackApproved, workflow.ActionApprove, actorID, remarks)
}

// RejectTrack moves a submitted departmental track to rejected.
func (s *Service) RejectTrack(ctx context.Context, id int64, dept Department, actorID int64, remarks string) (Contract, error) {
	if strings.TrimSpace(remarks) == "" {
		return Contract{}, fmt.Errorf("%w: rejection requires remarks", shared.ErrValidation)
	}
	return s.transitionTrack(ctx, id, dept, TrackRejected, workflow.ActionReject, actorID, remarks)
}

func (s *Service) transitionTrack(ctx context.Context, id int64, dept Department, to TrackStatus, action string, actorID int64, remarks string) (Contract, error) {
	if !ValidDepartment(dept) {
		return Contract{}, fmt.Errorf("%w: unknown department %q", shared.ErrValidation, dept)
	}
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if contract.Status.Terminal() || contract.Status == StatusActive {
			return fmt.Errorf("%w: contract is %s", shared.ErrInvalidState, contract.Status)
		}
		track := contract.TrackFor(dept)
		from := track.Status
		if !CanTransitionTrack(from, to) {
			return fmt.Errorf("%w: %s track cannot move from %s to %s",
				shared.ErrInvalidState, dept, from, to)
		}
		now := time.Now()
		track.Status = to
		track.Remarks = remarks
		track.UpdatedAt = &now
		contract.Status = contract.DeriveStatus()
		if contract.Status == StatusApproved && contract.ApprovedAt == nil {
			contract.ApprovedBy = actorID
			contract.ApprovedAt = &now
		}
		if err := tx.Update(ctx, contract); err != nil {
			return err
		}
		updated = contract

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityContract,
			EntityID:   contract.ID,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(to),
			UserID:     actorID,
			Department: string(dept),
			Remarks:    remarks,
		})
	})
	if err != nil {
		return Contract{}, err
	}
	return updated, nil
}

// Activate moves an approved contract into its active period.
func (s *Service) Activate(ctx context.Context, id, actorID int64) (Contract, error) {
	return s.transitionOverall(ctx, id, actorID, StatusActive, workflow.ActionUpdate, "", StatusApproved)
}

// Complete closes out an approved or active contract.
func (s *Service) Complete(ctx context.Context, id, actorID int64) (Contract, error) {
	return s.transitionOverall(ctx, id, actorID, StatusCompleted, workflow.ActionComplete, "", StatusApproved, StatusActive)
}

// Expire marks an approved or active contract past its end date.
func (s *Service) Expire(ctx context.Context, id, actorID int64) (Contract, error) {
	return s.transitionOverall(ctx, id, actorID, StatusExpired, workflow.ActionExpire, "", StatusApproved, StatusActive)
}

// Cancel aborts a contract from any non-terminal state. A reason is
// required; all tracks move to cancelled with it.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (Contract, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Contract{}, fmt.Errorf("%w: cancellation requires a reason", shared.ErrValidation)
	}
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if contract.Status.Terminal() {
			return fmt.Errorf("%w: contract is %s", shared.ErrInvalidState, contract.Status)
		}
		from := contract.Status
		now := time.Now()
		contract.Status = StatusCancelled
		contract.CancelledBy = actorID
		contract.CancelledAt = &now
		contract.CancelReason = reason
		for _, d := range Departments {
			track := contract.TrackFor(d)
			if track.Status != TrackApproved && track.Status != TrackRejected {
				track.Status = TrackCancelled
				track.UpdatedAt = &now
			}
		}
		if err := tx.Update(ctx, contract); err != nil {
			return err
		}
		updated = contract

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityContract,
			EntityID:   contract.ID,
			Action:     workflow.ActionCancel,
			FromStatus: string(from),
			ToStatus:   string(StatusCancelled),
			UserID:     actorID,
			Remarks:    reason,
		})
	})
	if err != nil {
		return Contract{}, err
	}
	return updated, nil
}

func (s *Service) transitionOverall(ctx context.Context, id, actorID int64, to Status, action, remarks string, validFrom ...Status) (Contract, error) {
	var updated Contract
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		contract, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		from := contract.Status
		allowed := false
		for _, v := range validFrom {
			if from == v {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: contract cannot move from %s to %s",
				shared.ErrInvalidState, from, to)
		}
		contract.Status = to
		if err := tx.Update(ctx, contract); err != nil {
			return err
		}
		updated = contract

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityContract,
			EntityID:   contract.ID,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(to),
			UserID:     actorID,
			Remarks:    remarks,
		})
	})
	if err != nil {
		return Contract{}, err
	}
	return updated, nil
}
