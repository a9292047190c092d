package finance

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
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, filters ListFilters) ([]Transaction, int, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]Transaction, error)
}

// TxRepository groups the mutations that must share one transaction with
// the workflow history append.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Transaction, error)
	ReferenceExists(ctx context.Context, table string, id int64) (bool, error)
	Create(ctx context.Context, tr Transaction) (int64, error)
	Update(ctx context.Context, tr Transaction) error
	AppendHistory(ctx context.Context, entry workflow.Entry) error
}

// Service handles financial transaction business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes the creation payload. Total and local amounts are
// always recomputed server-side.
type CreateInput struct {
	TransactionNumber string
	Type              Type
	ContractID        int64
	ShipmentID        int64
	AgencyID          int64
	Amount            decimal.Decimal
	Tax               decimal.Decimal
	Discount          decimal.Decimal
	Currency          string
	ExchangeRate      decimal.Decimal
	DueDate           *time.Time
	PaymentMethod     string
	Description       string
	Notes             string
	CreatedBy         int64
}

// UpdateInput enumerates the optional fields of a partial update.
type UpdateInput struct {
	Amount        *decimal.Decimal
	Tax           *decimal.Decimal
	Discount      *decimal.Decimal
	Currency      *string
	ExchangeRate  *decimal.Decimal
	DueDate       *time.Time
	PaymentMethod *string
	Description   *string
	Notes         *string
}

// Create registers a new transaction in pending status. Optional contract,
// shipment and agency references are validated when present.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transaction, error) {
	input.TransactionNumber = strings.ToUpper(strings.TrimSpace(input.TransactionNumber))
	if input.TransactionNumber == "" {
		return Transaction{}, fmt.Errorf("%w: transaction number is required", shared.ErrValidation)
	}
	if !ValidType(input.Type) {
		return Transaction{}, fmt.Errorf("%w: unknown transaction type %q", shared.ErrValidation, input.Type)
	}
	if input.Amount.IsNegative() || input.Tax.IsNegative() || input.Discount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: money fields must not be negative", shared.ErrValidation)
	}
	if input.ExchangeRate.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: exchange rate must not be negative", shared.ErrValidation)
	}
	if input.Currency == "" {
		input.Currency = "IDR"
	}

	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		refs := []struct {
			table string
			id    int64
		}{
			{"contracts", input.ContractID},
			{"shipments", input.ShipmentID},
			{"agencies", input.AgencyID},
		}
		for _, ref := range refs {
			if ref.id <= 0 {
				continue
			}
			ok, err := tx.ReferenceExists(ctx, ref.table, ref.id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s %d", shared.ErrNotFound, strings.TrimSuffix(ref.table, "s"), ref.id)
			}
		}

		tr := Transaction{
			TransactionNumber: input.TransactionNumber,
			Type:              input.Type,
			ContractID:        input.ContractID,
			ShipmentID:        input.ShipmentID,
			AgencyID:          input.AgencyID,
			Amount:            input.Amount,
			Tax:               input.Tax,
			Discount:          input.Discount,
			Currency:          input.Currency,
			ExchangeRate:      input.ExchangeRate,
			DueDate:           input.DueDate,
			PaymentMethod:     input.PaymentMethod,
			Status:            StatusPending,
			Description:       input.Description,
			Notes:             input.Notes,
			CreatedBy:         input.CreatedBy,
		}
		tr.ComputeDerived()

		id, err := tx.Create(ctx, tr)
		if err != nil {
			return err
		}
		tr.ID = id
		created = tr

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityTransaction,
			EntityID:   id,
			Action:     workflow.ActionCreate,
			ToStatus:   string(StatusPending),
			UserID:     input.CreatedBy,
		})
	})
	if err != nil {
		return Transaction{}, err
	}
	return created, nil
}

// Get fetches a transaction by id.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, fmt.Errorf("%w: invalid transaction id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of transactions.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	return s.repo.List(ctx, filters)
}

// ListOverdue returns unpaid transactions whose due date has passed.
func (s *Service) ListOverdue(ctx context.Context) ([]Transaction, error) {
	return s.repo.ListOverdue(ctx, time.Now())
}

// Update applies a partial update and recomputes the derived amounts.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Transaction, error) {
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if tr.Status.Terminal() {
			return fmt.Errorf("%w: transaction is %s", shared.ErrInvalidState, tr.Status)
		}
		if input.Amount != nil {
			tr.Amount = *input.Amount
		}
		if input.Tax != nil {
			tr.Tax = *input.Tax
		}
		if input.Discount != nil {
			tr.Discount = *input.Discount
		}
		if input.Currency != nil {
			tr.Currency = *input.Currency
		}
		if input.ExchangeRate != nil {
			tr.ExchangeRate = *input.ExchangeRate
		}
		if input.DueDate != nil {
			tr.DueDate = input.DueDate
		}
		if input.PaymentMethod != nil {
			tr.PaymentMethod = *input.PaymentMethod
		}
		if input.Description != nil {
			tr.Description = *input.Description
		}
		if input.Notes != nil {
			tr.Notes = *input.Notes
		}
		if tr.Amount.IsNegative() || tr.Tax.IsNegative() || tr.Discount.IsNegative() || tr.ExchangeRate.IsNegative() {
			return fmt.Errorf("%w: money fields must not be negative", shared.ErrValidation)
		}
		tr.ComputeDerived()
		if err := tx.Update(ctx, tr); err != nil {
			return err
		}
		updated = tr
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// Approve moves a pending or overdue transaction to approved.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (Transaction, error) {
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if tr.Status != StatusPending && tr.Status != StatusOverdue {
			return fmt.Errorf("%w: transaction is %s", shared.ErrInvalidState, tr.Status)
		}
		from := tr.Status
		now := time.Now()
		tr.Status = StatusApproved
		tr.ApprovedBy = actorID
		tr.ApprovedAt = &now
		if err := tx.Update(ctx, tr); err != nil {
			return err
		}
		updated = tr

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityTransaction,
			EntityID:   tr.ID,
			Action:     workflow.ActionApprove,
			FromStatus: string(from),
			ToStatus:   string(StatusApproved),
			UserID:     actorID,
		})
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// MarkPaid settles an approved or overdue transaction.
func (s *Service) MarkPaid(ctx context.Context, id, actorID int64, method string, paidAt *time.Time) (Transaction, error) {
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if tr.Status != StatusApproved && tr.Status != StatusOverdue {
			return fmt.Errorf("%w: transaction is %s", shared.ErrInvalidState, tr.Status)
		}
		from := tr.Status
		now := time.Now()
		if paidAt == nil {
			paidAt = &now
		}
		tr.Status = StatusPaid
		tr.PaymentDate = paidAt
		if method != "" {
			tr.PaymentMethod = method
		}
		if err := tx.Update(ctx, tr); err != nil {
			return err
		}
		updated = tr

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityTransaction,
			EntityID:   tr.ID,
			Action:     workflow.ActionUpdate,
			FromStatus: string(from),
			ToStatus:   string(StatusPaid),
			UserID:     actorID,
		})
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// Cancel voids a transaction from any non-terminal state. A reason is
// required.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transaction{}, fmt.Errorf("%w: cancellation requires a reason", shared.ErrValidation)
	}
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if tr.Status.Terminal() {
			return fmt.Errorf("%w: transaction is %s", shared.ErrInvalidState, tr.Status)
		}
		from := tr.Status
		now := time.Now()
		tr.Status = StatusCancelled
		tr.CancelledBy = actorID
		tr.CancelledAt = &now
		tr.CancelReason = reason
		if err := tx.Update(ctx, tr); err != nil {
			return err
		}
		updated = tr

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityTransaction,
			EntityID:   tr.ID,
			Action:     workflow.ActionCancel,
			FromStatus: string(from),
			ToStatus:   string(StatusCancelled),
			UserID:     actorID,
			Remarks:    reason,
		})
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// MarkOverdue flips a pending or approved transaction past its due date to
// overdue and bumps the reminder counters. Used by the reminder job.
func (s *Service) MarkOverdue(ctx context.Context, id int64) (Transaction, error) {
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		tr, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if tr.Status != StatusPending && tr.Status != StatusApproved && tr.Status != StatusOverdue {
			return fmt.Errorf("%w: transaction is %s", shared.ErrInvalidState, tr.Status)
		}
		if tr.DueDate == nil || tr.DueDate.After(time.Now()) {
			return fmt.Errorf("%w: transaction is not past due", shared.ErrInvalidState)
		}
		from := tr.Status
		now := time.Now()
		tr.Status = StatusOverdue
		tr.ReminderSent = true
		tr.ReminderCount++
		tr.LastReminderAt = &now
		if err := tx.Update(ctx, tr); err != nil {
			return err
		}
		updated = tr

		if from == StatusOverdue {
			return nil
		}
		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityTransaction,
			EntityID:   tr.ID,
			Action:     workflow.ActionUpdate,
			FromStatus: string(from),
			ToStatus:   string(StatusOverdue),
			UserID:     tr.CreatedBy,
			Remarks:    "payment overdue",
		})
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}
