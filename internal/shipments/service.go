package shipments

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
	Get(ctx context.Context, id int64) (Shipment, error)
	List(ctx context.Context, filters ListFilters) ([]Shipment, int, error)
}

// TxRepository groups the mutations that must share one transaction with
// the workflow history append.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Shipment, error)
	ContractExists(ctx context.Context, contractID int64) (bool, error)
	AgencyExists(ctx context.Context, agencyID int64) (bool, error)
	Create(ctx context.Context, shipment Shipment) (int64, error)
	Update(ctx context.Context, shipment Shipment) error
	AppendHistory(ctx context.Context, entry workflow.Entry) error
}

// Service handles shipment business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	ShipmentNumber   string
	ContractID       int64
	AgencyID         int64
	VesselName       string
	VoyageNumber     string
	CargoType        string
	CargoDescription string
	Quantity         decimal.Decimal
	QuantityUnit     string
	LoadingPort      string
	DischargePort    string
	LoadingDate      *time.Time
	DischargeDate    *time.Time
	ETA              *time.Time
	Remarks          string
	CreatedBy        int64
	AssignedTo       int64
}

// UpdateInput enumerates the optional fields of a partial update. Status
// and actor fields are excluded from the mask by construction.
type UpdateInput struct {
	VesselName       *string
	VoyageNumber     *string
	CargoType        *string
	CargoDescription *string
	Quantity         *decimal.Decimal
	QuantityUnit     *string
	LoadingPort      *string
	DischargePort    *string
	LoadingDate      *time.Time
	DischargeDate    *time.Time
	ETA              *time.Time
	ATA              *time.Time
	Remarks          *string
	AssignedTo       *int64
}

// Create registers a new shipment in planned status. Both the contract and
// agency references must exist.
func (s *Service) Create(ctx context.Context, input CreateInput) (Shipment, error) {
	input.ShipmentNumber = strings.ToUpper(strings.TrimSpace(input.ShipmentNumber))
	if input.ShipmentNumber == "" {
		return Shipment{}, fmt.Errorf("%w: shipment number is required", shared.ErrValidation)
	}
	if input.ContractID <= 0 || input.AgencyID <= 0 {
		return Shipment{}, fmt.Errorf("%w: contract id and agency id are required", shared.ErrValidation)
	}
	if input.Quantity.IsNegative() {
		return Shipment{}, fmt.Errorf("%w: quantity must not be negative", shared.ErrValidation)
	}

	var created Shipment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.ContractExists(ctx, input.ContractID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: contract %d", shared.ErrNotFound, input.ContractID)
		}
		ok, err = tx.AgencyExists(ctx, input.AgencyID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: agency %d", shared.ErrNotFound, input.AgencyID)
		}

		shipment := Shipment{
			ShipmentNumber:   input.ShipmentNumber,
			ContractID:       input.ContractID,
			AgencyID:         input.AgencyID,
			VesselName:       input.VesselName,
			VoyageNumber:     input.VoyageNumber,
			CargoType:        input.CargoType,
			CargoDescription: input.CargoDescription,
			Quantity:         input.Quantity,
			QuantityUnit:     input.QuantityUnit,
			LoadingPort:      input.LoadingPort,
			DischargePort:    input.DischargePort,
			LoadingDate:      input.LoadingDate,
			DischargeDate:    input.DischargeDate,
			ETA:              input.ETA,
			Status:           StatusPlanned,
			Remarks:          input.Remarks,
			CreatedBy:        input.CreatedBy,
			AssignedTo:       input.AssignedTo,
		}
		id, err := tx.Create(ctx, shipment)
		if err != nil {
			return err
		}
		shipment.ID = id
		created = shipment

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityShipment,
			EntityID:   id,
			Action:     workflow.ActionCreate,
			ToStatus:   string(StatusPlanned),
			UserID:     input.CreatedBy,
		})
	})
	if err != nil {
		return Shipment{}, err
	}
	return created, nil
}

// Get fetches a shipment by id.
func (s *Service) Get(ctx context.Context, id int64) (Shipment, error) {
	if id <= 0 {
		return Shipment{}, fmt.Errorf("%w: invalid shipment id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of shipments.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Shipment, int, error) {
	return s.repo.List(ctx, filters)
}

// Update applies a partial update to shipment detail fields.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Shipment, error) {
	var updated Shipment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		shipment, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if shipment.Status.Terminal() {
			return fmt.Errorf("%w: shipment is %s", shared.ErrInvalidState, shipment.Status)
		}
		if input.VesselName != nil {
			shipment.VesselName = *input.VesselName
		}
		if input.VoyageNumber != nil {
			shipment.VoyageNumber = *input.VoyageNumber
		}
		if input.CargoType != nil {
			shipment.CargoType = *input.CargoType
		}
		if input.CargoDescription != nil {
			shipment.CargoDescription = *input.CargoDescription
		}
		if input.Quantity != nil {
			if input.Quantity.IsNegative() {
				return fmt.Errorf("%w: quantity must not be negative", shared.ErrValidation)
			}
			shipment.Quantity = *input.Quantity
		}
		if input.QuantityUnit != nil {
			shipment.QuantityUnit = *input.QuantityUnit
		}
		if input.LoadingPort != nil {
			shipment.LoadingPort = *input.LoadingPort
		}
		if input.DischargePort != nil {
			shipment.DischargePort = *input.DischargePort
		}
		if input.LoadingDate != nil {
			shipment.LoadingDate = input.LoadingDate
		}
		if input.DischargeDate != nil {
			shipment.DischargeDate = input.DischargeDate
		}
		if input.ETA != nil {
			shipment.ETA = input.ETA
		}
		if input.ATA != nil {
			shipment.ATA = input.ATA
		}
		if input.Remarks != nil {
			shipment.Remarks = *input.Remarks
		}
		if input.AssignedTo != nil {
			shipment.AssignedTo = *input.AssignedTo
		}
		if err := tx.Update(ctx, shipment); err != nil {
			return err
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return Shipment{}, err
	}
	return updated, nil
}

// Transition moves a shipment one step through its lifecycle. Arrival sets
// ATA when none was recorded.
func (s *Service) Transition(ctx context.Context, id int64, to Status, actorID int64, remarks string) (Shipment, error) {
	var updated Shipment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		shipment, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		from := shipment.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: shipment cannot move from %s to %s",
				shared.ErrInvalidState, from, to)
		}
		now := time.Now()
		shipment.Status = to
		if to == StatusArrived && shipment.ATA == nil {
			shipment.ATA = &now
		}
		if err := tx.Update(ctx, shipment); err != nil {
			return err
		}
		updated = shipment

		action := workflow.ActionUpdate
		if to == StatusCompleted {
			action = workflow.ActionComplete
		}
		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityShipment,
			EntityID:   shipment.ID,
			Action:     action,
			FromStatus: string(from),
			ToStatus:   string(to),
			UserID:     actorID,
			Remarks:    remarks,
		})
	})
	if err != nil {
		return Shipment{}, err
	}
	return updated, nil
}

// Cancel aborts a shipment from any non-terminal state. A reason is
// required.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (Shipment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Shipment{}, fmt.Errorf("%w: cancellation requires a reason", shared.ErrValidation)
	}
	var updated Shipment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		shipment, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if shipment.Status.Terminal() {
			return fmt.Errorf("%w: shipment is %s", shared.ErrInvalidState, shipment.Status)
		}
		from := shipment.Status
		now := time.Now()
		shipment.Status = StatusCancelled
		shipment.CancelledBy = actorID
		shipment.CancelledAt = &now
		shipment.CancelReason = reason
		if err := tx.Update(ctx, shipment); err != nil {
			return err
		}
		updated = shipment

		return tx.AppendHistory(ctx, workflow.Entry{
			EntityType: workflow.EntityShipment,
			EntityID:   shipment.ID,
			Action:     workflow.ActionCancel,
			FromStatus: string(from),
			ToStatus:   string(StatusCancelled),
			UserID:     actorID,
			Remarks:    reason,
		})
	})
	if err != nil {
		return Shipment{}, err
	}
	return updated, nil
}
