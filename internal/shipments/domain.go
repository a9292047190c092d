package shipments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the shipment lifecycle state.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusLoading   Status = "loading"
	StatusInTransit Status = "in_transit"
	StatusArrived   Status = "arrived"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var transitions = map[Status]map[Status]bool{
	StatusPlanned:   {StatusLoading: true},
	StatusLoading:   {StatusInTransit: true},
	StatusInTransit: {StatusArrived: true},
	StatusArrived:   {StatusCompleted: true},
}

// CanTransition reports whether a shipment may move between two states.
// Cancellation is handled separately and is allowed from any non-terminal
// state.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Shipment is a cargo movement executed under a contract.
type Shipment struct {
	ID               int64
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
	ATA              *time.Time
	Status           Status
	Remarks          string
	CreatedBy        int64
	AssignedTo       int64
	CancelledBy      int64
	CancelledAt      *time.Time
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ListFilters narrows List results.
type ListFilters struct {
	Status     Status
	ContractID int64
	AgencyID   int64
	Search     string
	Page       int
	PerPage    int
}
