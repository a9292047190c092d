package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a financial transaction.
type Type string

const (
	TypeInvoice    Type = "invoice"
	TypePayment    Type = "payment"
	TypeCreditNote Type = "credit_note"
	TypeDebitNote  Type = "debit_note"
	TypeAdvance    Type = "advance"
	TypeRefund     Type = "refund"
)

// ValidType reports whether t names a known transaction type.
func ValidType(t Type) bool {
	switch t {
	case TypeInvoice, TypePayment, TypeCreditNote, TypeDebitNote, TypeAdvance, TypeRefund:
		return true
	}
	return false
}

// Status is the transaction lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusOverdue   Status = "overdue"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Transaction is a money movement optionally tied to a contract, shipment
// or agency. Total and local amounts are derived, never client-supplied.
type Transaction struct {
	ID                int64
	TransactionNumber string
	Type              Type
	ContractID        int64
	ShipmentID        int64
	AgencyID          int64
	Amount            decimal.Decimal
	Tax               decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Currency          string
	ExchangeRate      decimal.Decimal
	AmountLocal       decimal.Decimal
	DueDate           *time.Time
	PaymentDate       *time.Time
	PaymentMethod     string
	Status            Status
	Description       string
	Notes             string
	ReminderSent      bool
	ReminderCount     int
	LastReminderAt    *time.Time
	CreatedBy         int64
	ApprovedBy        int64
	ApprovedAt        *time.Time
	CancelledBy       int64
	CancelledAt       *time.Time
	CancelReason      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ComputeDerived fills Total and AmountLocal from the money fields.
// total = amount + tax - discount; amount_local = total * exchange_rate.
func (t *Transaction) ComputeDerived() {
	t.Total = t.Amount.Add(t.Tax).Sub(t.Discount)
	rate := t.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
		t.ExchangeRate = rate
	}
	t.AmountLocal = t.Total.Mul(rate)
}

// ListFilters narrows List results.
type ListFilters struct {
	Type       Type
	Status     Status
	ContractID int64
	AgencyID   int64
	Page       int
	PerPage    int
}
