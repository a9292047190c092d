package agencies

import "time"

// Agency is a counterparty organization referenced by contracts, shipments
// and financial transactions.
type Agency struct {
	ID            int64
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
	IsActive      bool
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilters narrows List results.
type ListFilters struct {
	Search          string
	Country         string
	IncludeInactive bool
	Page            int
	PerPage         int
}
