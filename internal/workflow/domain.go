package workflow

import "time"

// Entity types referenced by workflow history rows.
const (
	EntityContract    = "contract"
	EntityShipment    = "shipment"
	EntityTransaction = "transaction"
	EntityUser        = "user"
)

// Actions recorded in workflow history.
const (
	ActionCreate   = "create"
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
	ActionExpire   = "expire"
	ActionUpdate   = "status_update"
)

// Entry is a single append-only workflow history record. Entries are never
// mutated or deleted once written.
type Entry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	UserID     int64     `json:"user_id"`
	Department string    `json:"department,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TimelineFilters selects workflow history rows.
type TimelineFilters struct {
	EntityType string
	EntityID   int64
	Action     string
	UserID     int64
	Page       int
	PageSize   int
}
