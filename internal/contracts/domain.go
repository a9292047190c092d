package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the overall contract lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// TrackStatus is the state of one departmental approval track.
type TrackStatus string

const (
	TrackPending   TrackStatus = "pending"
	TrackSubmitted TrackStatus = "submitted"
	TrackApproved  TrackStatus = "approved"
	TrackRejected  TrackStatus = "rejected"
	TrackCancelled TrackStatus = "cancelled"
)

// Department identifies one of the three approval tracks.
type Department string

const (
	DeptMarketing Department = "marketing"
	DeptOperation Department = "operation"
	DeptFinance   Department = "finance"
)

// Departments lists the approval tracks in review order.
var Departments = []Department{DeptMarketing, DeptOperation, DeptFinance}

// ValidDepartment reports whether d names a real track.
func ValidDepartment(d Department) bool {
	switch d {
	case DeptMarketing, DeptOperation, DeptFinance:
		return true
	}
	return false
}

// Track is one departmental approval state.
type Track struct {
	Status     TrackStatus
	Remarks    string
	AssignedTo int64
	UpdatedAt  *time.Time
}

// Contract is an agreement with an agency, approved independently by the
// marketing, operation and finance departments.
type Contract struct {
	ID             int64
	ContractNumber string
	AgencyID       int64
	AgencyName     string
	Title          string
	Description    string
	Type           string
	StartDate      *time.Time
	EndDate        *time.Time
	TotalValue     decimal.Decimal
	Currency       string
	PaymentTerms   int
	Status         Status
	Marketing      Track
	Operation      Track
	Finance        Track
	CreatedBy      int64
	ApprovedBy     int64
	ApprovedAt     *time.Time
	CancelledBy    int64
	CancelledAt    *time.Time
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TrackFor returns a pointer to the track owned by the department.
func (c *Contract) TrackFor(d Department) *Track {
	switch d {
	case DeptMarketing:
		return &c.Marketing
	case DeptOperation:
		return &c.Operation
	case DeptFinance:
		return &c.Finance
	}
	return nil
}

// DeriveStatus recomputes the overall status from the three tracks. It only
// applies while the contract is still under review; explicit transitions
// (activate, complete, expire, cancel) are never overridden.
func (c *Contract) DeriveStatus() Status {
	switch c.Status {
	case StatusActive, StatusCompleted, StatusCancelled, StatusExpired:
		return c.Status
	}
	if c.Marketing.Status == TrackApproved &&
		c.Operation.Status == TrackApproved &&
		c.Finance.Status == TrackApproved {
		return StatusApproved
	}
	for _, d := range Departments {
		t := c.TrackFor(d)
		if t.Status != TrackPending {
			return StatusPending
		}
	}
	return StatusDraft
}

// nextTrackStatus validates a track transition and returns the target state.
var trackTransitions = map[TrackStatus]map[TrackStatus]bool{
	TrackPending:   {TrackSubmitted: true},
	TrackSubmitted: {TrackApproved: true, TrackRejected: true},
	TrackRejected:  {TrackSubmitted: true},
}

// CanTransitionTrack reports whether a track may move from one state to
// another. Rejected tracks may be resubmitted.
func CanTransitionTrack(from, to TrackStatus) bool {
	return trackTransitions[from][to]
}

// ListFilters narrows List results.
type ListFilters struct {
	Status   Status
	AgencyID int64
	Search   string
	Page     int
	PerPage  int
}
