package deal

import "time"

// Status is the outcome state of a deal, independent of its pipeline stage.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusWon, StatusLost:
		return true
	default:
		return false
	}
}

// Statuses returns all statuses in declaration order.
func Statuses() []Status {
	return []Status{StatusNew, StatusInProgress, StatusWon, StatusLost}
}

// Stage is the pipeline position of a deal, totally ordered.
type Stage string

const (
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosed        Stage = "closed"
)

// StageOrder maps each stage to its position in the pipeline. Moving to a
// lower order is a rollback.
var StageOrder = map[Stage]int{
	StageQualification: 1,
	StageProposal:      2,
	StageNegotiation:   3,
	StageClosed:        4,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := StageOrder[s]
	return ok
}

// Stages returns all stages in ascending pipeline order.
func Stages() []Stage {
	return []Stage{StageQualification, StageProposal, StageNegotiation, StageClosed}
}

// Deal is a sales opportunity scoped to one organization.
type Deal struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ContactID      *string   `json:"contact_id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	Amount         Amount    `json:"amount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	Stage          Stage     `json:"stage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateInput holds the fields accepted when creating a deal. Status and
// stage default to new/qualification when empty.
type CreateInput struct {
	Title     string  `json:"title"`
	ContactID *string `json:"contact_id"`
	Amount    Amount  `json:"amount"`
	Currency  string  `json:"currency"`
	Status    Status  `json:"status"`
	Stage     Stage   `json:"stage"`
}

// Update holds a partial change set. Nil fields are untouched; only fields
// explicitly present are considered changing.
type Update struct {
	Title     *string `json:"title"`
	ContactID *string `json:"contact_id"`
	Amount    *Amount `json:"amount"`
	Currency  *string `json:"currency"`
	Status    *Status `json:"status"`
	Stage     *Stage  `json:"stage"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Title == nil && u.ContactID == nil && u.Amount == nil &&
		u.Currency == nil && u.Status == nil && u.Stage == nil
}

// ListFilters narrows and orders a deal listing.
type ListFilters struct {
	OwnerID   string
	Statuses  []Status
	Stage     Stage
	MinAmount *Amount
	MaxAmount *Amount
	OrderBy   string
	Order     string
	Offset    int
	Limit     int
}

// StatusAggregate is one row of the per-status summary query.
type StatusAggregate struct {
	Status      Status
	Count       int
	TotalAmount Amount
	AvgWon      *float64
	NewInWindow int
}

// StageStatusCount is one row of the per-(stage,status) funnel query.
type StageStatusCount struct {
	Stage  Stage
	Status Status
	Count  int
}
