package task

import "time"

// Task is a follow-up item attached to a deal. Tasks have no owner of their
// own; visibility follows the owning deal.
type Task struct {
	ID          string     `json:"id"`
	DealID      string     `json:"deal_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsDone      bool       `json:"is_done"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateInput carries the caller-supplied fields for a new task.
type CreateInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// Update is a partial change set; nil fields are left untouched.
type Update struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsDone      *bool      `json:"is_done"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil && u.IsDone == nil
}

// ListFilters narrows and pages a task listing. OwnerID filters on the owning
// deal's owner.
type ListFilters struct {
	DealID    string
	OwnerID   string
	OnlyOpen  *bool
	DueBefore *time.Time
	DueAfter  *time.Time
	Offset    int
	Limit     int
}
