package activity

import "time"

// Type classifies a timeline entry.
type Type string

const (
	TypeComment       Type = "comment"
	TypeStatusChanged Type = "status_changed"
	TypeStageChanged  Type = "stage_changed"
	TypeTaskCreated   Type = "task_created"
	TypeSystem        Type = "system"
)

// Valid reports whether t is a known activity type.
func (t Type) Valid() bool {
	switch t {
	case TypeComment, TypeStatusChanged, TypeStageChanged, TypeTaskCreated, TypeSystem:
		return true
	default:
		return false
	}
}

// Activity is an immutable timeline entry on a deal. AuthorID is nil for
// system-generated entries.
type Activity struct {
	ID        string         `json:"id"`
	DealID    string         `json:"deal_id"`
	AuthorID  *string        `json:"author_id"`
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewActivity holds the fields for appending a timeline entry.
type NewActivity struct {
	DealID   string         `json:"deal_id"`
	AuthorID *string        `json:"author_id"`
	Type     Type           `json:"type"`
	Payload  map[string]any `json:"payload"`
}
