package contact

import "time"

// Contact is a person attached to an organization's book of business.
// Email and phone are optional.
type Contact struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateInput carries the caller-supplied fields for a new contact.
type CreateInput struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Update is a partial change set; nil fields are left untouched.
type Update struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil
}

// ListFilters narrows and pages a contact listing.
type ListFilters struct {
	OwnerID string
	Search  string
	Offset  int
	Limit   int
}
