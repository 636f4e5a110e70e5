package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/atriumcrm/atrium/internal/fault"
	"github.com/atriumcrm/atrium/internal/org"
)

// Service implements contact business rules on top of a Store.
type Service struct {
	store Store
}

// NewService creates a contact service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create creates a contact owned by the acting user.
func (s *Service) Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Contact, error) {
	if in.Name == "" {
		return Contact{}, fault.BusinessRule("contact name is required")
	}
	return s.store.Create(ctx, in, organizationID, ownerID)
}

// Get fetches a contact within the organization.
func (s *Service) Get(ctx context.Context, contactID, organizationID string) (Contact, error) {
	c, err := s.store.GetInOrg(ctx, contactID, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Contact{}, fault.NotFound("contact not found")
		}
		return Contact{}, err
	}
	return c, nil
}

// ApplyUpdate writes a partial change set to an already-fetched contact.
func (s *Service) ApplyUpdate(ctx context.Context, c Contact, changes Update) (Contact, error) {
	if changes.Empty() {
		return c, nil
	}
	if changes.Name != nil && *changes.Name == "" {
		return Contact{}, fault.BusinessRule("contact name is required")
	}
	updated, err := s.store.Update(ctx, c.ID, changes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Contact{}, fault.NotFound("contact not found")
		}
		return Contact{}, err
	}
	return updated, nil
}

// Delete removes a contact. Contacts still referenced by deals cannot be
// deleted; the deals have to be removed or reassigned first.
func (s *Service) Delete(ctx context.Context, c Contact) error {
	hasDeals, err := s.store.HasDeals(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("contact: check deals: %w", err)
	}
	if hasDeals {
		return fault.Conflict("cannot delete contact with existing deals; remove or reassign deals first")
	}
	if err := s.store.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.NotFound("contact not found")
		}
		return err
	}
	return nil
}

// List returns contacts visible to the actor. Members only see contacts they
// own regardless of the supplied filter; managers and above see the whole
// organization unless they narrow it themselves.
func (s *Service) List(ctx context.Context, organizationID string, f ListFilters, actor org.AuthContext) ([]Contact, error) {
	if actor.IsMember() {
		f.OwnerID = actor.UserID
	}
	return s.store.List(ctx, organizationID, f)
}

// ExistsInOrg reports whether a contact belongs to the organization. It backs
// the contact check on deal creation.
func (s *Service) ExistsInOrg(ctx context.Context, contactID, organizationID string) (bool, error) {
	return s.store.ExistsInOrg(ctx, contactID, organizationID)
}
