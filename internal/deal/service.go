package deal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atriumcrm/atrium/internal/activity"
	"github.com/atriumcrm/atrium/internal/fault"
	"github.com/atriumcrm/atrium/internal/org"
)

// ContactDirectory is the slice of the contact store the deal service needs
// when validating a new deal's contact link.
type ContactDirectory interface {
	ExistsInOrg(ctx context.Context, contactID, organizationID string) (bool, error)
}

// Events receives change notifications so downstream consumers (the analytics
// cache) can invalidate derived data for an organization.
type Events interface {
	DealChanged(ctx context.Context, organizationID string)
}

// NopEvents discards change notifications.
type NopEvents struct{}

// DealChanged implements Events.
func (NopEvents) DealChanged(context.Context, string) {}

// Service applies deal business rules: creation-time contact scoping, the
// status/stage transition machine, and ownership-scoped listing.
type Service struct {
	store    Store
	contacts ContactDirectory
	events   Events
}

// NewService creates a deal service. A nil events sink disables
// notifications.
func NewService(store Store, contacts ContactDirectory, events Events) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{store: store, contacts: contacts, events: events}
}

// Create creates a deal owned by ownerID. A supplied contact must belong to
// the same organization; this is checked only here, not on later updates.
func (s *Service) Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Deal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Deal{}, fault.BusinessRule("title is required")
	}
	if in.Amount < 0 {
		return Deal{}, fault.BusinessRule("amount cannot be negative")
	}
	if in.Status == "" {
		in.Status = StatusNew
	}
	if in.Stage == "" {
		in.Stage = StageQualification
	}
	if !in.Status.Valid() {
		return Deal{}, fault.BusinessRule(fmt.Sprintf("invalid status %q", in.Status))
	}
	if !in.Stage.Valid() {
		return Deal{}, fault.BusinessRule(fmt.Sprintf("invalid stage %q", in.Stage))
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if len(in.Currency) > 3 {
		return Deal{}, fault.BusinessRule("currency must be a three-letter code")
	}

	if in.ContactID != nil {
		ok, err := s.contacts.ExistsInOrg(ctx, *in.ContactID, organizationID)
		if err != nil {
			return Deal{}, fmt.Errorf("deal: check contact: %w", err)
		}
		if !ok {
			return Deal{}, fault.BusinessRule("contact does not belong to this organization")
		}
	}

	d, err := s.store.Create(ctx, in, organizationID, ownerID)
	if err != nil {
		return Deal{}, err
	}
	s.events.DealChanged(ctx, organizationID)
	return d, nil
}

// Get fetches a deal within the organization.
func (s *Service) Get(ctx context.Context, dealID, organizationID string) (Deal, error) {
	d, err := s.store.GetInOrg(ctx, dealID, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Deal{}, fault.NotFound("deal not found")
		}
		return Deal{}, err
	}
	return d, nil
}

// ApplyUpdate validates and applies a partial change set to a deal.
//
// Rules, checked against the state visible to this call:
//   - a changed title must be non-empty and a changed amount non-negative;
//   - status may only move to won while the effective amount is positive;
//   - moving stage to a lower pipeline order requires an owner or admin;
//   - successful status-to-won and stage transitions each append one
//     timeline record, status first, committed atomically with the fields.
//
// A failed check rejects the whole update; nothing is written.
func (s *Service) ApplyUpdate(ctx context.Context, d Deal, changes Update, actor org.AuthContext) (Deal, error) {
	var scheduled []activity.NewActivity
	authorID := actor.UserID

	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return Deal{}, fault.BusinessRule("title cannot be empty")
	}
	if changes.Amount != nil && *changes.Amount < 0 {
		return Deal{}, fault.BusinessRule("amount cannot be negative")
	}
	if changes.Currency != nil && len(*changes.Currency) > 3 {
		return Deal{}, fault.BusinessRule("currency must be a three-letter code")
	}

	if changes.Status != nil {
		if !changes.Status.Valid() {
			return Deal{}, fault.BusinessRule(fmt.Sprintf("invalid status %q", *changes.Status))
		}
		if *changes.Status == StatusWon {
			effective := d.Amount
			if changes.Amount != nil {
				effective = *changes.Amount
			}
			if !effective.IsPositive() {
				return Deal{}, fault.BusinessRule("cannot close deal as won with non-positive amount")
			}
			scheduled = append(scheduled, activity.NewActivity{
				DealID:   d.ID,
				AuthorID: &authorID,
				Type:     activity.TypeStatusChanged,
				Payload: map[string]any{
					"old_status": string(d.Status),
					"new_status": string(StatusWon),
				},
			})
		}
	}

	if changes.Stage != nil {
		newStage := *changes.Stage
		if !newStage.Valid() {
			return Deal{}, fault.BusinessRule(fmt.Sprintf("invalid stage %q", newStage))
		}
		if StageOrder[newStage] < StageOrder[d.Stage] && !actor.IsOwnerOrAdmin() {
			return Deal{}, fault.PermissionDenied("only admins and owners can roll back deal stages")
		}
		scheduled = append(scheduled, activity.NewActivity{
			DealID:   d.ID,
			AuthorID: &authorID,
			Type:     activity.TypeStageChanged,
			Payload: map[string]any{
				"old_stage": string(d.Stage),
				"new_stage": string(newStage),
			},
		})
	}

	updated, err := s.store.ApplyUpdate(ctx, d.ID, changes, scheduled)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Deal{}, fault.NotFound("deal not found")
		}
		return Deal{}, err
	}

	s.events.DealChanged(ctx, d.OrganizationID)
	return updated, nil
}

// List returns the organization's deals with ownership scoping applied:
// plain members always see only their own deals, whatever owner filter they
// supply; managers and above may filter freely or see everything.
func (s *Service) List(ctx context.Context, organizationID string, f ListFilters, actor org.AuthContext) ([]Deal, error) {
	if actor.IsMember() {
		f.OwnerID = actor.UserID
	}
	return s.store.List(ctx, organizationID, f)
}
