package activity

import (
	"context"
	"fmt"

	"github.com/atriumcrm/atrium/internal/fault"
)

// DealDirectory is the slice of the deal store the activity service needs to
// scope timelines to the caller's organization.
type DealDirectory interface {
	ExistsInOrg(ctx context.Context, dealID, organizationID string) (bool, error)
}

// Service handles user-authored timeline entries. System-generated entries
// are written by the deal service inside its update transaction.
type Service struct {
	store Store
	deals DealDirectory
}

// NewService creates an activity service.
func NewService(store Store, deals DealDirectory) *Service {
	return &Service{store: store, deals: deals}
}

// Create appends a user-authored entry (typically a comment) to a deal's
// timeline. The deal must exist within the caller's organization.
func (s *Service) Create(ctx context.Context, organizationID, dealID, authorID string, typ Type, payload map[string]any) (Activity, error) {
	if typ == "" {
		typ = TypeComment
	}
	if !typ.Valid() {
		return Activity{}, fault.BusinessRule(fmt.Sprintf("invalid activity type %q", typ))
	}

	ok, err := s.deals.ExistsInOrg(ctx, dealID, organizationID)
	if err != nil {
		return Activity{}, fmt.Errorf("activity: check deal: %w", err)
	}
	if !ok {
		return Activity{}, fault.NotFound("deal not found")
	}

	return s.store.Insert(ctx, NewActivity{
		DealID:   dealID,
		AuthorID: &authorID,
		Type:     typ,
		Payload:  payload,
	})
}

// ListForDeal returns a deal's timeline, newest first.
func (s *Service) ListForDeal(ctx context.Context, organizationID, dealID string) ([]Activity, error) {
	ok, err := s.deals.ExistsInOrg(ctx, dealID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("activity: check deal: %w", err)
	}
	if !ok {
		return nil, fault.NotFound("deal not found")
	}
	return s.store.ListByDeal(ctx, dealID)
}
