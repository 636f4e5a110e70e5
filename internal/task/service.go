package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/atriumcrm/atrium/internal/activity"
	"github.com/atriumcrm/atrium/internal/deal"
	"github.com/atriumcrm/atrium/internal/fault"
	"github.com/atriumcrm/atrium/internal/org"
)

// DealDirectory looks up deals for ownership and organization checks.
type DealDirectory interface {
	GetInOrg(ctx context.Context, dealID, organizationID string) (deal.Deal, error)
}

// Timeline records activity entries on a deal's timeline.
type Timeline interface {
	Insert(ctx context.Context, in activity.NewActivity) (activity.Activity, error)
}

// Service implements task business rules. Tasks carry no owner of their own,
// so every permission check goes through the owning deal.
type Service struct {
	store    Store
	deals    DealDirectory
	timeline Timeline
}

// NewService creates a task service. timeline may be nil to disable
// task-created records.
func NewService(store Store, deals DealDirectory, timeline Timeline) *Service {
	return &Service{store: store, deals: deals, timeline: timeline}
}

// Create adds a task to a deal. Members may only add tasks to deals they own.
// A task_created record is appended to the deal's timeline.
func (s *Service) Create(ctx context.Context, in CreateInput, dealID string, actor org.AuthContext) (Task, error) {
	if in.Title == "" {
		return Task{}, fault.BusinessRule("task title is required")
	}

	d, err := s.dealFor(ctx, dealID, actor.OrganizationID)
	if err != nil {
		return Task{}, err
	}
	if !actor.CanAccessResource(d.OwnerID) {
		return Task{}, fault.PermissionDenied("members can only create tasks for their own deals")
	}

	t, err := s.store.Create(ctx, in, dealID)
	if err != nil {
		return Task{}, err
	}

	if s.timeline != nil {
		authorID := actor.UserID
		_, err := s.timeline.Insert(ctx, activity.NewActivity{
			DealID:   dealID,
			AuthorID: &authorID,
			Type:     activity.TypeTaskCreated,
			Payload:  map[string]any{"task_id": t.ID, "title": t.Title},
		})
		if err != nil {
			return Task{}, fmt.Errorf("task: record creation: %w", err)
		}
	}
	return t, nil
}

// Get fetches a task, verifying its deal belongs to the actor's organization.
// Tasks reachable only through another organization read as missing.
func (s *Service) Get(ctx context.Context, taskID string, actor org.AuthContext) (Task, error) {
	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, fault.NotFound("task not found")
		}
		return Task{}, err
	}
	if _, err := s.deals.GetInOrg(ctx, t.DealID, actor.OrganizationID); err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			return Task{}, fault.NotFound("task not found")
		}
		return Task{}, err
	}
	return t, nil
}

// ApplyUpdate writes a partial change set to an already-fetched task. Members
// may only update tasks on deals they own.
func (s *Service) ApplyUpdate(ctx context.Context, t Task, changes Update, actor org.AuthContext) (Task, error) {
	d, err := s.dealFor(ctx, t.DealID, actor.OrganizationID)
	if err != nil {
		return Task{}, err
	}
	if !actor.CanAccessResource(d.OwnerID) {
		return Task{}, fault.PermissionDenied("members can only update their own tasks")
	}
	if changes.Title != nil && *changes.Title == "" {
		return Task{}, fault.BusinessRule("task title is required")
	}

	updated, err := s.store.Update(ctx, t.ID, changes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, fault.NotFound("task not found")
		}
		return Task{}, err
	}
	return updated, nil
}

// Delete removes a task. Members may only delete tasks on deals they own.
func (s *Service) Delete(ctx context.Context, t Task, actor org.AuthContext) error {
	d, err := s.dealFor(ctx, t.DealID, actor.OrganizationID)
	if err != nil {
		return err
	}
	if !actor.CanAccessResource(d.OwnerID) {
		return fault.PermissionDenied("members can only delete their own tasks")
	}

	if err := s.store.Delete(ctx, t.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.NotFound("task not found")
		}
		return err
	}
	return nil
}

// ListForDeal returns every task on a deal in the actor's organization.
func (s *Service) ListForDeal(ctx context.Context, dealID string, actor org.AuthContext) ([]Task, error) {
	if _, err := s.dealFor(ctx, dealID, actor.OrganizationID); err != nil {
		return nil, err
	}
	return s.store.ListByDeal(ctx, dealID)
}

// List returns tasks visible to the actor. Members only see tasks on their
// own deals.
func (s *Service) List(ctx context.Context, f ListFilters, actor org.AuthContext) ([]Task, error) {
	if actor.IsMember() {
		f.OwnerID = actor.UserID
	}
	return s.store.List(ctx, actor.OrganizationID, f)
}

func (s *Service) dealFor(ctx context.Context, dealID, organizationID string) (deal.Deal, error) {
	d, err := s.deals.GetInOrg(ctx, dealID, organizationID)
	if err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			return deal.Deal{}, fault.NotFound("deal not found")
		}
		return deal.Deal{}, err
	}
	return d, nil
}
