package activity

import (
	"context"
	"testing"

	"github.com/atriumcrm/atrium/internal/fault"
)

type fakeStore struct {
	inserted []NewActivity
}

func (f *fakeStore) Insert(_ context.Context, in NewActivity) (Activity, error) {
	f.inserted = append(f.inserted, in)
	return Activity{ID: "activity-1", DealID: in.DealID, AuthorID: in.AuthorID, Type: in.Type, Payload: in.Payload}, nil
}

func (f *fakeStore) ListByDeal(_ context.Context, dealID string) ([]Activity, error) {
	var out []Activity
	for i := len(f.inserted) - 1; i >= 0; i-- {
		if f.inserted[i].DealID == dealID {
			out = append(out, Activity{DealID: dealID, Type: f.inserted[i].Type})
		}
	}
	return out, nil
}

type fakeDeals struct {
	known map[string]string // deal id -> org id
}

func (f *fakeDeals) ExistsInOrg(_ context.Context, dealID, organizationID string) (bool, error) {
	return f.known[dealID] == organizationID, nil
}

func newService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	deals := &fakeDeals{known: map[string]string{"deal-1": "org-1"}}
	return NewService(store, deals), store
}

func TestCreateDefaultsToComment(t *testing.T) {
	svc, store := newService(t)

	a, err := svc.Create(context.Background(), "org-1", "deal-1", "user-1", "", map[string]any{"body": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != TypeComment {
		t.Errorf("expected type comment, got %q", a.Type)
	}
	if a.AuthorID == nil || *a.AuthorID != "user-1" {
		t.Errorf("expected author user-1, got %v", a.AuthorID)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.Create(context.Background(), "org-1", "deal-1", "user-1", "shout", nil)
	if !fault.IsKind(err, fault.KindBusinessRule) {
		t.Fatalf("expected business rule error, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("nothing should be inserted, got %d", len(store.inserted))
	}
}

func TestCreateOnForeignDeal(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), "org-2", "deal-1", "user-1", TypeComment, nil)
	if !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListForDealScopedToOrganization(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Create(context.Background(), "org-1", "deal-1", "user-1", TypeComment, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := svc.ListForDeal(context.Background(), "org-1", "deal-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one entry, got %d", len(out))
	}

	if _, err := svc.ListForDeal(context.Background(), "org-2", "deal-1"); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected not found for foreign org, got %v", err)
	}
}
