package contact

import (
	"context"
	"testing"
	"time"

	"github.com/atriumcrm/atrium/internal/fault"
	"github.com/atriumcrm/atrium/internal/org"
)

type fakeStore struct {
	contacts    map[string]Contact
	withDeals   map[string]bool
	lastFilters ListFilters
}

func newFakeStore() *fakeStore {
	return &fakeStore{contacts: make(map[string]Contact), withDeals: make(map[string]bool)}
}

func (f *fakeStore) Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Contact, error) {
	c := Contact{
		ID:             "contact-1",
		OrganizationID: organizationID,
		OwnerID:        ownerID,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.contacts[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetInOrg(ctx context.Context, contactID, organizationID string) (Contact, error) {
	c, ok := f.contacts[contactID]
	if !ok || c.OrganizationID != organizationID {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ExistsInOrg(ctx context.Context, contactID, organizationID string) (bool, error) {
	c, ok := f.contacts[contactID]
	return ok && c.OrganizationID == organizationID, nil
}

func (f *fakeStore) List(ctx context.Context, organizationID string, filters ListFilters) ([]Contact, error) {
	f.lastFilters = filters
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, contactID string, u Update) (Contact, error) {
	c, ok := f.contacts[contactID]
	if !ok {
		return Contact{}, ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = u.Email
	}
	if u.Phone != nil {
		c.Phone = u.Phone
	}
	f.contacts[contactID] = c
	return c, nil
}

func (f *fakeStore) Delete(ctx context.Context, contactID string) error {
	if _, ok := f.contacts[contactID]; !ok {
		return ErrNotFound
	}
	delete(f.contacts, contactID)
	return nil
}

func (f *fakeStore) HasDeals(ctx context.Context, contactID string) (bool, error) {
	return f.withDeals[contactID], nil
}

func TestDeleteContactWithDealsRefused(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	c, err := svc.Create(context.Background(), CreateInput{Name: "Ada"}, "org-1", "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.withDeals[c.ID] = true

	err = svc.Delete(context.Background(), c)
	if fault.KindOf(err) != fault.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, ok := store.contacts[c.ID]; !ok {
		t.Error("contact deleted despite conflict")
	}

	store.withDeals[c.ID] = false
	if err := svc.Delete(context.Background(), c); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.contacts[c.ID]; ok {
		t.Error("contact still present after delete")
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.Create(context.Background(), CreateInput{}, "org-1", "user-1"); fault.KindOf(err) != fault.KindBusinessRule {
		t.Errorf("expected business rule violation, got %v", err)
	}
}

func TestGetMissingContact(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.Get(context.Background(), "nope", "org-1"); fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListScopesMembersToOwnContacts(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	member := org.AuthContext{UserID: "user-1", OrganizationID: "org-1", Role: org.RoleMember}
	if _, err := svc.List(context.Background(), "org-1", ListFilters{OwnerID: "user-2"}, member); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if store.lastFilters.OwnerID != "user-1" {
		t.Errorf("expected forced owner filter user-1, got %q", store.lastFilters.OwnerID)
	}

	manager := org.AuthContext{UserID: "mgr-1", OrganizationID: "org-1", Role: org.RoleManager}
	if _, err := svc.List(context.Background(), "org-1", ListFilters{Search: "ada"}, manager); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if store.lastFilters.OwnerID != "" {
		t.Errorf("expected no owner filter for manager, got %q", store.lastFilters.OwnerID)
	}
	if store.lastFilters.Search != "ada" {
		t.Errorf("search filter dropped: %q", store.lastFilters.Search)
	}
}

func TestApplyUpdateEmptyIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	c, _ := svc.Create(context.Background(), CreateInput{Name: "Ada"}, "org-1", "user-1")

	got, err := svc.ApplyUpdate(context.Background(), c, Update{})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("unexpected result: %+v", got)
	}
}
