package org

import (
	"context"
	"testing"

	"github.com/atriumcrm/atrium/internal/fault"
)

type fakeStore struct {
	memberships map[string]Membership // key: orgID|userID
	added       []Membership
	removed     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{memberships: make(map[string]Membership)}
}

func key(orgID, userID string) string { return orgID + "|" + userID }

func (f *fakeStore) CreateOrganization(ctx context.Context, name, ownerID string) (Organization, error) {
	return Organization{ID: "org-1", Name: name}, nil
}

func (f *fakeStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return Organization{}, ErrOrganizationNotFound
}

func (f *fakeStore) ListUserOrganizations(ctx context.Context, userID string) ([]Organization, error) {
	return nil, nil
}

func (f *fakeStore) GetMembership(ctx context.Context, organizationID, userID string) (Membership, error) {
	m, ok := f.memberships[key(organizationID, userID)]
	if !ok {
		return Membership{}, ErrMembershipNotFound
	}
	return m, nil
}

func (f *fakeStore) ListMembers(ctx context.Context, organizationID string) ([]Membership, error) {
	return nil, nil
}

func (f *fakeStore) AddMember(ctx context.Context, organizationID, userID string, role Role) (Membership, error) {
	if _, ok := f.memberships[key(organizationID, userID)]; ok {
		return Membership{}, ErrDuplicateMembership
	}
	m := Membership{OrganizationID: organizationID, UserID: userID, Role: role}
	f.memberships[key(organizationID, userID)] = m
	f.added = append(f.added, m)
	return m, nil
}

func (f *fakeStore) UpdateMemberRole(ctx context.Context, organizationID, userID string, role Role) (Membership, error) {
	m, ok := f.memberships[key(organizationID, userID)]
	if !ok {
		return Membership{}, ErrMembershipNotFound
	}
	m.Role = role
	f.memberships[key(organizationID, userID)] = m
	return m, nil
}

func (f *fakeStore) RemoveMember(ctx context.Context, organizationID, userID string) error {
	if _, ok := f.memberships[key(organizationID, userID)]; !ok {
		return ErrMembershipNotFound
	}
	delete(f.memberships, key(organizationID, userID))
	f.removed = append(f.removed, key(organizationID, userID))
	return nil
}

type fakeDirectory struct {
	users map[string]bool
}

func (f *fakeDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	return f.users[userID], nil
}

func adminCtx() AuthContext {
	return AuthContext{UserID: "admin-1", OrganizationID: "org-1", Role: RoleAdmin}
}

func memberCtx() AuthContext {
	return AuthContext{UserID: "member-1", OrganizationID: "org-1", Role: RoleMember}
}

func TestInviteMember(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{users: map[string]bool{"user-2": true}}
	svc := NewService(store, dir)

	m, err := svc.InviteMember(context.Background(), "org-1", "user-2", RoleManager, adminCtx())
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}
	if m.Role != RoleManager {
		t.Errorf("expected role manager, got %s", m.Role)
	}

	// Inviting the same user again violates the duplicate-membership rule.
	_, err = svc.InviteMember(context.Background(), "org-1", "user-2", RoleMember, adminCtx())
	if fault.KindOf(err) != fault.KindBusinessRule {
		t.Errorf("expected business rule violation on duplicate invite, got %v", err)
	}
}

func TestInviteMemberRequiresOwnerOrAdmin(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{users: map[string]bool{"user-2": true}}
	svc := NewService(store, dir)

	for _, role := range []Role{RoleManager, RoleMember} {
		actor := AuthContext{UserID: "u1", OrganizationID: "org-1", Role: role}
		_, err := svc.InviteMember(context.Background(), "org-1", "user-2", RoleMember, actor)
		if fault.KindOf(err) != fault.KindPermissionDenied {
			t.Errorf("role %s: expected permission denied, got %v", role, err)
		}
	}
	if len(store.added) != 0 {
		t.Errorf("expected no memberships created, got %d", len(store.added))
	}
}

func TestInviteUnknownUser(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeDirectory{users: map[string]bool{}})

	_, err := svc.InviteMember(context.Background(), "org-1", "ghost", RoleMember, adminCtx())
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestChangeMemberRole(t *testing.T) {
	store := newFakeStore()
	store.memberships[key("org-1", "user-2")] = Membership{OrganizationID: "org-1", UserID: "user-2", Role: RoleMember}
	svc := NewService(store, &fakeDirectory{})

	m, err := svc.ChangeMemberRole(context.Background(), "org-1", "user-2", RoleManager, adminCtx())
	if err != nil {
		t.Fatalf("ChangeMemberRole failed: %v", err)
	}
	if m.Role != RoleManager {
		t.Errorf("expected role manager, got %s", m.Role)
	}
}

func TestChangeOwnRoleRejected(t *testing.T) {
	store := newFakeStore()
	actor := adminCtx()
	store.memberships[key("org-1", actor.UserID)] = Membership{OrganizationID: "org-1", UserID: actor.UserID, Role: RoleAdmin}
	svc := NewService(store, &fakeDirectory{})

	_, err := svc.ChangeMemberRole(context.Background(), "org-1", actor.UserID, RoleMember, actor)
	if fault.KindOf(err) != fault.KindBusinessRule {
		t.Errorf("expected business rule violation, got %v", err)
	}
	if got := store.memberships[key("org-1", actor.UserID)].Role; got != RoleAdmin {
		t.Errorf("role changed despite rejection: %s", got)
	}
}

func TestRemoveMember(t *testing.T) {
	store := newFakeStore()
	store.memberships[key("org-1", "user-2")] = Membership{OrganizationID: "org-1", UserID: "user-2", Role: RoleMember}
	svc := NewService(store, &fakeDirectory{})

	if err := svc.RemoveMember(context.Background(), "org-1", "user-2", adminCtx()); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	err := svc.RemoveMember(context.Background(), "org-1", "user-2", adminCtx())
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not found for removed member, got %v", err)
	}
}

func TestRemoveSelfRejected(t *testing.T) {
	store := newFakeStore()
	actor := adminCtx()
	store.memberships[key("org-1", actor.UserID)] = Membership{OrganizationID: "org-1", UserID: actor.UserID, Role: RoleAdmin}
	svc := NewService(store, &fakeDirectory{})

	err := svc.RemoveMember(context.Background(), "org-1", actor.UserID, actor)
	if fault.KindOf(err) != fault.KindBusinessRule {
		t.Errorf("expected business rule violation, got %v", err)
	}
}

func TestRemoveMemberRequiresOwnerOrAdmin(t *testing.T) {
	store := newFakeStore()
	store.memberships[key("org-1", "user-2")] = Membership{OrganizationID: "org-1", UserID: "user-2", Role: RoleMember}
	svc := NewService(store, &fakeDirectory{})

	err := svc.RemoveMember(context.Background(), "org-1", "user-2", memberCtx())
	if fault.KindOf(err) != fault.KindPermissionDenied {
		t.Errorf("expected permission denied, got %v", err)
	}
}

func TestResolveContext(t *testing.T) {
	store := newFakeStore()
	store.memberships[key("org-1", "user-2")] = Membership{OrganizationID: "org-1", UserID: "user-2", Role: RoleManager}
	svc := NewService(store, &fakeDirectory{})

	a, err := svc.ResolveContext(context.Background(), "org-1", "user-2")
	if err != nil {
		t.Fatalf("ResolveContext failed: %v", err)
	}
	if a.Role != RoleManager || a.UserID != "user-2" || a.OrganizationID != "org-1" {
		t.Errorf("unexpected context: %+v", a)
	}

	_, err = svc.ResolveContext(context.Background(), "org-1", "outsider")
	if fault.KindOf(err) != fault.KindPermissionDenied {
		t.Errorf("expected permission denied for non-member, got %v", err)
	}
}
