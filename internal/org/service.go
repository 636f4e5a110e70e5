package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/atriumcrm/atrium/internal/fault"
)

// UserDirectory is the slice of the user store the organization service
// needs when validating invitations.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Service handles organization and membership business logic.
type Service struct {
	store Store
	users UserDirectory
}

// NewService creates an organization service.
func NewService(store Store, users UserDirectory) *Service {
	return &Service{store: store, users: users}
}

// Create creates an organization with the creator as its first OWNER member.
func (s *Service) Create(ctx context.Context, name, ownerID string) (Organization, error) {
	return s.store.CreateOrganization(ctx, name, ownerID)
}

// Get retrieves an organization by ID.
func (s *Service) Get(ctx context.Context, id string) (Organization, error) {
	o, err := s.store.GetOrganization(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return Organization{}, fault.NotFound("organization not found")
		}
		return Organization{}, err
	}
	return o, nil
}

// ListForUser returns all organizations the user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Organization, error) {
	return s.store.ListUserOrganizations(ctx, userID)
}

// ListMembers returns the memberships of an organization.
func (s *Service) ListMembers(ctx context.Context, organizationID string) ([]Membership, error) {
	return s.store.ListMembers(ctx, organizationID)
}

// ResolveContext builds the AuthContext for a verified user acting within an
// organization. Non-members are denied without revealing whether the
// organization exists.
func (s *Service) ResolveContext(ctx context.Context, organizationID, userID string) (AuthContext, error) {
	m, err := s.store.GetMembership(ctx, organizationID, userID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return AuthContext{}, fault.PermissionDenied("you are not a member of this organization")
		}
		return AuthContext{}, fmt.Errorf("org: resolve context: %w", err)
	}
	return AuthContext{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           m.Role,
	}, nil
}

// InviteMember adds a user to the organization. Only owners and admins may
// invite; inviting an existing member is a business-rule violation.
func (s *Service) InviteMember(ctx context.Context, organizationID, userID string, role Role, actor AuthContext) (Membership, error) {
	if !actor.IsOwnerOrAdmin() {
		return Membership{}, fault.PermissionDenied("only owners and admins can invite members")
	}
	if !role.Valid() {
		return Membership{}, fault.BusinessRule(fmt.Sprintf("invalid role %q", role))
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return Membership{}, fmt.Errorf("org: look up invited user: %w", err)
	}
	if !exists {
		return Membership{}, fault.NotFound("user not found")
	}

	m, err := s.store.AddMember(ctx, organizationID, userID, role)
	if err != nil {
		if errors.Is(err, ErrDuplicateMembership) {
			return Membership{}, fault.BusinessRule("user is already a member of this organization")
		}
		return Membership{}, err
	}
	return m, nil
}

// ChangeMemberRole updates a member's role. Only owners and admins may change
// roles, and never their own.
func (s *Service) ChangeMemberRole(ctx context.Context, organizationID, userID string, role Role, actor AuthContext) (Membership, error) {
	if !actor.IsOwnerOrAdmin() {
		return Membership{}, fault.PermissionDenied("only owners and admins can change member roles")
	}
	if !role.Valid() {
		return Membership{}, fault.BusinessRule(fmt.Sprintf("invalid role %q", role))
	}
	if userID == actor.UserID {
		return Membership{}, fault.BusinessRule("cannot change your own role")
	}

	m, err := s.store.UpdateMemberRole(ctx, organizationID, userID, role)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return Membership{}, fault.NotFound("member not found")
		}
		return Membership{}, err
	}
	return m, nil
}

// RemoveMember removes a member from the organization. Only owners and
// admins may remove members, and never themselves.
func (s *Service) RemoveMember(ctx context.Context, organizationID, userID string, actor AuthContext) error {
	if !actor.IsOwnerOrAdmin() {
		return fault.PermissionDenied("only owners and admins can remove members")
	}
	if userID == actor.UserID {
		return fault.BusinessRule("cannot remove yourself from the organization")
	}

	if err := s.store.RemoveMember(ctx, organizationID, userID); err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return fault.NotFound("member not found")
		}
		return err
	}
	return nil
}
