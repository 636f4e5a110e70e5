package org

// AuthContext is the verified caller identity for a single operation:
// a user acting within an organization under a role. It is built once per
// request from the membership record and never mutated.
type AuthContext struct {
	UserID         string
	OrganizationID string
	Role           Role
}

// IsOwner reports whether the caller is the organization owner.
func (a AuthContext) IsOwner() bool { return a.Role == RoleOwner }

// IsAdmin reports whether the caller is an admin.
func (a AuthContext) IsAdmin() bool { return a.Role == RoleAdmin }

// IsManager reports whether the caller is a manager.
func (a AuthContext) IsManager() bool { return a.Role == RoleManager }

// IsMember reports whether the caller is a plain member.
func (a AuthContext) IsMember() bool { return a.Role == RoleMember }

// IsOwnerOrAdmin reports whether the caller may perform management actions
// such as inviting members or rolling back deal stages.
func (a AuthContext) IsOwnerOrAdmin() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin
}

// IsManagerOrAbove reports whether the caller sees resources
// organization-wide rather than only their own.
func (a AuthContext) IsManagerOrAbove() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin || a.Role == RoleManager
}

// CanAccessResource is the single ownership-scoping rule shared by contacts,
// deals and tasks: managers and above reach everything in the organization,
// plain members only resources they own.
func (a AuthContext) CanAccessResource(resourceOwnerID string) bool {
	if a.IsManagerOrAbove() {
		return true
	}
	return a.UserID == resourceOwnerID
}
