package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrOrganizationNotFound signals that the organization does not exist.
	ErrOrganizationNotFound = errors.New("org: organization not found")
	// ErrMembershipNotFound signals that the user is not a member.
	ErrMembershipNotFound = errors.New("org: membership not found")
	// ErrDuplicateMembership signals that the user is already a member.
	ErrDuplicateMembership = errors.New("org: membership already exists")
)

// Store is the persistence interface for organizations and memberships.
type Store interface {
	CreateOrganization(ctx context.Context, name, ownerID string) (Organization, error)
	GetOrganization(ctx context.Context, id string) (Organization, error)
	ListUserOrganizations(ctx context.Context, userID string) ([]Organization, error)
	GetMembership(ctx context.Context, organizationID, userID string) (Membership, error)
	ListMembers(ctx context.Context, organizationID string) ([]Membership, error)
	AddMember(ctx context.Context, organizationID, userID string, role Role) (Membership, error)
	UpdateMemberRole(ctx context.Context, organizationID, userID string, role Role) (Membership, error)
	RemoveMember(ctx context.Context, organizationID, userID string) error
}

const membershipColumns = `id, organization_id, user_id, role, created_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed organization store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// CreateOrganization inserts an organization and its owner membership in a
// single transaction.
func (s *PGStore) CreateOrganization(ctx context.Context, name, ownerID string) (Organization, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Organization{}, fmt.Errorf("org: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	var o Organization
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Organization{}, fmt.Errorf("org: insert organization: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, o.ID, ownerID, RoleOwner); err != nil {
		return Organization{}, fmt.Errorf("org: insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Organization{}, fmt.Errorf("org: commit create: %w", err)
	}
	return o, nil
}

// GetOrganization retrieves an organization by ID.
func (s *PGStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	var o Organization
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, ErrOrganizationNotFound
		}
		return Organization{}, fmt.Errorf("org: get organization: %w", err)
	}
	return o, nil
}

// ListUserOrganizations returns every organization the user belongs to.
func (s *PGStore) ListUserOrganizations(ctx context.Context, userID string) ([]Organization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.name, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("org: list user organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("org: scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// GetMembership returns the membership of userID within organizationID.
func (s *PGStore) GetMembership(ctx context.Context, organizationID, userID string) (Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM organization_members WHERE organization_id = $1 AND user_id = $2`, membershipColumns)
	m, err := scanMembership(s.pool.QueryRow(ctx, query, organizationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrMembershipNotFound
		}
		return Membership{}, fmt.Errorf("org: get membership: %w", err)
	}
	return m, nil
}

// ListMembers returns all memberships of an organization.
func (s *PGStore) ListMembers(ctx context.Context, organizationID string) ([]Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM organization_members WHERE organization_id = $1 ORDER BY created_at`, membershipColumns)
	rows, err := s.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("org: list members: %w", err)
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("org: scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts a membership row.
func (s *PGStore) AddMember(ctx context.Context, organizationID, userID string, role Role) (Membership, error) {
	query := fmt.Sprintf(`
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING %s`, membershipColumns)
	m, err := scanMembership(s.pool.QueryRow(ctx, query, organizationID, userID, role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Membership{}, ErrDuplicateMembership
		}
		return Membership{}, fmt.Errorf("org: add member: %w", err)
	}
	return m, nil
}

// UpdateMemberRole changes the role on an existing membership.
func (s *PGStore) UpdateMemberRole(ctx context.Context, organizationID, userID string, role Role) (Membership, error) {
	query := fmt.Sprintf(`
		UPDATE organization_members SET role = $3
		WHERE organization_id = $1 AND user_id = $2
		RETURNING %s`, membershipColumns)
	m, err := scanMembership(s.pool.QueryRow(ctx, query, organizationID, userID, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrMembershipNotFound
		}
		return Membership{}, fmt.Errorf("org: update member role: %w", err)
	}
	return m, nil
}

// RemoveMember deletes a membership row.
func (s *PGStore) RemoveMember(ctx context.Context, organizationID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2
	`, organizationID, userID)
	if err != nil {
		return fmt.Errorf("org: remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return Membership{}, err
	}
	return m, nil
}
