package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the contact does not exist in the given
// organization.
var ErrNotFound = errors.New("contact: not found")

// Store is the persistence interface for contacts.
type Store interface {
	Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Contact, error)
	GetInOrg(ctx context.Context, contactID, organizationID string) (Contact, error)
	ExistsInOrg(ctx context.Context, contactID, organizationID string) (bool, error)
	List(ctx context.Context, organizationID string, f ListFilters) ([]Contact, error)
	Update(ctx context.Context, contactID string, u Update) (Contact, error)
	Delete(ctx context.Context, contactID string) error
	HasDeals(ctx context.Context, contactID string) (bool, error)
}

const contactColumns = `id, organization_id, owner_id, name, email, phone, created_at, updated_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed contact store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts a new contact.
func (s *PGStore) Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Contact, error) {
	query := fmt.Sprintf(`
		INSERT INTO contacts (organization_id, owner_id, name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, contactColumns)

	c, err := scanContact(s.pool.QueryRow(ctx, query, organizationID, ownerID, in.Name, in.Email, in.Phone))
	if err != nil {
		return Contact{}, fmt.Errorf("contact: create: %w", err)
	}
	return c, nil
}

// GetInOrg fetches a contact scoped to an organization.
func (s *PGStore) GetInOrg(ctx context.Context, contactID, organizationID string) (Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1 AND organization_id = $2`, contactColumns)
	c, err := scanContact(s.pool.QueryRow(ctx, query, contactID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("contact: get in org: %w", err)
	}
	return c, nil
}

// ExistsInOrg reports whether a contact exists within the organization.
func (s *PGStore) ExistsInOrg(ctx context.Context, contactID, organizationID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1 AND organization_id = $2)`,
		contactID, organizationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("contact: exists in org: %w", err)
	}
	return exists, nil
}

// List returns contacts matching the filters. Search matches name or email,
// case-insensitively.
func (s *PGStore) List(ctx context.Context, organizationID string, f ListFilters) ([]Contact, error) {
	args := []any{organizationID}
	argIdx := 2
	whereClauses := []string{"organization_id = $1"}

	if f.OwnerID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.Search != "" {
		whereClauses = append(whereClauses,
			fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s ORDER BY created_at DESC OFFSET %d LIMIT %d`,
		contactColumns, strings.Join(whereClauses, " AND "), f.Offset, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("contact: list: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("contact: scan row: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Update writes the changed fields.
func (s *PGStore) Update(ctx context.Context, contactID string, u Update) (Contact, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if u.Name != nil {
		appendSet("name", *u.Name)
	}
	if u.Email != nil {
		appendSet("email", *u.Email)
	}
	if u.Phone != nil {
		appendSet("phone", *u.Phone)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, contactID)
	query := fmt.Sprintf(`UPDATE contacts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, contactColumns)

	c, err := scanContact(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("contact: update: %w", err)
	}
	return c, nil
}

// Delete removes a contact.
func (s *PGStore) Delete(ctx context.Context, contactID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, contactID)
	if err != nil {
		return fmt.Errorf("contact: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasDeals reports whether any deal still references the contact.
func (s *PGStore) HasDeals(ctx context.Context, contactID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deals WHERE contact_id = $1)`, contactID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("contact: has deals: %w", err)
	}
	return exists, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&c.OwnerID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}
