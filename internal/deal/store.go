package deal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atriumcrm/atrium/internal/activity"
)

// ErrNotFound signals that the deal does not exist in the given organization.
var ErrNotFound = errors.New("deal: not found")

// Store is the persistence interface for deals.
type Store interface {
	Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Deal, error)
	GetInOrg(ctx context.Context, dealID, organizationID string) (Deal, error)
	ExistsInOrg(ctx context.Context, dealID, organizationID string) (bool, error)
	List(ctx context.Context, organizationID string, f ListFilters) ([]Deal, error)
	ApplyUpdate(ctx context.Context, dealID string, u Update, activities []activity.NewActivity) (Deal, error)
	SummaryByStatus(ctx context.Context, organizationID string, cutoff time.Time) ([]StatusAggregate, error)
	FunnelCounts(ctx context.Context, organizationID string) ([]StageStatusCount, error)
}

const dealColumns = `id, organization_id, contact_id, owner_id, title, amount_cents, currency, status, stage, created_at, updated_at`

// sortColumns is the allow-list of sortable fields. Unrecognized values fall
// back to created_at.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"amount":     "amount_cents",
	"title":      "title",
}

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed deal store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts a new deal.
func (s *PGStore) Create(ctx context.Context, in CreateInput, organizationID, ownerID string) (Deal, error) {
	query := fmt.Sprintf(`
		INSERT INTO deals (organization_id, contact_id, owner_id, title, amount_cents, currency, status, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, dealColumns)

	d, err := scanDeal(s.pool.QueryRow(ctx, query,
		organizationID, in.ContactID, ownerID, in.Title, int64(in.Amount), in.Currency, in.Status, in.Stage))
	if err != nil {
		return Deal{}, fmt.Errorf("deal: create: %w", err)
	}
	return d, nil
}

// GetInOrg fetches a deal scoped to an organization. Deals from other
// organizations are indistinguishable from missing ones.
func (s *PGStore) GetInOrg(ctx context.Context, dealID, organizationID string) (Deal, error) {
	query := fmt.Sprintf(`SELECT %s FROM deals WHERE id = $1 AND organization_id = $2`, dealColumns)
	d, err := scanDeal(s.pool.QueryRow(ctx, query, dealID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deal{}, ErrNotFound
		}
		return Deal{}, fmt.Errorf("deal: get in org: %w", err)
	}
	return d, nil
}

// ExistsInOrg reports whether a deal exists within the organization.
func (s *PGStore) ExistsInOrg(ctx context.Context, dealID, organizationID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deals WHERE id = $1 AND organization_id = $2)`,
		dealID, organizationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("deal: exists in org: %w", err)
	}
	return exists, nil
}

// List returns deals matching the filters, sorted and paginated.
func (s *PGStore) List(ctx context.Context, organizationID string, f ListFilters) ([]Deal, error) {
	args := []any{organizationID}
	argIdx := 2
	whereClauses := []string{"organization_id = $1"}

	if f.OwnerID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, f.OwnerID)
		argIdx++
	}
	if len(f.Statuses) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("status = ANY($%d)", argIdx))
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		argIdx++
	}
	if f.Stage != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, f.Stage)
		argIdx++
	}
	if f.MinAmount != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("amount_cents >= $%d", argIdx))
		args = append(args, int64(*f.MinAmount))
		argIdx++
	}
	if f.MaxAmount != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("amount_cents <= $%d", argIdx))
		args = append(args, int64(*f.MaxAmount))
		argIdx++
	}

	orderColumn, ok := sortColumns[f.OrderBy]
	if !ok {
		orderColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM deals WHERE %s ORDER BY %s %s OFFSET %d LIMIT %d`,
		dealColumns, strings.Join(whereClauses, " AND "), orderColumn, direction, f.Offset, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("deal: list: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("deal: scan row: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// ApplyUpdate writes the changed fields and the scheduled transition
// activities in a single transaction, so both commit together or not at all.
func (s *PGStore) ApplyUpdate(ctx context.Context, dealID string, u Update, activities []activity.NewActivity) (Deal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Deal{}, fmt.Errorf("deal: begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var setClauses []string
	var args []any
	argIdx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if u.Title != nil {
		appendSet("title", *u.Title)
	}
	if u.ContactID != nil {
		appendSet("contact_id", *u.ContactID)
	}
	if u.Amount != nil {
		appendSet("amount_cents", int64(*u.Amount))
	}
	if u.Currency != nil {
		appendSet("currency", *u.Currency)
	}
	if u.Status != nil {
		appendSet("status", *u.Status)
	}
	if u.Stage != nil {
		appendSet("stage", *u.Stage)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, dealID)
	query := fmt.Sprintf(`UPDATE deals SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, dealColumns)

	d, err := scanDeal(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deal{}, ErrNotFound
		}
		return Deal{}, fmt.Errorf("deal: update: %w", err)
	}

	for _, a := range activities {
		if err := activity.InsertTx(ctx, tx, a); err != nil {
			return Deal{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Deal{}, fmt.Errorf("deal: commit update: %w", err)
	}
	return d, nil
}

// SummaryByStatus groups the organization's deals by status in one pass,
// carrying the won-average and the new-in-window count as conditional
// aggregates on each row.
func (s *PGStore) SummaryByStatus(ctx context.Context, organizationID string, cutoff time.Time) ([]StatusAggregate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status,
		       COUNT(*) AS count,
		       COALESCE(SUM(amount_cents), 0) AS total_amount,
		       AVG(CASE WHEN status = 'won' THEN amount_cents END) AS avg_won,
		       SUM(CASE WHEN created_at >= $2 THEN 1 ELSE 0 END) AS new_in_window
		FROM deals
		WHERE organization_id = $1
		GROUP BY status
	`, organizationID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("deal: summary by status: %w", err)
	}
	defer rows.Close()

	var aggs []StatusAggregate
	for rows.Next() {
		var (
			a           StatusAggregate
			totalAmount int64
		)
		if err := rows.Scan(&a.Status, &a.Count, &totalAmount, &a.AvgWon, &a.NewInWindow); err != nil {
			return nil, fmt.Errorf("deal: scan summary row: %w", err)
		}
		a.TotalAmount = Amount(totalAmount)
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

// FunnelCounts groups the organization's deals by (stage, status).
func (s *PGStore) FunnelCounts(ctx context.Context, organizationID string) ([]StageStatusCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT stage, status, COUNT(*) AS count
		FROM deals
		WHERE organization_id = $1
		GROUP BY stage, status
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("deal: funnel counts: %w", err)
	}
	defer rows.Close()

	var counts []StageStatusCount
	for rows.Next() {
		var c StageStatusCount
		if err := rows.Scan(&c.Stage, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("deal: scan funnel row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanDeal(row pgx.Row) (Deal, error) {
	var (
		d           Deal
		amountCents int64
	)
	err := row.Scan(
		&d.ID,
		&d.OrganizationID,
		&d.ContactID,
		&d.OwnerID,
		&d.Title,
		&amountCents,
		&d.Currency,
		&d.Status,
		&d.Stage,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return Deal{}, err
	}
	d.Amount = Amount(amountCents)
	return d, nil
}
