package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence interface for the append-only activity log.
type Store interface {
	Insert(ctx context.Context, in NewActivity) (Activity, error)
	ListByDeal(ctx context.Context, dealID string) ([]Activity, error)
}

const activityColumns = `id, deal_id, author_id, type, payload, created_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed activity store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert appends a single activity.
func (s *PGStore) Insert(ctx context.Context, in NewActivity) (Activity, error) {
	payload, err := marshalPayload(in.Payload)
	if err != nil {
		return Activity{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO activities (deal_id, author_id, type, payload)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING %s`, activityColumns)

	a, err := scanActivity(s.pool.QueryRow(ctx, query, in.DealID, in.AuthorID, in.Type, payload))
	if err != nil {
		return Activity{}, fmt.Errorf("activity: insert: %w", err)
	}
	return a, nil
}

// InsertTx appends an activity inside an existing transaction. Used by the
// deal service so transition records commit atomically with the field update.
func InsertTx(ctx context.Context, tx pgx.Tx, in NewActivity) error {
	payload, err := marshalPayload(in.Payload)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO activities (deal_id, author_id, type, payload)
		VALUES ($1, $2, $3, $4::jsonb)
	`, in.DealID, in.AuthorID, in.Type, payload); err != nil {
		return fmt.Errorf("activity: insert in tx: %w", err)
	}
	return nil
}

// ListByDeal returns a deal's timeline, newest first.
func (s *PGStore) ListByDeal(ctx context.Context, dealID string) ([]Activity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM activities WHERE deal_id = $1 ORDER BY created_at DESC`, activityColumns)
	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("activity: list by deal: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("activity: scan row: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("activity: marshal payload: %w", err)
	}
	return string(b), nil
}

func scanActivity(row pgx.Row) (Activity, error) {
	var (
		a       Activity
		payload []byte
	)
	err := row.Scan(&a.ID, &a.DealID, &a.AuthorID, &a.Type, &payload, &a.CreatedAt)
	if err != nil {
		return Activity{}, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return Activity{}, fmt.Errorf("activity: unmarshal payload: %w", err)
		}
	}
	if a.Payload == nil {
		a.Payload = map[string]any{}
	}
	return a, nil
}
