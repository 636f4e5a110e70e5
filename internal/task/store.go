package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the task does not exist.
var ErrNotFound = errors.New("task: not found")

// Store is the persistence interface for tasks.
type Store interface {
	Create(ctx context.Context, in CreateInput, dealID string) (Task, error)
	Get(ctx context.Context, taskID string) (Task, error)
	List(ctx context.Context, organizationID string, f ListFilters) ([]Task, error)
	ListByDeal(ctx context.Context, dealID string) ([]Task, error)
	Update(ctx context.Context, taskID string, u Update) (Task, error)
	Delete(ctx context.Context, taskID string) error
}

const taskColumns = `id, deal_id, title, description, due_date, is_done, created_at`

// PGStore implements Store backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed task store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Create inserts a new task on a deal.
func (s *PGStore) Create(ctx context.Context, in CreateInput, dealID string) (Task, error) {
	query := fmt.Sprintf(`
		INSERT INTO tasks (deal_id, title, description, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, dealID, in.Title, in.Description, in.DueDate))
	if err != nil {
		return Task{}, fmt.Errorf("task: create: %w", err)
	}
	return t, nil
}

// Get fetches a task by ID.
func (s *PGStore) Get(ctx context.Context, taskID string) (Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	t, err := scanTask(s.pool.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("task: get: %w", err)
	}
	return t, nil
}

// List returns tasks matching the filters. The organization and owner filters
// apply through the owning deal.
func (s *PGStore) List(ctx context.Context, organizationID string, f ListFilters) ([]Task, error) {
	args := []any{organizationID}
	argIdx := 2
	whereClauses := []string{"d.organization_id = $1"}

	if f.OwnerID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("d.owner_id = $%d", argIdx))
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.DealID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("t.deal_id = $%d", argIdx))
		args = append(args, f.DealID)
		argIdx++
	}
	if f.OnlyOpen != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("t.is_done = $%d", argIdx))
		args = append(args, !*f.OnlyOpen)
		argIdx++
	}
	if f.DueBefore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("t.due_date <= $%d", argIdx))
		args = append(args, *f.DueBefore)
		argIdx++
	}
	if f.DueAfter != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("t.due_date >= $%d", argIdx))
		args = append(args, *f.DueAfter)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.deal_id, t.title, t.description, t.due_date, t.is_done, t.created_at
		FROM tasks t
		JOIN deals d ON d.id = t.deal_id
		WHERE %s
		ORDER BY t.created_at DESC
		OFFSET %d LIMIT %d`, strings.Join(whereClauses, " AND "), f.Offset, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("task: scan row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListByDeal returns every task on a deal.
func (s *PGStore) ListByDeal(ctx context.Context, dealID string) ([]Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE deal_id = $1 ORDER BY created_at DESC`, taskColumns)
	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("task: list by deal: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("task: scan row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update writes the changed fields.
func (s *PGStore) Update(ctx context.Context, taskID string, u Update) (Task, error) {
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
	if u.Description != nil {
		appendSet("description", *u.Description)
	}
	if u.DueDate != nil {
		appendSet("due_date", *u.DueDate)
	}
	if u.IsDone != nil {
		appendSet("is_done", *u.IsDone)
	}
	if len(setClauses) == 0 {
		return s.Get(ctx, taskID)
	}

	args = append(args, taskID)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("task: update: %w", err)
	}
	return t, nil
}

// Delete removes a task.
func (s *PGStore) Delete(ctx context.Context, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.DealID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.IsDone,
		&t.CreatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	return t, nil
}
