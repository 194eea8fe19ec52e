// Package postgres implements the task store on PostgreSQL. Key columns are
// fixed; the remaining attributes live in a jsonb document so partial updates
// merge into it the same way they do on the key-value table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"karya/internal/domain"
	"karya/internal/update"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskStore struct {
	db *pgxpool.Pool
}

func NewTaskStore(db *pgxpool.Pool) *TaskStore {
	return &TaskStore{db: db}
}

// document is the jsonb shape of the non-key attributes.
type document struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	DueDate       string  `json:"due_date"`
	Status        string  `json:"status"`
	AttachmentURL *string `json:"attachment_url"`
	DueOn         string  `json:"due_on,omitempty"`
	DueMonth      string  `json:"due_month,omitempty"`
}

func toDocument(t *domain.Task) document {
	return document{
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate,
		Status:        t.Status,
		AttachmentURL: t.AttachmentURL,
		DueOn:         t.DueOn,
		DueMonth:      t.DueMonth,
	}
}

func nullableDate(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *TaskStore) Put(ctx context.Context, t *domain.Task) error {
	attrs, err := json.Marshal(toDocument(t))
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO tasks (owner_id, task_id, attrs, due_on)
		VALUES ($1, $2, $3::jsonb, $4::date)
		ON CONFLICT (owner_id, task_id) DO UPDATE
		SET attrs = EXCLUDED.attrs, due_on = EXCLUDED.due_on, updated_at = now()
	`, t.OwnerID, t.TaskID, attrs, nullableDate(t.DueOn))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return s.query(ctx, `
		SELECT owner_id, task_id, attrs FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at, task_id
	`, ownerID)
}

// Update merges req into the attribute document of an existing row.
func (s *TaskStore) Update(ctx context.Context, ownerID, taskID string, req *update.Request) error {
	fields := req.Fields()
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	dueOn, _ := fields[domain.AttrDueOn].(string)

	tag, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET attrs = attrs || $3::jsonb,
		    due_on = COALESCE($4::date, due_on),
		    updated_at = now()
		WHERE owner_id = $1 AND task_id = $2
	`, ownerID, taskID, patch, nullableDate(dueOn))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("update task", "task %s not found", taskID)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, taskID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND task_id = $2`, ownerID, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) DueWithin(ctx context.Context, w domain.Window) ([]domain.Task, error) {
	return s.query(ctx, `
		SELECT owner_id, task_id, attrs FROM tasks
		WHERE due_on BETWEEN $1::date AND $2::date
		ORDER BY due_on, owner_id, task_id
	`, domain.DueOn(w.From), domain.DueOn(w.To))
}

func (s *TaskStore) ListByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return s.query(ctx, `
		SELECT owner_id, task_id, attrs FROM tasks
		WHERE attrs->>'status' = $1
		ORDER BY owner_id, task_id
	`, status)
}

func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *TaskStore) query(ctx context.Context, sql string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var (
			t     domain.Task
			attrs []byte
		)
		if err := rows.Scan(&t.OwnerID, &t.TaskID, &attrs); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if err := decodeDocument(attrs, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func decodeDocument(attrs []byte, t *domain.Task) error {
	var doc document
	if err := json.Unmarshal(attrs, &doc); err != nil {
		return fmt.Errorf("decode task %s: %w", t.TaskID, err)
	}
	t.Title = doc.Title
	t.Description = doc.Description
	t.DueDate = doc.DueDate
	t.Status = doc.Status
	t.AttachmentURL = doc.AttachmentURL
	t.DueOn = doc.DueOn
	t.DueMonth = doc.DueMonth
	return nil
}
