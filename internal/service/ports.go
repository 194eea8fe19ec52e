package service

import (
	"context"

	"karya/internal/domain"
	"karya/internal/update"
)

// TaskStore is the key-value table of tasks keyed by (owner_id, task_id).
type TaskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	// Update applies req to an existing task; a missing task is a not-found error.
	Update(ctx context.Context, ownerID, taskID string, req *update.Request) error
	// Delete removes the task; deleting a missing task succeeds.
	Delete(ctx context.Context, ownerID, taskID string) error
	DueWithin(ctx context.Context, w domain.Window) ([]domain.Task, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Task, error)
}

// Queue carries reminder candidates to the reminder sender.
type Queue interface {
	Send(ctx context.Context, msg domain.ReminderMessage) error
}

// Notifier publishes formatted reminders.
type Notifier interface {
	Publish(ctx context.Context, r domain.Reminder) error
}

// BlobStore stores attachment bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// IdentityProvider manages user identities.
type IdentityProvider interface {
	CreateUser(ctx context.Context, username, temporaryPassword string) error
	SetPermanentPassword(ctx context.Context, username, password string) error
}

// PolicyStore persists authorizer policies.
type PolicyStore interface {
	PutPolicy(ctx context.Context, p domain.Policy) error
}
