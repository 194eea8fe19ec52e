// Package testutil provides in-memory collaborators for tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"karya/internal/domain"
	"karya/internal/update"
)

// FakeStore is an in-memory task table keyed by (owner_id, task_id).
type FakeStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task

	// Error injection for testing
	PutErr          error
	ListErr         error
	UpdateErr       error
	DeleteErr       error
	DueErr          error
	ListByStatusErr error

	// Updates records every request applied, in order.
	Updates []*update.Request
}

func NewFakeStore() *FakeStore {
	return &FakeStore{tasks: make(map[string]domain.Task)}
}

func key(ownerID, taskID string) string { return ownerID + "\x00" + taskID }

// Seed inserts tasks directly, deriving due keys.
func (f *FakeStore) Seed(tasks ...domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		_ = t.SetDue()
		f.tasks[key(t.OwnerID, t.TaskID)] = t
	}
}

// Get returns a stored task.
func (f *FakeStore) Get(ownerID, taskID string) (domain.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[key(ownerID, taskID)]
	return t, ok
}

// Len returns the number of stored tasks.
func (f *FakeStore) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

func (f *FakeStore) Put(ctx context.Context, t *domain.Task) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[key(t.OwnerID, t.TaskID)] = *t
	return nil
}

func (f *FakeStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.filter(func(t domain.Task) bool { return t.OwnerID == ownerID }), nil
}

func (f *FakeStore) Update(ctx context.Context, ownerID, taskID string, req *update.Request) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[key(ownerID, taskID)]
	if !ok {
		return domain.NotFound("update task", "task %s not found", taskID)
	}
	for name, value := range req.Fields() {
		str, _ := value.(string)
		switch name {
		case domain.AttrTitle:
			t.Title = str
		case domain.AttrDescription:
			t.Description = str
		case domain.AttrDueDate:
			t.DueDate = str
		case domain.AttrStatus:
			t.Status = str
		case domain.AttrDueOn:
			t.DueOn = str
		case domain.AttrDueMonth:
			t.DueMonth = str
		case domain.AttrAttachmentURL:
			if value == nil {
				t.AttachmentURL = nil
			} else {
				t.AttachmentURL = &str
			}
		}
	}
	f.tasks[key(ownerID, taskID)] = t
	f.Updates = append(f.Updates, req)
	return nil
}

func (f *FakeStore) Delete(ctx context.Context, ownerID, taskID string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, key(ownerID, taskID))
	return nil
}

func (f *FakeStore) DueWithin(ctx context.Context, w domain.Window) ([]domain.Task, error) {
	if f.DueErr != nil {
		return nil, f.DueErr
	}
	return f.filter(func(t domain.Task) bool {
		d, err := domain.ParseDueDate(t.DueDate)
		return err == nil && w.Contains(d)
	}), nil
}

func (f *FakeStore) ListByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	if f.ListByStatusErr != nil {
		return nil, f.ListByStatusErr
	}
	return f.filter(func(t domain.Task) bool { return t.Status == status }), nil
}

func (f *FakeStore) filter(keep func(domain.Task) bool) []domain.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// FakeQueue records sent messages. FailFor makes Send fail for specific task ids.
type FakeQueue struct {
	mu   sync.Mutex
	Sent []domain.ReminderMessage

	SendErr error
	FailFor map[string]error
}

func (q *FakeQueue) Send(ctx context.Context, msg domain.ReminderMessage) error {
	if q.SendErr != nil {
		return q.SendErr
	}
	if err := q.FailFor[msg.TaskID]; err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Sent = append(q.Sent, msg)
	return nil
}

// FakeNotifier records published reminders.
type FakeNotifier struct {
	mu        sync.Mutex
	Published []domain.Reminder

	PublishErr error
	FailFor    map[string]error
}

func (n *FakeNotifier) Publish(ctx context.Context, r domain.Reminder) error {
	if n.PublishErr != nil {
		return n.PublishErr
	}
	if err := n.FailFor[r.TaskID]; err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Published = append(n.Published, r)
	return nil
}

// FakeBlobs is an in-memory object store.
type FakeBlobs struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string

	PutErr    error
	DeleteErr error
}

func NewFakeBlobs() *FakeBlobs {
	return &FakeBlobs{Objects: make(map[string][]byte)}
}

func (b *FakeBlobs) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if b.PutErr != nil {
		return "", b.PutErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = append([]byte(nil), body...)
	return "https://test-bucket.s3.amazonaws.com/" + key, nil
}

func (b *FakeBlobs) Delete(ctx context.Context, key string) error {
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Objects, key)
	b.Deleted = append(b.Deleted, key)
	return nil
}

// FakeIdentity records identity provider calls.
type FakeIdentity struct {
	Calls []string

	CreateErr   error
	PasswordErr error
}

func (i *FakeIdentity) CreateUser(ctx context.Context, username, temporaryPassword string) error {
	i.Calls = append(i.Calls, "create:"+username)
	return i.CreateErr
}

func (i *FakeIdentity) SetPermanentPassword(ctx context.Context, username, password string) error {
	i.Calls = append(i.Calls, "password:"+username)
	return i.PasswordErr
}

// FakePolicies records stored policies.
type FakePolicies struct {
	Policies []domain.Policy
	PutErr   error
}

func (p *FakePolicies) PutPolicy(ctx context.Context, pol domain.Policy) error {
	if p.PutErr != nil {
		return p.PutErr
	}
	p.Policies = append(p.Policies, pol)
	return nil
}
