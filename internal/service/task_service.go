package service

import (
	"context"
	"strings"
	"time"

	"karya/internal/domain"
	"karya/internal/logger"
	"karya/internal/metrics"
	"karya/internal/update"

	"github.com/google/uuid"
)

// Deps are the collaborators a TaskService talks to. A function that never
// touches a collaborator may leave it nil.
type Deps struct {
	Store    TaskStore
	Queue    Queue
	Notifier Notifier
	Blobs    BlobStore
}

// Settings tune the scanner.
type Settings struct {
	LookaheadDays int
}

// TaskService implements the task operations on top of injected collaborators.
type TaskService struct {
	store    TaskStore
	queue    Queue
	notifier Notifier
	blobs    BlobStore

	lookahead int
	now       func() time.Time
	newID     func() string
}

func NewTaskService(d Deps, s Settings) *TaskService {
	lookahead := s.LookaheadDays
	if lookahead <= 0 {
		lookahead = 5
	}
	return &TaskService{
		store:     d.Store,
		queue:     d.Queue,
		notifier:  d.Notifier,
		blobs:     d.Blobs,
		lookahead: lookahead,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
}

type CreateTaskResult struct {
	TaskID string
	// ReminderPending is set when the task was stored but its reminder could
	// not be queued; the next scan sweep retries it.
	ReminderPending bool
	// ReminderLost is set when the task could not be marked for the sweep
	// either, so no reminder will be sent unless the task is updated.
	ReminderLost bool
}

// CreateTask stores a new Pending task and queues its reminder candidate.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (res *CreateTaskResult, err error) {
	const op = "create task"
	defer func() { metrics.TaskOps.WithLabelValues("create", metrics.Outcome(err)).Inc() }()

	if ownerID == "" {
		return nil, domain.Validation(op, "missing owner id")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validation(op, "title is required")
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, domain.Validation(op, "due_date is required")
	}

	task := &domain.Task{
		OwnerID:     ownerID,
		TaskID:      s.newID(),
		Title:       title,
		Description: in.Description,
		DueDate:     strings.TrimSpace(in.DueDate),
		Status:      domain.StatusPending,
	}
	if err := task.SetDue(); err != nil {
		return nil, domain.Validation(op, "due_date %q is not a date (use MM/DD/YYYY or YYYY-MM-DD)", in.DueDate)
	}

	log := logger.WithContext(ctx).With("owner_id", ownerID, "task_id", task.TaskID)

	if err := s.store.Put(ctx, task); err != nil {
		return nil, domain.Dependency(op, err)
	}

	res = &CreateTaskResult{TaskID: task.TaskID}
	if err := s.queue.Send(ctx, domain.NewReminderMessage(*task, domain.SourceCreated)); err != nil {
		log.Warn("reminder enqueue failed, marking task for sweep", "error", err)
		metrics.RemindersPublished.WithLabelValues("enqueue", "error").Inc()
		res.ReminderPending = true
		if err := s.setStatus(ctx, ownerID, task.TaskID, domain.StatusReminderPending); err != nil {
			log.Error("reminder lost: failed to mark task reminder pending", "error", err)
			metrics.RemindersPublished.WithLabelValues("enqueue", "lost").Inc()
			res.ReminderLost = true
		}
		return res, nil
	}
	metrics.RemindersPublished.WithLabelValues("enqueue", "ok").Inc()

	log.Info("task created")
	return res, nil
}

// ListTasks returns every task owned by ownerID. The slice is never nil.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string) (tasks []domain.Task, err error) {
	const op = "list tasks"
	defer func() { metrics.TaskOps.WithLabelValues("list", metrics.Outcome(err)).Inc() }()

	if ownerID == "" {
		return nil, domain.Validation(op, "missing owner id")
	}
	tasks, err = s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Dependency(op, err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// UpdateTask applies a partial update to an existing task.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, fields map[string]any) (err error) {
	const op = "update task"
	defer func() { metrics.TaskOps.WithLabelValues("update", metrics.Outcome(err)).Inc() }()

	if ownerID == "" || taskID == "" {
		return domain.Validation(op, "missing owner or task id")
	}

	req, err := update.Build(fields)
	if err != nil {
		return err
	}
	for name, value := range fields {
		if !domain.MutableFields[name] {
			return domain.Validation(op, "field %q is not updatable", name)
		}
		str, ok := value.(string)
		if !ok {
			return domain.Validation(op, "field %q must be a string", name)
		}
		switch name {
		case domain.AttrTitle, domain.AttrStatus:
			if strings.TrimSpace(str) == "" {
				return domain.Validation(op, "field %q must not be empty", name)
			}
		case domain.AttrDueDate:
			d, perr := domain.ParseDueDate(str)
			if perr != nil {
				return domain.Validation(op, "due_date %q is not a date", str)
			}
			if req, err = req.With(domain.AttrDueOn, domain.DueOn(d)); err != nil {
				return err
			}
			if req, err = req.With(domain.AttrDueMonth, domain.DueMonth(d)); err != nil {
				return err
			}
		}
	}

	if err := s.store.Update(ctx, ownerID, taskID, req); err != nil {
		return domain.Dependency(op, err)
	}
	logger.WithContext(ctx).Info("task updated", "owner_id", ownerID, "task_id", taskID, "expression", req.Expression())
	return nil
}

// DeleteTask removes a task. Deleting a missing task is not an error.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) (err error) {
	const op = "delete task"
	defer func() { metrics.TaskOps.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()

	if ownerID == "" || taskID == "" {
		return domain.Validation(op, "missing owner or task id")
	}
	if err := s.store.Delete(ctx, ownerID, taskID); err != nil {
		return domain.Dependency(op, err)
	}
	logger.WithContext(ctx).Info("task deleted", "owner_id", ownerID, "task_id", taskID)
	return nil
}

func (s *TaskService) setStatus(ctx context.Context, ownerID, taskID, status string) error {
	req, err := update.Build(map[string]any{domain.AttrStatus: status})
	if err != nil {
		return err
	}
	return s.store.Update(ctx, ownerID, taskID, req)
}
