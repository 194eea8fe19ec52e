package service

import (
	"context"
	"fmt"

	"karya/internal/domain"
	"karya/internal/logger"
	"karya/internal/metrics"

	"github.com/hashicorp/go-multierror"
)

// ScanFailure records a task whose reminder could not be queued.
type ScanFailure struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
	Error   string `json:"error"`
}

type ScanResult struct {
	Matched   int           `json:"matched"`
	Published int           `json:"published"`
	Swept     int           `json:"swept"`
	Failed    int           `json:"failed"`
	Failures  []ScanFailure `json:"failures,omitempty"`

	errs *multierror.Error
}

// Err aggregates the per-item failures, nil when every item went through.
func (r *ScanResult) Err() error {
	return r.errs.ErrorOrNil()
}

func (r *ScanResult) fail(t domain.Task, err error) {
	r.Failed++
	r.Failures = append(r.Failures, ScanFailure{OwnerID: t.OwnerID, TaskID: t.TaskID, Error: err.Error()})
	r.errs = multierror.Append(r.errs, fmt.Errorf("task %s/%s: %w", t.OwnerID, t.TaskID, err))
}

// ScanDueTasks queues a reminder for every task due within the look-ahead
// window, then retries tasks whose creation-time reminder was lost. Each item
// is attempted independently; the returned error is only set when the due
// tasks could not be listed at all.
func (s *TaskService) ScanDueTasks(ctx context.Context) (*ScanResult, error) {
	const op = "scan due tasks"
	log := logger.WithContext(ctx)

	window := domain.LookaheadWindow(s.now(), s.lookahead)
	tasks, err := s.store.DueWithin(ctx, window)
	if err != nil {
		metrics.TaskOps.WithLabelValues("scan", "error").Inc()
		return nil, domain.Dependency(op, err)
	}

	res := &ScanResult{Matched: len(tasks)}
	metrics.ScanMatched.Add(float64(len(tasks)))

	queued := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Status == domain.StatusReminderPending {
			t.Status = domain.StatusPending
		}
		if err := s.queue.Send(ctx, domain.NewReminderMessage(t, domain.SourceScan)); err != nil {
			log.Warn("failed to queue due task", "owner_id", t.OwnerID, "task_id", t.TaskID, "error", err)
			metrics.RemindersPublished.WithLabelValues("scan", "error").Inc()
			res.fail(t, err)
			continue
		}
		metrics.RemindersPublished.WithLabelValues("scan", "ok").Inc()
		queued[taskKey(t)] = true
		res.Published++
	}

	s.sweep(ctx, res, queued)

	metrics.TaskOps.WithLabelValues("scan", metrics.Outcome(res.Err())).Inc()
	log.Info("scan finished",
		"from", domain.DueOn(window.From), "to", domain.DueOn(window.To),
		"matched", res.Matched, "published", res.Published, "swept", res.Swept, "failed", res.Failed)
	return res, nil
}

func taskKey(t domain.Task) string { return t.OwnerID + "/" + t.TaskID }

// sweep re-queues tasks left in ReminderPending and restores them to Pending.
// Tasks in queued already got their reminder from the due loop and only have
// their status restored.
func (s *TaskService) sweep(ctx context.Context, res *ScanResult, queued map[string]bool) {
	log := logger.WithContext(ctx)

	pending, err := s.store.ListByStatus(ctx, domain.StatusReminderPending)
	if err != nil {
		log.Error("failed to list reminder-pending tasks", "error", err)
		res.errs = multierror.Append(res.errs, domain.Dependency("sweep", err))
		return
	}

	for _, t := range pending {
		t.Status = domain.StatusPending
		if !queued[taskKey(t)] {
			if err := s.queue.Send(ctx, domain.NewReminderMessage(t, domain.SourceSweep)); err != nil {
				metrics.RemindersPublished.WithLabelValues("sweep", "error").Inc()
				res.fail(t, err)
				continue
			}
			metrics.RemindersPublished.WithLabelValues("sweep", "ok").Inc()
		}
		if err := s.setStatus(ctx, t.OwnerID, t.TaskID, domain.StatusPending); err != nil {
			// queued already; the task stays marked and may be swept twice
			log.Warn("failed to restore task status", "owner_id", t.OwnerID, "task_id", t.TaskID, "error", err)
		}
		res.Swept++
	}
}
