package service

import (
	"context"
	"fmt"

	"karya/internal/domain"
	"karya/internal/logger"
	"karya/internal/metrics"

	"github.com/hashicorp/go-multierror"
)

// QueuedMessage is one delivery from the work queue.
type QueuedMessage struct {
	ID   string
	Body []byte
}

// SendReminders publishes a reminder for every message. Messages are handled
// independently; the ids of the ones that failed to publish are returned so
// the queue can redeliver only those. A message that cannot be decoded will
// never succeed, so it is dropped rather than reported as failed.
func (s *TaskService) SendReminders(ctx context.Context, msgs []QueuedMessage) (failed []string, err error) {
	log := logger.WithContext(ctx)
	var errs *multierror.Error

	for _, m := range msgs {
		msg, derr := domain.DecodeReminderMessage(m.Body)
		if derr != nil {
			log.Warn("dropping undecodable reminder", "message_id", m.ID, "error", derr)
			metrics.RemindersPublished.WithLabelValues("notify", "dropped").Inc()
			continue
		}

		if perr := s.notifier.Publish(ctx, domain.FormatReminder(msg)); perr != nil {
			log.Error("failed to publish reminder", "message_id", m.ID, "task_id", msg.TaskID, "error", perr)
			metrics.RemindersPublished.WithLabelValues("notify", "error").Inc()
			failed = append(failed, m.ID)
			errs = multierror.Append(errs, fmt.Errorf("message %s: %w", m.ID, domain.Dependency("publish reminder", perr)))
			continue
		}
		metrics.RemindersPublished.WithLabelValues("notify", "ok").Inc()
		log.Info("reminder published", "message_id", m.ID, "owner_id", msg.OwnerID, "task_id", msg.TaskID, "source", msg.Source)
	}

	return failed, errs.ErrorOrNil()
}
