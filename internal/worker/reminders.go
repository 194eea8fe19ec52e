package worker

import (
	"context"
	"errors"
	"time"

	"karya/internal/logger"
	"karya/internal/queue"
	"karya/internal/service"
)

// Sender is the reminder side of the task service.
type Sender interface {
	SendReminders(ctx context.Context, msgs []service.QueuedMessage) ([]string, error)
}

// Recoverer is implemented by queues that can requeue deliveries a crashed
// consumer left behind.
type Recoverer interface {
	Recover(ctx context.Context) (int, error)
}

type ReminderWorker struct {
	consumer queue.Consumer
	sender   Sender
	batch    int
	wait     time.Duration
	backoff  time.Duration
	// retryDelay is the pause after a batch that had to be nacked, so a
	// message that keeps failing is not redelivered in a tight loop.
	retryDelay time.Duration
}

func NewReminderWorker(c queue.Consumer, s Sender, wait time.Duration) *ReminderWorker {
	return &ReminderWorker{
		consumer:   c,
		sender:     s,
		batch:      10,
		wait:       wait,
		backoff:    5 * time.Second,
		retryDelay: 5 * time.Second,
	}
}

// Run drains the queue until ctx ends.
func (w *ReminderWorker) Run(ctx context.Context) {
	if r, ok := w.consumer.(Recoverer); ok {
		if n, err := r.Recover(ctx); err != nil {
			logger.Warn("failed to recover in-flight reminders", "error", err)
		} else if n > 0 {
			logger.Info("recovered in-flight reminders", "count", n)
		}
	}

	logger.Info("reminder worker started")
	for ctx.Err() == nil {
		retried, err := w.poll(ctx)
		if errors.Is(err, context.Canceled) {
			break
		}
		pause := time.Duration(0)
		if err != nil {
			logger.Error("reminder poll failed", "error", err)
			pause = w.backoff
		} else if retried > 0 {
			pause = w.retryDelay
		}
		if pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(pause):
			}
		}
	}
	logger.Info("reminder worker stopped")
}

// poll handles one batch: successful messages are acked, failed ones nacked
// for redelivery. It returns how many were nacked.
func (w *ReminderWorker) poll(ctx context.Context) (int, error) {
	deliveries, err := w.consumer.Receive(ctx, w.batch, w.wait)
	if err != nil {
		return 0, err
	}
	if len(deliveries) == 0 {
		return 0, nil
	}

	msgs := make([]service.QueuedMessage, 0, len(deliveries))
	for _, d := range deliveries {
		msgs = append(msgs, d.Message)
	}

	failed, err := w.sender.SendReminders(ctx, msgs)
	if err != nil {
		logger.Warn("some reminders failed", "failed", len(failed), "error", err)
	}
	retry := make(map[string]bool, len(failed))
	for _, id := range failed {
		retry[id] = true
	}

	nacked := 0
	for _, d := range deliveries {
		settle := w.consumer.Ack
		if retry[d.Message.ID] {
			settle = w.consumer.Nack
			nacked++
		}
		if err := settle(ctx, d); err != nil {
			logger.Error("failed to settle reminder", "message_id", d.Message.ID, "error", err)
		}
	}
	return nacked, nil
}
