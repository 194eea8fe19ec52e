package function

import (
	"context"

	"karya/internal/logger"
	"karya/internal/service"

	"github.com/aws/aws-lambda-go/events"
)

// TaskScanner runs one scan per scheduled event. Per-task failures are part
// of the result; the invocation only fails when the table cannot be read.
func (h *Handlers) TaskScanner(ctx context.Context, ev events.CloudWatchEvent) (*service.ScanResult, error) {
	ctx = logger.NewContext(ctx, logger.With("event_id", ev.ID))
	res, err := h.Tasks.ScanDueTasks(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("scan failed", "error", err)
		return nil, err
	}
	if ferr := res.Err(); ferr != nil {
		logger.WithContext(ctx).Warn("scan finished with failures", "error", ferr)
	}
	return res, nil
}

// SendReminder publishes one reminder per record and reports the failed
// records so only those are redelivered.
func (h *Handlers) SendReminder(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	msgs := make([]service.QueuedMessage, 0, len(ev.Records))
	for _, r := range ev.Records {
		msgs = append(msgs, service.QueuedMessage{ID: r.MessageId, Body: []byte(r.Body)})
	}

	failed, err := h.Tasks.SendReminders(ctx, msgs)
	if err != nil {
		logger.WithContext(ctx).Warn("some reminders failed", "failed", len(failed), "error", err)
	}

	resp := events.SQSEventResponse{}
	for _, id := range failed {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return resp, nil
}
