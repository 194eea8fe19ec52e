// Package worker runs the standalone server's background loops: the
// periodic due-date scan and the reminder queue consumer.
package worker

import (
	"context"
	"time"

	"karya/internal/logger"
	"karya/internal/service"
)

// Scanner is the scheduled trigger of the standalone deployment.
type Scanner interface {
	ScanDueTasks(ctx context.Context) (*service.ScanResult, error)
}

// RunScanner scans once immediately and then every interval until ctx ends.
func RunScanner(ctx context.Context, s Scanner, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("scanner started", "interval", interval)
	for {
		scanOnce(ctx, s)
		select {
		case <-ctx.Done():
			logger.Info("scanner stopped")
			return
		case <-ticker.C:
		}
	}
}

func scanOnce(ctx context.Context, s Scanner) {
	res, err := s.ScanDueTasks(ctx)
	if err != nil {
		logger.Error("scheduled scan failed", "error", err)
		return
	}
	if ferr := res.Err(); ferr != nil {
		logger.Warn("scheduled scan finished with failures", "failed", res.Failed, "error", ferr)
	}
}
