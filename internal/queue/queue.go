// Package queue carries reminder messages between the producers (create
// task, scanner) and the reminder sender.
package queue

import (
	"context"
	"time"

	"karya/internal/service"
)

// Delivery is a received message plus the handle needed to settle it.
type Delivery struct {
	Message service.QueuedMessage
	Handle  string
}

// Consumer receives and settles messages. Ack removes a message for good,
// Nack makes it visible again for another attempt.
type Consumer interface {
	Receive(ctx context.Context, max int, wait time.Duration) ([]Delivery, error)
	Ack(ctx context.Context, d Delivery) error
	Nack(ctx context.Context, d Delivery) error
}
