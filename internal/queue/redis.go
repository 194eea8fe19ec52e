package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"karya/internal/domain"
	"karya/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a reliable list queue: producers LPUSH onto key, the consumer
// atomically moves each item to key+":processing" and removes it from there
// once it has been handled.
type Redis struct {
	rdb        redis.Cmdable
	key        string
	processing string
}

func NewRedis(rdb redis.Cmdable, key string) *Redis {
	return &Redis{rdb: rdb, key: key, processing: key + ":processing"}
}

type envelope struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

func (q *Redis) Send(ctx context.Context, msg domain.ReminderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	raw, err := json.Marshal(envelope{ID: uuid.NewString(), Body: body})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

// Receive blocks up to wait for the first message, then drains up to max
// without blocking.
func (q *Redis) Receive(ctx context.Context, max int, wait time.Duration) ([]Delivery, error) {
	if max <= 0 {
		max = 10
	}
	// a zero timeout would block forever
	if wait <= 0 {
		wait = time.Second
	}

	first, err := q.rdb.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blmove %s: %w", q.key, err)
	}

	deliveries := []Delivery{decodeEnvelope(first)}
	for len(deliveries) < max {
		raw, err := q.rdb.LMove(ctx, q.key, q.processing, "RIGHT", "LEFT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return deliveries, fmt.Errorf("lmove %s: %w", q.key, err)
		}
		deliveries = append(deliveries, decodeEnvelope(raw))
	}
	return deliveries, nil
}

// decodeEnvelope never fails: a foreign item is handed on as is so the
// reminder sender reports it instead of it being stuck in processing.
func decodeEnvelope(raw string) Delivery {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.ID == "" {
		return Delivery{Message: service.QueuedMessage{ID: raw, Body: []byte(raw)}, Handle: raw}
	}
	return Delivery{Message: service.QueuedMessage{ID: env.ID, Body: env.Body}, Handle: raw}
}

func (q *Redis) Ack(ctx context.Context, d Delivery) error {
	if err := q.rdb.LRem(ctx, q.processing, 1, d.Handle).Err(); err != nil {
		return fmt.Errorf("lrem %s: %w", q.processing, err)
	}
	return nil
}

// Nack puts the delivery back at the producer end, behind everything already
// waiting.
func (q *Redis) Nack(ctx context.Context, d Delivery) error {
	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.processing, 1, d.Handle)
		p.LPush(ctx, q.key, d.Handle)
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	return nil
}

// Recover moves everything left in the processing list back onto the queue.
// Called once at worker start to pick up messages of a crashed consumer.
func (q *Redis) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		_, err := q.rdb.LMove(ctx, q.processing, q.key, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover %s: %w", q.processing, err)
		}
		n++
	}
}
