package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"karya/internal/queue"
	"karya/internal/service"
	"karya/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	mu        sync.Mutex
	batches   [][]queue.Delivery
	acked     []string
	nacked    []string
	recovered bool
}

func (f *fakeConsumer) Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		time.Sleep(wait)
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeConsumer) Ack(ctx context.Context, d queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, d.Message.ID)
	return nil
}

func (f *fakeConsumer) Nack(ctx context.Context, d queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, d.Message.ID)
	return nil
}

func (f *fakeConsumer) Recover(ctx context.Context) (int, error) {
	f.recovered = true
	return 0, nil
}

type fakeSender struct {
	fail []string
}

func (s *fakeSender) SendReminders(ctx context.Context, msgs []service.QueuedMessage) ([]string, error) {
	if len(s.fail) > 0 {
		return s.fail, errors.New("partial failure")
	}
	return nil, nil
}

func delivery(id string) queue.Delivery {
	return queue.Delivery{Message: service.QueuedMessage{ID: id}, Handle: "h-" + id}
}

func TestPollSettlesEachDelivery(t *testing.T) {
	c := &fakeConsumer{batches: [][]queue.Delivery{{delivery("m1"), delivery("m2"), delivery("m3")}}}
	w := NewReminderWorker(c, &fakeSender{fail: []string{"m2"}}, time.Millisecond)

	nacked, err := w.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, nacked)
	assert.Equal(t, []string{"m1", "m3"}, c.acked)
	assert.Equal(t, []string{"m2"}, c.nacked)
}

func TestRunStopsOnCancel(t *testing.T) {
	c := &fakeConsumer{batches: [][]queue.Delivery{{delivery("m1")}}}
	w := NewReminderWorker(c, &fakeSender{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.acked) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, c.recovered)
}

// requeueConsumer hands out deliveries in order and puts nacked ones back at
// the end, the way the list queue does.
type requeueConsumer struct {
	mu       sync.Mutex
	pending  []queue.Delivery
	receives int
	acked    []string
}

func (c *requeueConsumer) Receive(ctx context.Context, max int, wait time.Duration) ([]queue.Delivery, error) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		time.Sleep(wait)
		return nil, nil
	}
	defer c.mu.Unlock()
	c.receives++
	n := min(max, len(c.pending))
	out := append([]queue.Delivery(nil), c.pending[:n]...)
	c.pending = c.pending[n:]
	return out, nil
}

func (c *requeueConsumer) Ack(ctx context.Context, d queue.Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, d.Message.ID)
	return nil
}

func (c *requeueConsumer) Nack(ctx context.Context, d queue.Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, d)
	return nil
}

func (c *requeueConsumer) snapshot() (receives, queued int, acked []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receives, len(c.pending), append([]string(nil), c.acked...)
}

func runFor(w *ReminderWorker, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	w.Run(ctx)
}

func TestUndecodableReminderIsAcked(t *testing.T) {
	c := &requeueConsumer{pending: []queue.Delivery{
		{Message: service.QueuedMessage{ID: "m1", Body: []byte("not json")}, Handle: "h1"},
	}}
	notifier := &testutil.FakeNotifier{}
	svc := service.NewTaskService(service.Deps{Notifier: notifier}, service.Settings{})
	w := NewReminderWorker(c, svc, time.Millisecond)

	runFor(w, 200*time.Millisecond)

	receives, queued, acked := c.snapshot()
	assert.Equal(t, 1, receives)
	assert.Zero(t, queued)
	assert.Equal(t, []string{"m1"}, acked)
	assert.Empty(t, notifier.Published)
}

func TestFailingReminderIsRetriedWithDelay(t *testing.T) {
	c := &requeueConsumer{pending: []queue.Delivery{
		{Message: service.QueuedMessage{ID: "m1", Body: []byte(`{"version":1,"owner_id":"u1","task_id":"t1"}`)}, Handle: "h1"},
	}}
	notifier := &testutil.FakeNotifier{PublishErr: errors.New("topic unavailable")}
	svc := service.NewTaskService(service.Deps{Notifier: notifier}, service.Settings{})
	w := NewReminderWorker(c, svc, time.Millisecond)
	w.retryDelay = 50 * time.Millisecond

	runFor(w, 200*time.Millisecond)

	receives, queued, acked := c.snapshot()
	assert.GreaterOrEqual(t, receives, 2)
	assert.LessOrEqual(t, receives, 5)
	assert.Equal(t, 1, queued)
	assert.Empty(t, acked)
}

type countingScanner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingScanner) ScanDueTasks(ctx context.Context) (*service.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &service.ScanResult{}, nil
}

func (s *countingScanner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunScanner(t *testing.T) {
	s := &countingScanner{err: errors.New("table missing")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunScanner(ctx, s, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
