package memqueue_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memqueue"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(maxAttempts int) *memqueue.Queue {
	return memqueue.New(memqueue.Options{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}, slog.New(slog.DiscardHandler))
}

// jobRecorder collects deliveries and fails a configurable number of them.
type jobRecorder struct {
	mu       sync.Mutex
	failures int
	attempts []int
}

func (r *jobRecorder) handle(_ context.Context, job ports.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, job.Attempt)
	if len(r.attempts) <= r.failures {
		return errors.New("transient failure")
	}
	return nil
}

func (r *jobRecorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, len(r.attempts))
	copy(out, r.attempts)
	return out
}

func TestQueue_Enqueue(t *testing.T) {
	t.Run("should deliver a job to the subscribed handler", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		recorder := &jobRecorder{}
		require.NoError(t, queue.Subscribe("kitchen-order", recorder.handle))

		require.NoError(t, queue.Enqueue(context.Background(), "kitchen-order", []byte(`{"order":"1"}`)))

		require.Eventually(t, func() bool {
			return len(recorder.seen()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []int{1}, recorder.seen())
	})

	t.Run("should buffer jobs enqueued before the handler subscribes", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		require.NoError(t, queue.Enqueue(context.Background(), "notification", []byte("early")))

		recorder := &jobRecorder{}
		require.NoError(t, queue.Subscribe("notification", recorder.handle))

		require.Eventually(t, func() bool {
			return len(recorder.seen()) == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("should reject an empty topic", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		require.Error(t, queue.Enqueue(context.Background(), "", []byte("x")))
	})

	t.Run("should reject enqueue after close", func(t *testing.T) {
		queue := newTestQueue(3)
		require.NoError(t, queue.Close())

		require.Error(t, queue.Enqueue(context.Background(), "notification", []byte("x")))
	})
}

func TestQueue_Retries(t *testing.T) {
	t.Run("should redeliver with growing attempt counts until the handler succeeds", func(t *testing.T) {
		queue := newTestQueue(5)
		defer queue.Close()

		recorder := &jobRecorder{failures: 2}
		require.NoError(t, queue.Subscribe("kitchen-order", recorder.handle))
		require.NoError(t, queue.Enqueue(context.Background(), "kitchen-order", []byte("retry me")))

		require.Eventually(t, func() bool {
			return len(recorder.seen()) == 3
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []int{1, 2, 3}, recorder.seen())
		assert.Empty(t, queue.DeadLetters())
	})

	t.Run("should fail a handler that exceeds the job timeout and keep the worker alive", func(t *testing.T) {
		queue := memqueue.New(memqueue.Options{
			MaxAttempts: 2,
			BaseDelay:   time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
			JobTimeout:  5 * time.Millisecond,
		}, slog.New(slog.DiscardHandler))
		defer queue.Close()

		var mu sync.Mutex
		var attempts []int
		block := make(chan struct{})
		stuck := func(_ context.Context, job ports.Job) error {
			mu.Lock()
			attempts = append(attempts, job.Attempt)
			mu.Unlock()
			<-block
			return nil
		}

		require.NoError(t, queue.Subscribe("notification", stuck))
		require.NoError(t, queue.Enqueue(context.Background(), "notification", []byte("hung")))

		require.Eventually(t, func() bool {
			return len(queue.DeadLetters()) == 1
		}, time.Second, 5*time.Millisecond)
		close(block)

		mu.Lock()
		seen := append([]int(nil), attempts...)
		mu.Unlock()
		assert.Equal(t, []int{1, 2}, seen, "timed out deliveries still consume attempts")

		dead := queue.DeadLetters()[0]
		assert.Equal(t, "notification", dead.Topic)
		assert.Equal(t, 2, dead.Attempt)
	})

	t.Run("should move the job to the dead letter buffer after the attempt limit", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		recorder := &jobRecorder{failures: 10}
		require.NoError(t, queue.Subscribe("kitchen-order", recorder.handle))
		require.NoError(t, queue.Enqueue(context.Background(), "kitchen-order", []byte("poison")))

		require.Eventually(t, func() bool {
			return len(queue.DeadLetters()) == 1
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []int{1, 2, 3}, recorder.seen(), "attempt limit bounds deliveries")

		dead := queue.DeadLetters()[0]
		assert.Equal(t, "kitchen-order", dead.Topic)
		assert.Equal(t, []byte("poison"), dead.Payload)
		assert.Equal(t, 3, dead.Attempt)
	})
}

func TestQueue_Subscribe(t *testing.T) {
	t.Run("should reject a second handler for the same topic", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		recorder := &jobRecorder{}
		require.NoError(t, queue.Subscribe("notification", recorder.handle))
		require.Error(t, queue.Subscribe("notification", recorder.handle))
	})

	t.Run("should keep topics independent", func(t *testing.T) {
		queue := newTestQueue(3)
		defer queue.Close()

		first := &jobRecorder{}
		second := &jobRecorder{}
		require.NoError(t, queue.Subscribe("kitchen-order", first.handle))
		require.NoError(t, queue.Subscribe("notification", second.handle))

		require.NoError(t, queue.Enqueue(context.Background(), "kitchen-order", []byte("a")))
		require.NoError(t, queue.Enqueue(context.Background(), "notification", []byte("b")))

		require.Eventually(t, func() bool {
			return len(first.seen()) == 1 && len(second.seen()) == 1
		}, time.Second, 5*time.Millisecond)
	})
}

func TestQueue_Close(t *testing.T) {
	t.Run("should be idempotent", func(t *testing.T) {
		queue := newTestQueue(3)

		require.NoError(t, queue.Close())
		require.NoError(t, queue.Close())
	})
}
