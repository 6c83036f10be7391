// Package memqueue provides an in-process implementation of the job queue
// port. It mirrors the retry semantics of the RabbitMQ adapter, exponential
// backoff up to an attempt limit and a dead letter buffer after that, so
// local runs and tests exercise the same at-least-once behavior as
// production.
package memqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/ports"

	"github.com/google/uuid"
)

const defaultBufferSize = 1024

// Options tunes the retry behavior of the queue.
type Options struct {
	// MaxAttempts is the total number of deliveries before a job moves to
	// the dead letter buffer.
	MaxAttempts int

	// BaseDelay is the delay before the first redelivery; it doubles on
	// every further attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// JobTimeout bounds a single handler invocation. A job still running when
	// the timeout elapses counts as failed and goes through the retry policy.
	JobTimeout time.Duration
}

// DefaultOptions returns the retry settings used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		JobTimeout:  time.Minute,
	}
}

// Queue is an in-memory, at-least-once job queue. Jobs do not survive process
// restarts; production uses the RabbitMQ adapter instead.
type Queue struct {
	opts   Options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	topics   map[string]chan ports.Job
	handlers map[string]ports.JobHandler
	dead     []ports.Job
	closed   bool
}

// New creates an in-memory queue with the given retry options.
func New(opts Options, logger *slog.Logger) *Queue {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultOptions().BaseDelay
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = DefaultOptions().MaxDelay
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultOptions().JobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		opts:     opts,
		logger:   logger.With("component", "memqueue"),
		ctx:      ctx,
		cancel:   cancel,
		topics:   make(map[string]chan ports.Job),
		handlers: make(map[string]ports.JobHandler),
	}
}

// Enqueue publishes a job for the topic. Jobs enqueued before Subscribe are
// buffered and delivered once a handler registers.
func (q *Queue) Enqueue(ctx context.Context, topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	body := make([]byte, len(payload))
	copy(body, payload)

	job := ports.Job{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: body,
		Attempt: 1,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	}
	jobs := q.topicChan(topic)
	q.mu.Unlock()

	select {
	case jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return fmt.Errorf("queue is closed")
	}
}

// Subscribe registers the handler for a topic and starts delivery. One
// handler per topic; registering twice is an error.
func (q *Queue) Subscribe(topic string, handler ports.JobHandler) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if _, exists := q.handlers[topic]; exists {
		return fmt.Errorf("topic %q already has a handler", topic)
	}

	q.handlers[topic] = handler
	jobs := q.topicChan(topic)

	q.wg.Add(1)
	go q.worker(topic, jobs, handler)

	return nil
}

// Close stops delivery and waits for the topic workers to drain. A handler
// invocation past its timeout is abandoned rather than waited on.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}

// DeadLetters returns a copy of the jobs that exhausted their attempts.
func (q *Queue) DeadLetters() []ports.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]ports.Job, len(q.dead))
	copy(out, q.dead)
	return out
}

// topicChan returns the topic's buffer, creating it on first use. Callers
// must hold q.mu.
func (q *Queue) topicChan(topic string) chan ports.Job {
	jobs, ok := q.topics[topic]
	if !ok {
		jobs = make(chan ports.Job, defaultBufferSize)
		q.topics[topic] = jobs
	}
	return jobs
}

func (q *Queue) worker(topic string, jobs chan ports.Job, handler ports.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-jobs:
			if err := q.invoke(handler, job); err != nil {
				if q.ctx.Err() != nil {
					return
				}
				q.retryOrBury(topic, jobs, job, err)
			}
		}
	}
}

// invoke runs the handler under the configured job timeout. The handler gets
// its own goroutine so a handler that ignores its context cannot stall the
// topic worker; the abandoned invocation keeps running but its job is already
// back in the retry path.
func (q *Queue) invoke(handler ports.JobHandler, job ports.Job) error {
	ctx, cancel := context.WithTimeout(q.ctx, q.opts.JobTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- handler(ctx, job)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if q.ctx.Err() != nil {
			return q.ctx.Err()
		}
		return fmt.Errorf("job handler exceeded %s: %w", q.opts.JobTimeout, context.DeadlineExceeded)
	}
}

func (q *Queue) retryOrBury(topic string, jobs chan ports.Job, job ports.Job, cause error) {
	if job.Attempt >= q.opts.MaxAttempts {
		q.logger.Error("job exhausted all attempts, moving to dead letter buffer",
			"topic", topic,
			"job_id", job.ID,
			"attempts", job.Attempt,
			"payload", string(job.Payload),
			"error", cause)

		q.mu.Lock()
		q.dead = append(q.dead, job)
		q.mu.Unlock()
		return
	}

	delay := q.backoff(job.Attempt)
	next := job
	next.Attempt++

	q.logger.Warn("job failed, scheduling retry",
		"topic", topic,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"retry_in", delay,
		"error", cause)

	time.AfterFunc(delay, func() {
		select {
		case jobs <- next:
		case <-q.ctx.Done():
		}
	})
}

// backoff doubles the base delay per attempt already made, capped at MaxDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.opts.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.opts.MaxDelay {
			return q.opts.MaxDelay
		}
	}
	if delay > q.opts.MaxDelay {
		return q.opts.MaxDelay
	}
	return delay
}
