// Package rabbitmq provides the RabbitMQ-backed implementation of the job
// queue port. Jobs are published persistently, retried through a per-topic
// wait queue whose TTL implements the exponential backoff, and moved to a
// shared dead letter queue once the attempt limit is reached.
//
// Topology per topic:
//
//	dispatch (direct) --topic--> <topic>.q         consumed by the handler
//	dispatch.retry    --topic--> <topic>.wait      expires back into dispatch
//	dispatch.dlx      --topic--> dispatch.dlq      exhausted jobs
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	jobsExchange  = "dispatch"
	retryExchange = "dispatch.retry"
	deadExchange  = "dispatch.dlx"
	deadQueue     = "dispatch.dlq"

	attemptHeader = "x-attempt"
	prefetchCount = 8
)

// Options tunes the retry behavior of the queue. The same settings drive the
// in-memory adapter so both share one at-least-once contract.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

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

// Queue implements ports.JobQueue on top of RabbitMQ.
type Queue struct {
	opts   Options
	logger *slog.Logger

	conn *amqp.Connection

	pubMu sync.Mutex
	pubCh *amqp.Channel

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	declared  map[string]bool
	consumers map[string]*amqp.Channel
	closed    bool
}

// Dial connects to RabbitMQ and declares the shared exchanges and the dead
// letter queue.
func Dial(url string, opts Options, logger *slog.Logger) (*Queue, error) {
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

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		opts:      opts,
		logger:    logger.With("component", "rabbitmq"),
		conn:      conn,
		pubCh:     pubCh,
		ctx:       ctx,
		cancel:    cancel,
		declared:  make(map[string]bool),
		consumers: make(map[string]*amqp.Channel),
	}

	if err = q.declareShared(); err != nil {
		q.cancel()
		_ = pubCh.Close()
		_ = conn.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declareShared() error {
	for _, exchange := range []string{jobsExchange, retryExchange, deadExchange} {
		if err := q.pubCh.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	if _, err := q.pubCh.QueueDeclare(deadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	return nil
}

// declareTopic sets up the work and wait queues for a topic. Idempotent.
func (q *Queue) declareTopic(topic string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.declared[topic] {
		return nil
	}

	workQueue := topic + ".q"
	waitQueue := topic + ".wait"

	_, err := q.pubCh.QueueDeclare(workQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    deadExchange,
		"x-dead-letter-routing-key": topic,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", workQueue, err)
	}
	if err = q.pubCh.QueueBind(workQueue, topic, jobsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", workQueue, err)
	}

	// Messages parked here expire back into the work queue; the per-message
	// TTL is the backoff delay.
	_, err = q.pubCh.QueueDeclare(waitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    jobsExchange,
		"x-dead-letter-routing-key": topic,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", waitQueue, err)
	}
	if err = q.pubCh.QueueBind(waitQueue, topic, retryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", waitQueue, err)
	}

	if err = q.pubCh.QueueBind(deadQueue, topic, deadExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue for %s: %w", topic, err)
	}

	q.declared[topic] = true
	return nil
}

// Enqueue publishes a persistent job for the topic.
func (q *Queue) Enqueue(ctx context.Context, topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	if err := q.declareTopic(topic); err != nil {
		return err
	}

	return q.publish(ctx, jobsExchange, topic, uuid.NewString(), 1, "", payload)
}

func (q *Queue) publish(
	ctx context.Context,
	exchange, topic, messageID string,
	attempt int,
	expiration string,
	payload []byte,
) error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	return q.pubCh.PublishWithContext(ctx, exchange, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		MessageId:    messageID,
		Expiration:   expiration,
		Headers:      amqp.Table{attemptHeader: int64(attempt)},
		Body:         payload,
	})
}

// Subscribe registers the handler for a topic and starts consuming its work
// queue. One handler per topic; registering twice is an error.
func (q *Queue) Subscribe(topic string, handler ports.JobHandler) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	if err := q.declareTopic(topic); err != nil {
		return err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	}
	if _, exists := q.consumers[topic]; exists {
		q.mu.Unlock()
		return fmt.Errorf("topic %q already has a handler", topic)
	}

	ch, err := q.conn.Channel()
	if err != nil {
		q.mu.Unlock()
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	q.consumers[topic] = ch
	q.mu.Unlock()

	if err = ch.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(topic+".q", "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", topic, err)
	}

	q.wg.Add(1)
	go q.consume(topic, deliveries, handler)

	return nil
}

func (q *Queue) consume(topic string, deliveries <-chan amqp.Delivery, handler ports.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			q.handleDelivery(topic, delivery, handler)
		}
	}
}

func (q *Queue) handleDelivery(topic string, delivery amqp.Delivery, handler ports.JobHandler) {
	attempt := attemptFrom(delivery.Headers)

	job := ports.Job{
		ID:      delivery.MessageId,
		Topic:   topic,
		Payload: delivery.Body,
		Attempt: attempt,
	}

	err := q.invoke(handler, job)
	if err == nil {
		if ackErr := delivery.Ack(false); ackErr != nil {
			q.logger.Error("failed to ack delivery", "topic", topic, "job_id", job.ID, "error", ackErr)
		}
		return
	}

	if attempt >= q.opts.MaxAttempts {
		q.logger.Error("job exhausted all attempts, moving to dead letter queue",
			"topic", topic,
			"job_id", job.ID,
			"attempts", attempt,
			"payload", string(job.Payload),
			"error", err)

		// Reject without requeue routes the message through the work
		// queue's DLX into the dead letter queue.
		if nackErr := delivery.Reject(false); nackErr != nil {
			q.logger.Error("failed to reject delivery", "topic", topic, "job_id", job.ID, "error", nackErr)
		}
		return
	}

	delay := q.backoff(attempt)
	q.logger.Warn("job failed, scheduling retry",
		"topic", topic,
		"job_id", job.ID,
		"attempt", attempt,
		"retry_in", delay,
		"error", err)

	expiration := strconv.FormatInt(delay.Milliseconds(), 10)
	if pubErr := q.publish(q.ctx, retryExchange, topic, job.ID, attempt+1, expiration, delivery.Body); pubErr != nil {
		q.logger.Error("failed to park job for retry, requeueing",
			"topic", topic, "job_id", job.ID, "error", pubErr)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			q.logger.Error("failed to nack delivery", "topic", topic, "job_id", job.ID, "error", nackErr)
		}
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		q.logger.Error("failed to ack delivery", "topic", topic, "job_id", job.ID, "error", ackErr)
	}
}

// invoke runs the handler under the configured job timeout. The handler gets
// its own goroutine so a handler that ignores its context cannot stall the
// consumer; the timed out delivery flows into the retry path while the
// abandoned invocation keeps running.
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

// Close stops delivery and releases the connection.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	consumers := q.consumers
	q.mu.Unlock()

	q.cancel()

	for topic, ch := range consumers {
		if err := ch.Close(); err != nil {
			q.logger.Warn("failed to close consumer channel", "topic", topic, "error", err)
		}
	}

	q.wg.Wait()

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	if err := q.pubCh.Close(); err != nil {
		q.logger.Warn("failed to close publish channel", "error", err)
	}
	return q.conn.Close()
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

// attemptFrom reads the attempt header, defaulting to the first attempt for
// messages published by older producers.
func attemptFrom(headers amqp.Table) int {
	raw, ok := headers[attemptHeader]
	if !ok {
		return 1
	}

	switch v := raw.(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}
