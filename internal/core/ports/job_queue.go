package ports

import (
	"context"
)

// Job topics understood by the dispatch engine.
const (
	// TopicOptimizeDeliveries triggers an optimization cycle for one zone,
	// or for all zones when the payload names none.
	TopicOptimizeDeliveries = "optimize-deliveries"

	// TopicKitchenOrder hands a confirmed order to its kitchen.
	TopicKitchenOrder = "kitchen-order"

	// TopicNotification fans a lifecycle event out to customer channels.
	TopicNotification = "notification"
)

// Job is one unit of asynchronous work. Payload carries a JSON document owned
// by the topic's producer and consumer. Attempt starts at 1 and grows with
// every redelivery.
type Job struct {
	ID      string
	Topic   string
	Payload []byte
	Attempt int
}

// JobHandler processes one job delivery. Returning an error schedules a retry
// with exponential backoff until the attempt limit, after which the job moves
// to the dead letter queue. Processing must therefore be idempotent: the
// queue guarantees at-least-once delivery, not exactly-once.
type JobHandler func(ctx context.Context, job Job) error

// JobQueue is the contract for the asynchronous work queue.
type JobQueue interface {
	// Enqueue publishes a job for the topic. The job survives process
	// restarts once Enqueue returns.
	Enqueue(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers the handler for a topic. One handler per topic;
	// registering twice is an error.
	Subscribe(topic string, handler JobHandler) error

	// Close stops delivery and releases the underlying resources.
	Close() error
}
