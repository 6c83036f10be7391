package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// OptimizationCycleJob periodically enqueues a full optimization cycle. The
// cycle itself runs through the job queue, so every engine instance can host
// the scheduler; the per-zone lock keeps concurrent cycles from colliding.
type OptimizationCycleJob struct {
	queue    ports.JobQueue
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewOptimizationCycleJob creates the scheduler for dispatch cycles. The
// schedule is a six-field cron expression with seconds.
func NewOptimizationCycleJob(queue ports.JobQueue, schedule string, logger *slog.Logger) *OptimizationCycleJob {
	return &OptimizationCycleJob{
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "optimization_cycle_job"),
	}
}

// Start begins enqueueing optimization cycles on the configured schedule.
func (j *OptimizationCycleJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()

		payload, err := ports.MarshalPayload(ports.OptimizeDeliveriesPayload{})
		if err != nil {
			j.logger.ErrorContext(ctx, "failed to marshal optimization trigger", "error", err)
			return
		}

		if err = j.queue.Enqueue(ctx, ports.TopicOptimizeDeliveries, payload); err != nil {
			j.logger.ErrorContext(ctx, "failed to enqueue optimization cycle", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "optimization cycle job started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler.
func (j *OptimizationCycleJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "optimization cycle job stopped")
}
