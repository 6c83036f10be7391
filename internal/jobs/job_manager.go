package jobs

import (
	"fmt"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/ports"
	"dispatch/internal/notifications"
)

// JobManager wires the background machinery of the engine: the queue workers
// for each topic and the cron scheduler that triggers optimization cycles.
type JobManager struct {
	queue    ports.JobQueue
	optimize *OptimizeDeliveriesWorker
	kitchen  *KitchenOrderWorker
	router   *notifications.Router
	cycle    *OptimizationCycleJob
}

// NewJobManager creates a job manager over the given handlers.
func NewJobManager(
	queue ports.JobQueue,
	optimizeHandler commands.OptimizeDeliveriesCommandHandler,
	startPreparationHandler commands.StartPreparationCommandHandler,
	router *notifications.Router,
	cycleSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		queue:    queue,
		optimize: NewOptimizeDeliveriesWorker(optimizeHandler, logger),
		kitchen:  NewKitchenOrderWorker(startPreparationHandler, logger),
		router:   router,
		cycle:    NewOptimizationCycleJob(queue, cycleSchedule, logger),
	}
}

// StartAll subscribes all queue workers and starts the cycle scheduler.
func (jm *JobManager) StartAll() error {
	if err := jm.queue.Subscribe(ports.TopicOptimizeDeliveries, jm.optimize.Handle); err != nil {
		return fmt.Errorf("failed to subscribe optimization worker: %w", err)
	}

	if err := jm.queue.Subscribe(ports.TopicKitchenOrder, jm.kitchen.Handle); err != nil {
		return fmt.Errorf("failed to subscribe kitchen worker: %w", err)
	}

	if err := jm.router.Register(); err != nil {
		return fmt.Errorf("failed to subscribe notification router: %w", err)
	}

	if err := jm.cycle.Start(); err != nil {
		return fmt.Errorf("failed to start optimization cycle job: %w", err)
	}

	return nil
}

// StopAll stops the cycle scheduler. Queue subscriptions end when the queue
// itself is closed by the composition root.
func (jm *JobManager) StopAll() {
	jm.cycle.Stop()
}
