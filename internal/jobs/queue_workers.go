package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// OptimizeDeliveriesWorker consumes optimization triggers from the queue and
// runs the dispatch cycle.
type OptimizeDeliveriesWorker struct {
	handler commands.OptimizeDeliveriesCommandHandler
	logger  *slog.Logger
}

// NewOptimizeDeliveriesWorker creates the optimization queue worker.
func NewOptimizeDeliveriesWorker(
	handler commands.OptimizeDeliveriesCommandHandler,
	logger *slog.Logger,
) *OptimizeDeliveriesWorker {
	return &OptimizeDeliveriesWorker{
		handler: handler,
		logger:  logger.With("component", "optimize_deliveries_worker"),
	}
}

// Handle runs one optimization cycle for the zone named in the payload, or
// for every zone when none is named.
func (w *OptimizeDeliveriesWorker) Handle(ctx context.Context, job ports.Job) error {
	var payload ports.OptimizeDeliveriesPayload
	if err := ports.UnmarshalPayload(job.Payload, &payload); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed optimization trigger",
			"job_id", job.ID, "payload", string(job.Payload), "error", err)
		return nil
	}

	result, err := w.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(payload.Zone))
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "optimization cycle finished",
		"zones_processed", result.ZonesProcessed,
		"zones_locked", result.ZonesLocked,
		"zones_deferred", result.ZonesDeferred,
		"routes_committed", result.RoutesCommitted,
		"orders_dispatched", result.OrdersDispatched,
		"orders_skipped", result.OrdersSkipped)
	return nil
}

// KitchenOrderWorker consumes kitchen intake jobs. The queue's backoff doubles
// as the capacity retry: a full kitchen fails the job, and the redelivery
// tries again once slots may have freed up.
type KitchenOrderWorker struct {
	handler commands.StartPreparationCommandHandler
	logger  *slog.Logger
}

// NewKitchenOrderWorker creates the kitchen intake queue worker.
func NewKitchenOrderWorker(
	handler commands.StartPreparationCommandHandler,
	logger *slog.Logger,
) *KitchenOrderWorker {
	return &KitchenOrderWorker{
		handler: handler,
		logger:  logger.With("component", "kitchen_order_worker"),
	}
}

// Handle moves one confirmed order into preparation. Deliveries are
// idempotent: an order that already left Confirmed is treated as done.
func (w *KitchenOrderWorker) Handle(ctx context.Context, job ports.Job) error {
	var payload ports.KitchenOrderPayload
	if err := ports.UnmarshalPayload(job.Payload, &payload); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed kitchen order job",
			"job_id", job.ID, "payload", string(job.Payload), "error", err)
		return nil
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		w.logger.ErrorContext(ctx, "dropping kitchen order job with invalid order id",
			"job_id", job.ID, "order_id", payload.OrderID, "error", err)
		return nil
	}

	command, err := commands.NewStartPreparationCommand(orderID)
	if err != nil {
		return err
	}

	err = w.handler.Handle(ctx, command)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, kitchen.ErrCapacityExceeded):
		w.logger.InfoContext(ctx, "kitchen at capacity, retrying later",
			"order_id", payload.OrderID, "attempt", job.Attempt)
		return err

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrPreparationAlreadyStarted):
		// Redelivery of an order that already entered (or passed) the
		// kitchen, or was cancelled in the meantime.
		w.logger.InfoContext(ctx, "order already left the confirmed status, dropping job",
			"order_id", payload.OrderID)
		return nil

	case errors.Is(err, errs.ErrObjectNotFound):
		w.logger.WarnContext(ctx, "dropping kitchen order job for unknown order",
			"order_id", payload.OrderID)
		return nil

	default:
		return err
	}
}
