package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// TransitionOrderCommandHandler moves orders along the lifecycle graph with a
// conditional update: the stored status must still be the one the transition
// was computed from, otherwise the command fails with errs.ErrConflictRetry
// and no state changes. There are no in-process locks; concurrency control is
// entirely compare-and-set against the store.
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.JobQueue
}

// NewTransitionOrderCommandHandler creates a handler for lifecycle
// transitions.
func NewTransitionOrderCommandHandler(
	uowFactory OrderUoWFactory,
	queue ports.JobQueue,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
	}
}

// Handle applies the transition. After a successful commit it enqueues the
// customer notification, and for a confirmation additionally the kitchen
// intake job.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, command TransitionOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ordersRepo := uow.OrderRepository()

	aggregate, err := ordersRepo.Get(ctx, command.OrderID())
	if err != nil {
		return err
	}

	expected := aggregate.Status()
	if err = aggregate.TransitionTo(command.Target(), command.Note(), time.Now().UTC()); err != nil {
		return err
	}

	if err = ordersRepo.UpdateIfStatus(ctx, aggregate, expected); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if command.Target() == order.Confirmed {
		if err = h.enqueueKitchenOrder(ctx, aggregate); err != nil {
			return err
		}
	}

	return enqueueNotification(ctx, h.queue, aggregate, command.Note())
}

func (h TransitionOrderCommandHandler) enqueueKitchenOrder(ctx context.Context, aggregate *order.Order) error {
	payload, err := ports.MarshalPayload(ports.KitchenOrderPayload{
		OrderID: aggregate.ID().String(),
	})
	if err != nil {
		return err
	}

	return h.queue.Enqueue(ctx, ports.TopicKitchenOrder, payload)
}
