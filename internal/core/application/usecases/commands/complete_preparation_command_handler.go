package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// CompletePreparationCommandHandler moves a Preparing order to Ready and
// records the measured preparation duration.
type CompletePreparationCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.JobQueue
}

// NewCompletePreparationCommandHandler creates a handler for preparation
// completion.
func NewCompletePreparationCommandHandler(
	uowFactory OrderUoWFactory,
	queue ports.JobQueue,
) CompletePreparationCommandHandler {
	return CompletePreparationCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
	}
}

// Handle completes preparation with a conditional status move from Preparing
// to Ready.
func (h CompletePreparationCommandHandler) Handle(ctx context.Context, command CompletePreparationCommand) error {
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

	now := time.Now().UTC()
	expected := aggregate.Status()
	if err = aggregate.TransitionTo(order.Ready, "", now); err != nil {
		return err
	}
	if err = aggregate.CompletePreparation(now); err != nil {
		return err
	}

	if err = ordersRepo.UpdateIfStatus(ctx, aggregate, expected); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return enqueueNotification(ctx, h.queue, aggregate, "")
}
