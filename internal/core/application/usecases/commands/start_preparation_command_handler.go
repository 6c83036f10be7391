package commands

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

func kitchenFull(site *kitchen.Kitchen, capacity kitchen.Capacity) error {
	return fmt.Errorf("%w: kitchen %s is preparing %d of %d",
		kitchen.ErrCapacityExceeded, site.ID(), capacity.PreparingCount(), capacity.MaxConcurrent())
}

// StartPreparationCommandHandler moves a confirmed order into Preparing when
// its kitchen has a free slot. Intake serializes on a pessimistic lock of the
// kitchen row, so the live count of preparing orders is read under the lock
// and two racing intakes for the same kitchen can never both take the last
// slot. The status move itself is still conditional, guarding against the
// order changing between read and write.
type StartPreparationCommandHandler struct {
	uowFactory KitchenUoWFactory
	queue      ports.JobQueue
}

// NewStartPreparationCommandHandler creates a handler for kitchen intake.
func NewStartPreparationCommandHandler(
	uowFactory KitchenUoWFactory,
	queue ports.JobQueue,
) StartPreparationCommandHandler {
	return StartPreparationCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
	}
}

// Handle starts preparation. Returns kitchen.ErrCapacityExceeded when the
// kitchen is full; callers retry later, the order stays Confirmed.
func (h StartPreparationCommandHandler) Handle(ctx context.Context, command StartPreparationCommand) error {
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

	// The locking read serializes concurrent intakes per kitchen; without it
	// two transactions could both count max-1 preparing orders and admit one
	// order each.
	site, err := uow.KitchenRepository().GetForUpdate(ctx, aggregate.KitchenID())
	if err != nil {
		return err
	}

	preparingCount, err := ordersRepo.CountPreparingForKitchen(ctx, site.ID())
	if err != nil {
		return err
	}

	capacity, err := site.CapacityWith(preparingCount)
	if err != nil {
		return err
	}
	if !capacity.CanAccept() {
		return kitchenFull(site, capacity)
	}

	now := time.Now().UTC()
	expected := aggregate.Status()
	if err = aggregate.TransitionTo(order.Preparing, "", now); err != nil {
		return err
	}
	if err = aggregate.StartPreparation(now); err != nil {
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
