package commands

import (
	"context"
)

// MarkPaymentCommandHandler records payment-processor events on orders.
// Payment state lives outside the lifecycle state machine, so the update is
// unconditional.
type MarkPaymentCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewMarkPaymentCommandHandler creates a handler for payment events.
func NewMarkPaymentCommandHandler(uowFactory OrderUoWFactory) MarkPaymentCommandHandler {
	return MarkPaymentCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle records the payment status on the order.
func (h MarkPaymentCommandHandler) Handle(ctx context.Context, command MarkPaymentCommand) error {
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

	if err = aggregate.MarkPayment(command.Status()); err != nil {
		return err
	}

	if err = ordersRepo.Update(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
