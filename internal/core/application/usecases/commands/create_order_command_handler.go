package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// CreateOrderCommandHandler persists freshly placed orders and announces them
// to the notification pipeline.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.JobQueue
}

// NewCreateOrderCommandHandler creates a handler for order placement.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, queue ports.JobQueue) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
	}
}

// Handle places the order in Pending status. The customer notification is
// enqueued only after the transaction commits, so a rolled back order never
// produces a notification.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	aggregate, err := order.NewOrder(
		command.OrderID(),
		command.CustomerID(),
		command.KitchenID(),
		command.Items(),
		command.Address(),
		command.ScheduledAt(),
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return enqueueNotification(ctx, h.queue, aggregate, "")
}

// enqueueNotification publishes the fan-out notification job for a lifecycle
// event. Shared by every handler that moves an order.
func enqueueNotification(ctx context.Context, queue ports.JobQueue, aggregate *order.Order, note string) error {
	payload, err := ports.MarshalPayload(ports.NotificationPayload{
		OrderID:    aggregate.ID().String(),
		CustomerID: aggregate.CustomerID().String(),
		Status:     aggregate.Status().String(),
		Note:       note,
	})
	if err != nil {
		return err
	}

	return queue.Enqueue(ctx, ports.TopicNotification, payload)
}
