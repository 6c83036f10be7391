package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to place a new delivery order. The
// order enters the lifecycle in Pending status.
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	customerID  kernel.UUID
	kitchenID   kernel.UUID
	items       []order.Item
	address     order.Address
	scheduledAt time.Time

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to place an order. Items and the
// delivery address must already be valid value objects.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	kitchenID kernel.UUID,
	items []order.Item,
	address order.Address,
	scheduledAt time.Time,
) (CreateOrderCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		customerID.Validate(),
		kitchenID.Validate(),
		address.Validate(),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	if len(items) == 0 {
		return CreateOrderCommand{}, errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return CreateOrderCommand{}, err
		}
	}

	if scheduledAt.IsZero() {
		return CreateOrderCommand{}, errs.NewValueIsRequiredError("scheduledAt")
	}

	cmd := CreateOrderCommand{
		orderID:     orderID,
		customerID:  customerID,
		kitchenID:   kitchenID,
		items:       make([]order.Item, len(items)),
		address:     address,
		scheduledAt: scheduledAt,
		guard:       guard.NewConstructorGuard(),
	}
	copy(cmd.items, items)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c *CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the identifier the new order will carry.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the placing customer.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// KitchenID returns the kitchen that will prepare the order.
func (c CreateOrderCommand) KitchenID() kernel.UUID {
	return c.kitchenID
}

// Items returns the ordered line items.
func (c CreateOrderCommand) Items() []order.Item {
	out := make([]order.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Address returns the delivery destination.
func (c CreateOrderCommand) Address() order.Address {
	return c.address
}

// ScheduledAt returns the requested delivery time.
func (c CreateOrderCommand) ScheduledAt() time.Time {
	return c.scheduledAt
}
