package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCompletePreparationCommandIsNotConstructed = errors.New(
	"CompletePreparationCommand must be created via NewCompletePreparationCommand constructor",
)

// CompletePreparationCommand represents a kitchen finishing an order. The
// order becomes Ready and enters the next optimization cycle of its zone.
type CompletePreparationCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCompletePreparationCommand creates a preparation completion request.
func NewCompletePreparationCommand(orderID kernel.UUID) (CompletePreparationCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CompletePreparationCommand{}, err
	}

	return CompletePreparationCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *CompletePreparationCommand) Validate() error {
	return c.guard.Validate(ErrCompletePreparationCommandIsNotConstructed)
}

// OrderID returns the finished order.
func (c CompletePreparationCommand) OrderID() kernel.UUID {
	return c.orderID
}
