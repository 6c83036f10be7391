package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrStartPreparationCommandIsNotConstructed = errors.New(
	"StartPreparationCommand must be created via NewStartPreparationCommand constructor",
)

// StartPreparationCommand represents a kitchen picking up a confirmed order.
// Intake is subject to the kitchen's concurrency limit.
type StartPreparationCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewStartPreparationCommand creates a kitchen intake request.
func NewStartPreparationCommand(orderID kernel.UUID) (StartPreparationCommand, error) {
	if err := orderID.Validate(); err != nil {
		return StartPreparationCommand{}, err
	}

	return StartPreparationCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *StartPreparationCommand) Validate() error {
	return c.guard.Validate(ErrStartPreparationCommandIsNotConstructed)
}

// OrderID returns the order entering preparation.
func (c StartPreparationCommand) OrderID() kernel.UUID {
	return c.orderID
}
