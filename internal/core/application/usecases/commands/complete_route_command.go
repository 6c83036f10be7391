package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCompleteRouteCommandIsNotConstructed = errors.New(
		"CompleteRouteCommand must be created via NewCompleteRouteCommand constructor",
	)

	// ErrRouteHasUndeliveredOrders is returned when a driver tries to close a
	// route while some of its orders are still out for delivery.
	ErrRouteHasUndeliveredOrders = errors.New("route still has undelivered orders")
)

// CompleteRouteCommand represents a driver closing out their route after the
// last drop-off. The driver becomes Available again.
type CompleteRouteCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCompleteRouteCommand creates a route completion request.
func NewCompleteRouteCommand(driverID kernel.UUID) (CompleteRouteCommand, error) {
	if err := driverID.Validate(); err != nil {
		return CompleteRouteCommand{}, err
	}

	return CompleteRouteCommand{
		driverID: driverID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *CompleteRouteCommand) Validate() error {
	return c.guard.Validate(ErrCompleteRouteCommandIsNotConstructed)
}

// DriverID returns the driver closing their route.
func (c CompleteRouteCommand) DriverID() kernel.UUID {
	return c.driverID
}
