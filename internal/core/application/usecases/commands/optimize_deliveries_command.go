package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrOptimizeDeliveriesCommandIsNotConstructed = errors.New(
	"OptimizeDeliveriesCommand must be created via NewOptimizeDeliveriesCommand constructor",
)

// OptimizeDeliveriesCommand triggers an optimization cycle: group the Ready
// orders by zone, plan a route per zone, and dispatch each route to the best
// available driver. An empty zone name means every zone with Ready orders.
type OptimizeDeliveriesCommand struct { //nolint:recvcheck //using for validation
	zone string

	guard guard.ConstructorGuard
}

// NewOptimizeDeliveriesCommand creates an optimization trigger for one zone,
// or for all zones when zone is empty.
func NewOptimizeDeliveriesCommand(zone string) OptimizeDeliveriesCommand {
	return OptimizeDeliveriesCommand{
		zone:  zone,
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *OptimizeDeliveriesCommand) Validate() error {
	return c.guard.Validate(ErrOptimizeDeliveriesCommandIsNotConstructed)
}

// Zone returns the zone to optimize, empty for all zones.
func (c OptimizeDeliveriesCommand) Zone() string {
	return c.zone
}
