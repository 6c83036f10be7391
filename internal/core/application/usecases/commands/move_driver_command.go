package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMoveDriverCommandIsNotConstructed = errors.New(
	"MoveDriverCommand must be created via NewMoveDriverCommand constructor",
)

// MoveDriverCommand represents a position report from a driver's device.
type MoveDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	location kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewMoveDriverCommand creates a position report.
func NewMoveDriverCommand(driverID kernel.UUID, location kernel.GeoPoint) (MoveDriverCommand, error) {
	if err := errors.Join(driverID.Validate(), location.Validate()); err != nil {
		return MoveDriverCommand{}, err
	}

	return MoveDriverCommand{
		driverID: driverID,
		location: location,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *MoveDriverCommand) Validate() error {
	return c.guard.Validate(ErrMoveDriverCommandIsNotConstructed)
}

// DriverID returns the reporting driver.
func (c MoveDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Location returns the reported position.
func (c MoveDriverCommand) Location() kernel.GeoPoint {
	return c.location
}
