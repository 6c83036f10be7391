package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateDriverCommandIsNotConstructed = errors.New(
	"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
)

// CreateDriverCommand represents the registration of a delivery driver.
type CreateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	name     string
	location kernel.GeoPoint
	zones    []string

	guard guard.ConstructorGuard
}

// NewCreateDriverCommand creates a driver registration request.
func NewCreateDriverCommand(
	driverID kernel.UUID,
	name string,
	location kernel.GeoPoint,
	zones []string,
) (CreateDriverCommand, error) {
	if err := errors.Join(driverID.Validate(), location.Validate()); err != nil {
		return CreateDriverCommand{}, err
	}
	if name == "" {
		return CreateDriverCommand{}, errs.NewValueIsRequiredError("name")
	}

	cmd := CreateDriverCommand{
		driverID: driverID,
		name:     name,
		location: location,
		zones:    make([]string, len(zones)),
		guard:    guard.NewConstructorGuard(),
	}
	copy(cmd.zones, zones)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c *CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

// DriverID returns the identifier the new driver will carry.
func (c CreateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Name returns the driver's display name.
func (c CreateDriverCommand) Name() string {
	return c.name
}

// Location returns the driver's starting position.
func (c CreateDriverCommand) Location() kernel.GeoPoint {
	return c.location
}

// Zones returns the zones the driver serves.
func (c CreateDriverCommand) Zones() []string {
	out := make([]string, len(c.zones))
	copy(out, c.zones)
	return out
}
