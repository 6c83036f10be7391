package driver

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Driver aggregate errors.
var (
	// ErrDriverIsNotConstructed is returned when a Driver instance was not
	// created through NewDriver or RestoreDriver.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or RestoreDriver constructor")

	// ErrDriverNotAvailable is returned when a route is assigned to a driver
	// who is not Available. Dispatch treats this as a lost race, not a fault.
	ErrDriverNotAvailable = errors.New("driver is not available for dispatch")

	// ErrDriverNotDelivering is returned when completing a route on a driver
	// who has none.
	ErrDriverNotDelivering = errors.New("driver is not delivering a route")
)

// Driver is the aggregate root for a delivery driver: identity, current
// position, the zones they serve, and their dispatch status.
//
// Invariant: a route is attached if and only if the driver is Delivering.
type Driver struct {
	id       kernel.UUID
	name     string
	status   Status
	location kernel.GeoPoint
	zones    []string
	routeID  *kernel.UUID

	guard guard.ConstructorGuard
}

// NewDriver registers a driver as Available at the given position. The zone
// list may be empty; such a driver only serves unzoned orders.
func NewDriver(id kernel.UUID, name string, location kernel.GeoPoint, zones []string) (*Driver, error) {
	d := &Driver{
		status: Available,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
		d.setZones(zones),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDriver reconstructs a driver aggregate from persistent storage. The
// status/route consistency rule is enforced on restore.
func RestoreDriver(
	id kernel.UUID,
	name string,
	status Status,
	location kernel.GeoPoint,
	zones []string,
	routeID *kernel.UUID,
) (*Driver, error) {
	d := &Driver{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setStatus(status),
		d.setLocation(location),
		d.setZones(zones),
		d.setRouteID(routeID),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate ensures the Driver was created through a constructor.
func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

// IsEqual compares two drivers by identity.
func (d *Driver) IsEqual(other *Driver) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the driver's unique identifier.
func (d *Driver) ID() kernel.UUID {
	return d.id
}

// Name returns the driver's display name.
func (d *Driver) Name() string {
	return d.name
}

// Status returns the current dispatch status.
func (d *Driver) Status() Status {
	return d.status
}

// Location returns the driver's last reported position.
func (d *Driver) Location() kernel.GeoPoint {
	return d.location
}

// Zones returns a copy of the zone names the driver serves.
func (d *Driver) Zones() []string {
	out := make([]string, len(d.zones))
	copy(out, d.zones)
	return out
}

// Route returns the committed route's identifier, nil unless Delivering.
func (d *Driver) Route() *kernel.UUID {
	return d.routeID
}

// ServesZone reports whether the driver covers the named zone.
func (d *Driver) ServesZone(zone string) bool {
	for _, z := range d.zones {
		if z == zone {
			return true
		}
	}
	return false
}

// AssignRoute commits a route to an Available driver and moves them to
// Delivering. Assigning to a busy, offline, or on-break driver fails with
// ErrDriverNotAvailable.
func (d *Driver) AssignRoute(routeID kernel.UUID) error {
	if err := routeID.Validate(); err != nil {
		return err
	}

	if d.status != Available {
		return fmt.Errorf("%w: driver %s is %s", ErrDriverNotAvailable, d.id, d.status)
	}

	d.routeID = &routeID
	d.status = Delivering
	return nil
}

// CompleteRoute detaches the committed route and returns the driver to
// Available.
func (d *Driver) CompleteRoute() error {
	if d.status != Delivering || d.routeID == nil {
		return fmt.Errorf("%w: driver %s is %s", ErrDriverNotDelivering, d.id, d.status)
	}

	d.routeID = nil
	d.status = Available
	return nil
}

// MoveTo updates the driver's last reported position.
func (d *Driver) MoveTo(location kernel.GeoPoint) error {
	return d.setLocation(location)
}

// SetAvailability changes the driver's shift status. Only Available, Offline,
// and OnBreak are accepted; Delivering is entered exclusively through
// AssignRoute, and a delivering driver must complete their route first.
func (d *Driver) SetAvailability(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	if status == Delivering {
		return errs.NewValueIsInvalidErrorWithCause("driverStatus",
			errors.New("delivering is entered via route assignment"))
	}

	if d.status == Delivering {
		return fmt.Errorf("%w: complete the route before changing availability", ErrDriverNotDelivering)
	}

	d.status = status
	return nil
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	d.name = name
	return nil
}

func (d *Driver) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	d.status = status
	return nil
}

func (d *Driver) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}

func (d *Driver) setZones(zones []string) error {
	for _, zone := range zones {
		if zone == "" {
			return errs.NewValueIsRequiredError("zone")
		}
	}

	d.zones = make([]string, len(zones))
	copy(d.zones, zones)
	return nil
}

func (d *Driver) setRouteID(routeID *kernel.UUID) error {
	if routeID != nil {
		if err := routeID.Validate(); err != nil {
			return err
		}
	}

	if err := d.status.ValidateCanHaveRoute(routeID != nil); err != nil {
		return err
	}

	d.routeID = routeID
	return nil
}
