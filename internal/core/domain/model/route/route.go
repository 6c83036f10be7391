package route

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Route aggregate errors.
var (
	// ErrRouteIsNotConstructed is returned when a Route instance was not
	// created through NewRoute or RestoreRoute.
	ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute or RestoreRoute constructor")

	// ErrStopIsNotConstructed is returned when validating a zero-value Stop.
	ErrStopIsNotConstructed = errors.New("Stop must be created via NewStop constructor")

	// ErrRouteAlreadyCommitted is returned when committing a route twice.
	ErrRouteAlreadyCommitted = errors.New("route is already committed to a driver")
)

// Stop is one delivery on a route: the order to drop off and where.
type Stop struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	location kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewStop creates a delivery stop for the given order.
func NewStop(orderID kernel.UUID, location kernel.GeoPoint) (Stop, error) {
	stop := Stop{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		stop.setOrderID(orderID),
		stop.setLocation(location),
	); err != nil {
		return Stop{}, err
	}

	return stop, nil
}

// Validate ensures the stop was created via NewStop.
func (s Stop) Validate() error {
	return s.guard.Validate(ErrStopIsNotConstructed)
}

// OrderID returns the order delivered at this stop.
func (s Stop) OrderID() kernel.UUID {
	return s.orderID
}

// Location returns the drop-off coordinate.
func (s Stop) Location() kernel.GeoPoint {
	return s.location
}

func (s *Stop) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	s.orderID = orderID
	return nil
}

func (s *Stop) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}

// Route is an ordered sequence of delivery stops inside one zone, with the
// travel totals estimated when the sequence was planned. A route starts as an
// uncommitted candidate; committing binds it to a driver, and only committed
// routes are persisted.
type Route struct {
	id            kernel.UUID
	zone          string
	stops         []Stop
	totalMeters   float64
	totalDuration time.Duration
	driverID      *kernel.UUID

	guard guard.ConstructorGuard
}

// NewRoute creates an uncommitted candidate route. At least one stop is
// required and travel totals must not be negative.
func NewRoute(
	id kernel.UUID,
	zone string,
	stops []Stop,
	totalMeters float64,
	totalDuration time.Duration,
) (*Route, error) {
	r := &Route{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(id),
		r.setZone(zone),
		r.setStops(stops),
		r.setTotals(totalMeters, totalDuration),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RestoreRoute reconstructs a committed route from persistent storage.
func RestoreRoute(
	id kernel.UUID,
	zone string,
	stops []Stop,
	totalMeters float64,
	totalDuration time.Duration,
	driverID kernel.UUID,
) (*Route, error) {
	r, err := NewRoute(id, zone, stops, totalMeters, totalDuration)
	if err != nil {
		return nil, err
	}

	if err = driverID.Validate(); err != nil {
		return nil, err
	}
	r.driverID = &driverID

	return r, nil
}

// Validate ensures the Route was created through a constructor.
func (r *Route) Validate() error {
	if r == nil {
		return ErrRouteIsNotConstructed
	}
	return r.guard.Validate(ErrRouteIsNotConstructed)
}

// IsEqual compares two routes by identity.
func (r *Route) IsEqual(other *Route) bool {
	return other != nil && r.id.IsEqual(other.id)
}

// ID returns the route's unique identifier.
func (r *Route) ID() kernel.UUID {
	return r.id
}

// Zone returns the delivery zone the route serves.
func (r *Route) Zone() string {
	return r.zone
}

// Stops returns a copy of the ordered delivery stops.
func (r *Route) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	copy(out, r.stops)
	return out
}

// OrderIDs returns the delivered orders in stop sequence.
func (r *Route) OrderIDs() []kernel.UUID {
	out := make([]kernel.UUID, len(r.stops))
	for i, stop := range r.stops {
		out[i] = stop.OrderID()
	}
	return out
}

// TotalMeters returns the estimated travel distance over all legs.
func (r *Route) TotalMeters() float64 {
	return r.totalMeters
}

// TotalDuration returns the estimated travel time over all legs.
func (r *Route) TotalDuration() time.Duration {
	return r.totalDuration
}

// Driver returns the committed driver, nil while the route is a candidate.
func (r *Route) Driver() *kernel.UUID {
	return r.driverID
}

// IsCommitted reports whether the route is bound to a driver.
func (r *Route) IsCommitted() bool {
	return r.driverID != nil
}

// ShrinkTo replaces the stop sequence with the surviving stops after planned
// orders were lost to concurrent writers, together with the re-estimated
// travel totals. At least one stop must survive; identity, zone, and the
// committed driver are untouched.
func (r *Route) ShrinkTo(stops []Stop, totalMeters float64, totalDuration time.Duration) error {
	return errors.Join(
		r.setStops(stops),
		r.setTotals(totalMeters, totalDuration),
	)
}

// Commit binds the candidate route to the driver who will execute it.
func (r *Route) Commit(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if r.driverID != nil {
		return ErrRouteAlreadyCommitted
	}

	r.driverID = &driverID
	return nil
}

func (r *Route) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Route) setZone(zone string) error {
	if zone == "" {
		return errs.NewValueIsRequiredError("zone")
	}
	r.zone = zone
	return nil
}

func (r *Route) setStops(stops []Stop) error {
	if len(stops) == 0 {
		return errs.NewValueIsRequiredError("stops")
	}

	for _, stop := range stops {
		if err := stop.Validate(); err != nil {
			return err
		}
	}

	r.stops = make([]Stop, len(stops))
	copy(r.stops, stops)
	return nil
}

func (r *Route) setTotals(totalMeters float64, totalDuration time.Duration) error {
	if totalMeters < 0 {
		return errs.NewValueIsInvalidError("totalMeters")
	}
	if totalDuration < 0 {
		return errs.NewValueIsInvalidError("totalDuration")
	}

	r.totalMeters = totalMeters
	r.totalDuration = totalDuration
	return nil
}
