package services

import (
	"errors"
	"fmt"
	"sort"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// UnzonedZone is the bucket for delivery addresses outside every configured
// geofence. Unzoned orders are still optimized, in a cycle of their own.
const UnzonedZone = "unzoned"

// ErrZoneIsNotConstructed is returned when validating a zero-value Zone.
var ErrZoneIsNotConstructed = errors.New("Zone must be created via NewZone constructor")

// Zone is a circular geofence: a named center with a radius in meters.
type Zone struct { //nolint:recvcheck //using for validation
	name         string
	center       kernel.GeoPoint
	radiusMeters float64

	guard guard.ConstructorGuard
}

// NewZone creates a geofence. The radius must be positive and the name must
// not collide with the reserved unzoned bucket.
func NewZone(name string, center kernel.GeoPoint, radiusMeters float64) (Zone, error) {
	zone := Zone{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		zone.setName(name),
		zone.setCenter(center),
		zone.setRadius(radiusMeters),
	); err != nil {
		return Zone{}, err
	}

	return zone, nil
}

// Validate ensures the zone was created via NewZone.
func (z Zone) Validate() error {
	return z.guard.Validate(ErrZoneIsNotConstructed)
}

// Name returns the zone's unique name.
func (z Zone) Name() string {
	return z.name
}

// Center returns the geofence center.
func (z Zone) Center() kernel.GeoPoint {
	return z.center
}

// RadiusMeters returns the geofence radius.
func (z Zone) RadiusMeters() float64 {
	return z.radiusMeters
}

// Contains reports whether the point falls inside the geofence. Points
// exactly on the boundary count as inside.
func (z Zone) Contains(point kernel.GeoPoint) (bool, error) {
	distance, err := z.center.HaversineDistanceMeters(point)
	if err != nil {
		return false, err
	}
	return distance <= z.radiusMeters, nil
}

func (z *Zone) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	if name == UnzonedZone {
		return errs.NewValueIsInvalidErrorWithCause("name",
			fmt.Errorf("%q is reserved for addresses outside every zone", UnzonedZone))
	}
	z.name = name
	return nil
}

func (z *Zone) setCenter(center kernel.GeoPoint) error {
	if err := center.Validate(); err != nil {
		return err
	}
	z.center = center
	return nil
}

func (z *Zone) setRadius(radiusMeters float64) error {
	if radiusMeters <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("radiusMeters",
			fmt.Errorf("%f is not positive", radiusMeters))
	}
	z.radiusMeters = radiusMeters
	return nil
}

// ZoneGrouper is a domain service that assigns delivery addresses to zones.
//
// Business rules:
//   - a point inside several overlapping geofences belongs to the zone whose
//     center is nearest, ties broken by zone name
//   - a point inside no geofence belongs to the unzoned bucket
//   - grouping is deterministic for a fixed zone configuration
type ZoneGrouper struct {
	zones []Zone
}

// NewZoneGrouper creates a grouper over the configured geofences. Zone names
// must be unique.
func NewZoneGrouper(zones []Zone) (ZoneGrouper, error) {
	seen := make(map[string]struct{}, len(zones))
	for _, zone := range zones {
		if err := zone.Validate(); err != nil {
			return ZoneGrouper{}, err
		}
		if _, ok := seen[zone.Name()]; ok {
			return ZoneGrouper{}, errs.NewValueIsInvalidErrorWithCause("zones",
				fmt.Errorf("zone name %q is duplicated", zone.Name()))
		}
		seen[zone.Name()] = struct{}{}
	}

	grouper := ZoneGrouper{zones: make([]Zone, len(zones))}
	copy(grouper.zones, zones)

	return grouper, nil
}

// ZoneNames returns the configured zone names plus the unzoned bucket, sorted
// for deterministic iteration.
func (g ZoneGrouper) ZoneNames() []string {
	names := make([]string, 0, len(g.zones)+1)
	for _, zone := range g.zones {
		names = append(names, zone.Name())
	}
	names = append(names, UnzonedZone)
	sort.Strings(names)

	return names
}

// ZoneFor resolves the zone a point belongs to.
func (g ZoneGrouper) ZoneFor(point kernel.GeoPoint) (string, error) {
	if err := point.Validate(); err != nil {
		return "", err
	}

	bestName := UnzonedZone
	bestDistance := 0.0

	for _, zone := range g.zones {
		distance, err := zone.center.HaversineDistanceMeters(point)
		if err != nil {
			return "", err
		}
		if distance > zone.radiusMeters {
			continue
		}

		if bestName == UnzonedZone ||
			distance < bestDistance ||
			(distance == bestDistance && zone.name < bestName) {
			bestName = zone.name
			bestDistance = distance
		}
	}

	return bestName, nil
}

// GroupOrders buckets orders by the zone of their delivery address. Within
// each bucket the input order is preserved.
func (g ZoneGrouper) GroupOrders(orders []*order.Order) (map[string][]*order.Order, error) {
	grouped := make(map[string][]*order.Order)

	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}

		zone, err := g.ZoneFor(o.Address().Location())
		if err != nil {
			return nil, err
		}

		grouped[zone] = append(grouped[zone], o)
	}

	return grouped, nil
}
