// Package geo provides a local implementation of the distance provider port.
// Estimates are great-circle distances scaled by a road factor, divided by an
// average travel speed. Good enough for urban dispatch; an external routing
// service can replace it behind the same port.
package geo

import (
	"context"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// defaultRoadFactor inflates straight-line distance to approximate street
// routing.
const defaultRoadFactor = 1.3

// HaversineDistanceProvider estimates travel legs from coordinates alone.
type HaversineDistanceProvider struct {
	speedMetersPerSecond float64
	roadFactor           float64
}

var _ ports.DistanceProvider = (*HaversineDistanceProvider)(nil)

// NewHaversineDistanceProvider creates a provider assuming the given average
// travel speed in meters per second.
func NewHaversineDistanceProvider(speedMetersPerSecond float64) (*HaversineDistanceProvider, error) {
	if speedMetersPerSecond <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("speedMetersPerSecond",
			fmt.Errorf("%f is not positive", speedMetersPerSecond))
	}

	return &HaversineDistanceProvider{
		speedMetersPerSecond: speedMetersPerSecond,
		roadFactor:           defaultRoadFactor,
	}, nil
}

// GetDistance returns the estimated travel distance and time between the two
// points.
func (p *HaversineDistanceProvider) GetDistance(
	_ context.Context,
	origin, destination kernel.GeoPoint,
) (ports.DistanceResult, error) {
	meters, err := origin.HaversineDistanceMeters(destination)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("%w: %w", ports.ErrDistanceUnavailable, err)
	}

	meters *= p.roadFactor
	seconds := meters / p.speedMetersPerSecond

	return ports.DistanceResult{
		DistanceMeters: meters,
		Duration:       time.Duration(seconds * float64(time.Second)),
	}, nil
}
