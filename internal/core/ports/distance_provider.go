package ports

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// ErrDistanceUnavailable is returned when the provider has no estimate for a
// leg. Route planning treats the affected order as temporarily unroutable and
// keeps going with the rest; it never aborts a cycle over one missing leg.
var ErrDistanceUnavailable = errors.New("no distance estimate available for leg")

// DistanceResult is the travel estimate between two points.
type DistanceResult struct {
	DistanceMeters float64
	Duration       time.Duration
}

// DistanceProvider is the contract for retrieving travel estimates between
// coordinates. Implementations range from pure haversine math to external
// routing services.
type DistanceProvider interface {
	// GetDistance returns the travel estimate from origin to destination.
	// Returns ErrDistanceUnavailable (possibly wrapped) when no estimate
	// exists for the leg.
	GetDistance(ctx context.Context, origin, destination kernel.GeoPoint) (DistanceResult, error)
}
