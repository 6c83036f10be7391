package ports

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for driver aggregates.
type DriverRepository interface {
	// Add persists a new driver aggregate to storage.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update persists changes to an existing driver aggregate without any
	// precondition. Used for position updates and shift changes.
	Update(ctx context.Context, aggregate *driver.Driver) error

	// UpdateIfStatus persists the aggregate only if its stored status still
	// equals expected. Dispatch claims drivers through this method; losing
	// the race yields errs.ErrConflictRetry.
	UpdateIfStatus(ctx context.Context, aggregate *driver.Driver, expected driver.Status) error

	// Get retrieves a driver aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetAllAvailableInZone retrieves every Available driver serving the
	// named zone, ordered by identifier for deterministic processing.
	GetAllAvailableInZone(ctx context.Context, zone string) ([]*driver.Driver, error)

	// FindNearestAvailable retrieves the Available driver serving the zone
	// who is closest to the given point, or errs.ErrObjectNotFound when the
	// zone has none. Used as the fallback when a claimed driver was taken
	// by a concurrent cycle.
	FindNearestAvailable(ctx context.Context, zone string, from kernel.GeoPoint) (*driver.Driver, error)
}
