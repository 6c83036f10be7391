package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// RouteRepository defines the persistence contract for committed routes.
// Candidate routes produced during optimization are never stored; a route
// reaches the repository only once a driver is bound to it.
type RouteRepository interface {
	// Add persists a committed route.
	Add(ctx context.Context, aggregate *route.Route) error

	// Get retrieves a route by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// GetActiveByDriver retrieves the route the driver is currently
	// executing, or errs.ErrObjectNotFound when the driver has none.
	GetActiveByDriver(ctx context.Context, driverID kernel.UUID) (*route.Route, error)
}
