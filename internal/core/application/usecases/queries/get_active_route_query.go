package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetActiveRouteQueryIsNotConstructed = errors.New(
	"GetActiveRouteQuery must be created via NewGetActiveRouteQuery constructor",
)

// GetActiveRouteQuery retrieves the route a driver is currently executing.
type GetActiveRouteQuery struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetActiveRouteQuery creates an active route lookup for one driver.
func NewGetActiveRouteQuery(driverID kernel.UUID) (GetActiveRouteQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetActiveRouteQuery{}, err
	}

	return GetActiveRouteQuery{
		driverID: driverID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetActiveRouteQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveRouteQueryIsNotConstructed)
}

// DriverID returns the driver whose route is requested.
func (q GetActiveRouteQuery) DriverID() kernel.UUID {
	return q.driverID
}

// GetActiveRouteQueryStop is one delivery stop in an active route response.
type GetActiveRouteQueryStop struct {
	OrderID  kernel.UUID
	Location kernel.GeoPoint
}

// GetActiveRouteQueryResponse describes a driver's current route.
type GetActiveRouteQueryResponse struct {
	RouteID       kernel.UUID
	Zone          string
	Stops         []GetActiveRouteQueryStop
	TotalMeters   float64
	TotalDuration time.Duration
}
