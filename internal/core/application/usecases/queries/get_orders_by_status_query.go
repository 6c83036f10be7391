package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrGetOrdersByStatusQueryIsNotConstructed = errors.New(
	"GetOrdersByStatusQuery must be created via NewGetOrdersByStatusQuery constructor",
)

// GetOrdersByStatusQuery retrieves the orders currently in one lifecycle
// status, for dashboards and dispatch monitoring.
type GetOrdersByStatusQuery struct { //nolint:recvcheck //using for validation
	status order.Status

	guard guard.ConstructorGuard
}

// NewGetOrdersByStatusQuery creates a status listing query.
func NewGetOrdersByStatusQuery(status order.Status) (GetOrdersByStatusQuery, error) {
	if err := status.Validate(); err != nil {
		return GetOrdersByStatusQuery{}, err
	}

	return GetOrdersByStatusQuery{
		status: status,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrdersByStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetOrdersByStatusQueryIsNotConstructed)
}

// Status returns the lifecycle status to list.
func (q GetOrdersByStatusQuery) Status() order.Status {
	return q.status
}

// GetOrdersByStatusQueryResponse is one order row in a status listing.
type GetOrdersByStatusQueryResponse struct {
	ID          kernel.UUID
	CustomerID  kernel.UUID
	KitchenID   kernel.UUID
	Status      order.Status
	Location    kernel.GeoPoint
	ScheduledAt time.Time
}
