// Package queries contains read-only operations in the CQRS architecture.
// Query handlers go straight to the database and return plain response
// structs; they never load or mutate aggregates.
package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetKitchenCapacityQueryIsNotConstructed = errors.New(
	"GetKitchenCapacityQuery must be created via NewGetKitchenCapacityQuery constructor",
)

// GetKitchenCapacityQuery retrieves the live capacity snapshot of a kitchen.
// The preparing count is computed from order statuses at query time.
type GetKitchenCapacityQuery struct { //nolint:recvcheck //using for validation
	kitchenID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetKitchenCapacityQuery creates a capacity query for one kitchen.
func NewGetKitchenCapacityQuery(kitchenID kernel.UUID) (GetKitchenCapacityQuery, error) {
	if err := kitchenID.Validate(); err != nil {
		return GetKitchenCapacityQuery{}, err
	}

	return GetKitchenCapacityQuery{
		kitchenID: kitchenID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetKitchenCapacityQuery) Validate() error {
	return q.guard.Validate(ErrGetKitchenCapacityQueryIsNotConstructed)
}

// KitchenID returns the kitchen to inspect.
func (q GetKitchenCapacityQuery) KitchenID() kernel.UUID {
	return q.kitchenID
}

// GetKitchenCapacityQueryResponse is the live load of a kitchen.
type GetKitchenCapacityQueryResponse struct {
	KitchenID      kernel.UUID
	Name           string
	MaxConcurrent  int
	PreparingCount int
	Available      int
}
