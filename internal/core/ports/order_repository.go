package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate without any
	// precondition. Used for fields outside the status machine, such as
	// payment state.
	Update(ctx context.Context, aggregate *order.Order) error

	// UpdateIfStatus persists the aggregate only if its stored status still
	// equals expected. A concurrent writer winning the race yields
	// errs.ErrConflictRetry and leaves the row untouched; callers must
	// re-read before retrying.
	UpdateIfStatus(ctx context.Context, aggregate *order.Order, expected order.Status) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInStatus retrieves every order currently in the given status,
	// ordered by identifier for deterministic processing.
	GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error)

	// CountPreparingForKitchen returns the live number of orders the kitchen
	// is preparing. Kitchen capacity is always derived from this count.
	CountPreparingForKitchen(ctx context.Context, kitchenID kernel.UUID) (int, error)
}
