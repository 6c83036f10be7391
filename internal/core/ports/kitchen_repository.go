package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
)

// KitchenRepository defines the persistence contract for kitchen aggregates.
type KitchenRepository interface {
	// Add persists a new kitchen aggregate to storage.
	Add(ctx context.Context, aggregate *kitchen.Kitchen) error

	// Update persists changes to an existing kitchen aggregate.
	Update(ctx context.Context, aggregate *kitchen.Kitchen) error

	// Get retrieves a kitchen aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error)

	// GetForUpdate retrieves a kitchen aggregate with a pessimistic row lock
	// held until the surrounding transaction ends. Intake serializes on this
	// lock so the live capacity count cannot be oversubscribed by concurrent
	// transactions.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error)
}
