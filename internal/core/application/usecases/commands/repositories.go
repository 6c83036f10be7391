// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS
// architecture. All commands follow a consistent pattern: validation,
// transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command
// handlers. These abstractions ensure data consistency across aggregate
// boundaries.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a
	// transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// DriverRepoFactory provides access to the driver repository within a
	// transaction.
	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	// KitchenRepoFactory provides access to the kitchen repository within a
	// transaction.
	KitchenRepoFactory interface {
		KitchenRepository() ports.KitchenRepository
	}

	// RouteRepoFactory provides access to the route repository within a
	// transaction.
	RouteRepoFactory interface {
		RouteRepository() ports.RouteRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// DriverUoW manages transactions for driver-only operations.
	DriverUoW interface {
		TxManager
		DriverRepoFactory
	}

	// DriverUoWFactory creates new driver unit of work instances.
	DriverUoWFactory interface {
		Create() DriverUoW
	}

	// KitchenUoW manages transactions for kitchen intake operations, which
	// touch orders and kitchens together.
	KitchenUoW interface {
		TxManager
		OrderRepoFactory
		KitchenRepoFactory
	}

	// KitchenUoWFactory creates new kitchen unit of work instances.
	KitchenUoWFactory interface {
		Create() KitchenUoW
	}

	// DispatchUoW manages transactions for dispatch operations, which span
	// orders, drivers, and routes.
	DispatchUoW interface {
		TxManager
		OrderRepoFactory
		DriverRepoFactory
		RouteRepoFactory
	}

	// DispatchUoWFactory creates new dispatch unit of work instances.
	DispatchUoWFactory interface {
		Create() DispatchUoW
	}
)
