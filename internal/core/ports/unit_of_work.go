package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary. It provides
// transaction control and repositories bound to the running transaction.
// Client code must explicitly manage the transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction. Safe to defer after a
	// successful Commit.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current
	// transaction.
	OrderRepository() OrderRepository

	// DriverRepository returns a DriverRepository bound to the current
	// transaction.
	DriverRepository() DriverRepository

	// KitchenRepository returns a KitchenRepository bound to the current
	// transaction.
	KitchenRepository() KitchenRepository

	// RouteRepository returns a RouteRepository bound to the current
	// transaction.
	RouteRepository() RouteRepository
}
