package commands

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/driver"
)

// CompleteRouteCommandHandler releases a driver from their route once every
// order on it reached a terminal status. Orders cancelled mid-route count as
// settled; only orders still out for delivery block completion.
type CompleteRouteCommandHandler struct {
	uowFactory DispatchUoWFactory
}

// NewCompleteRouteCommandHandler creates a handler for route completion.
func NewCompleteRouteCommandHandler(uowFactory DispatchUoWFactory) CompleteRouteCommandHandler {
	return CompleteRouteCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle closes the driver's active route with a conditional driver update.
func (h CompleteRouteCommandHandler) Handle(ctx context.Context, command CompleteRouteCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driversRepo := uow.DriverRepository()

	d, err := driversRepo.Get(ctx, command.DriverID())
	if err != nil {
		return err
	}

	active, err := uow.RouteRepository().GetActiveByDriver(ctx, d.ID())
	if err != nil {
		return err
	}

	ordersRepo := uow.OrderRepository()
	for _, orderID := range active.OrderIDs() {
		o, err := ordersRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status().IsTerminal() {
			return fmt.Errorf("%w: order %s is %s", ErrRouteHasUndeliveredOrders, o.ID(), o.Status())
		}
	}

	if err = d.CompleteRoute(); err != nil {
		return err
	}

	if err = driversRepo.UpdateIfStatus(ctx, d, driver.Delivering); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
