package commands

import (
	"context"
)

// MoveDriverCommandHandler records driver position reports. Positions feed
// the nearest-neighbor planning of the next optimization cycle.
type MoveDriverCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewMoveDriverCommandHandler creates a handler for position reports.
func NewMoveDriverCommandHandler(uowFactory DriverUoWFactory) MoveDriverCommandHandler {
	return MoveDriverCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle stores the driver's reported position.
func (h MoveDriverCommandHandler) Handle(ctx context.Context, command MoveDriverCommand) error {
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

	aggregate, err := driversRepo.Get(ctx, command.DriverID())
	if err != nil {
		return err
	}

	if err = aggregate.MoveTo(command.Location()); err != nil {
		return err
	}

	if err = driversRepo.Update(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
