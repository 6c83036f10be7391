package commands

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
)

// CreateDriverCommandHandler registers new delivery drivers.
type CreateDriverCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewCreateDriverCommandHandler creates a handler for driver registration.
func NewCreateDriverCommandHandler(uowFactory DriverUoWFactory) CreateDriverCommandHandler {
	return CreateDriverCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle registers the driver as Available.
func (h CreateDriverCommandHandler) Handle(ctx context.Context, command CreateDriverCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	aggregate, err := driver.NewDriver(
		command.DriverID(),
		command.Name(),
		command.Location(),
		command.Zones(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DriverRepository().Add(ctx, aggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
