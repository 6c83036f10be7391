package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrTransitionOrderCommandIsNotConstructed = errors.New(
		"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
	)

	// ErrTargetHasDedicatedWorkflow is returned for target statuses that are
	// driven by their own handlers: Preparing and Ready belong to the
	// kitchen workflow, Delivering to the dispatch cycle.
	ErrTargetHasDedicatedWorkflow = errors.New("target status is driven by a dedicated workflow")
)

// TransitionOrderCommand represents a request to move an order along the
// lifecycle graph: confirming it, marking it delivered, or cancelling it.
//
// Kitchen statuses (Preparing, Ready) are reached through the preparation
// commands and Delivering through the optimization cycle; this command
// rejects those targets.
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.Status
	note    string

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a transition request. The note is an
// optional annotation recorded on the order's timeline.
func NewTransitionOrderCommand(orderID kernel.UUID, target order.Status, note string) (TransitionOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), target.Validate()); err != nil {
		return TransitionOrderCommand{}, err
	}

	switch target {
	case order.Preparing, order.Ready, order.Delivering:
		return TransitionOrderCommand{}, fmt.Errorf("%w: %s", ErrTargetHasDedicatedWorkflow, target)
	case order.Pending:
		return TransitionOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("target",
			errors.New("pending is the initial status"))
	case order.Unknown, order.Confirmed, order.Delivered, order.Cancelled:
	}

	return TransitionOrderCommand{
		orderID: orderID,
		target:  target,
		note:    note,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrderID returns the order to transition.
func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Target returns the requested status.
func (c TransitionOrderCommand) Target() order.Status {
	return c.target
}

// Note returns the optional timeline annotation.
func (c TransitionOrderCommand) Note() string {
	return c.note
}
