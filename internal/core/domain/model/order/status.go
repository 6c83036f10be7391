package order

import (
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Domain errors raised by the status state machine.
var (
	// ErrInvalidTransition is returned when a requested status change has no
	// edge in the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrAlreadyTerminal is returned when a transition is requested on an
	// order that already reached Delivered or Cancelled.
	ErrAlreadyTerminal = errors.New("order is in a terminal status")
)

// Status represents the lifecycle state of an order. It implements a state
// machine whose transitions mirror the physical flow of a delivery order:
//
//	Pending -> Confirmed -> Preparing -> Ready -> Delivering -> Delivered
//
// Cancelled is reachable from every non-terminal status. Delivered and
// Cancelled are terminal; no edge leaves them.
type Status int

const (
	// Unknown represents an invalid or undefined status. The zero value helps
	// catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a freshly placed order.
	Pending

	// Confirmed means the order was accepted (payment authorized, call-center
	// approved) and may be handed to a kitchen.
	Confirmed

	// Preparing means a kitchen is actively working on the order. Entry into
	// this status is subject to kitchen capacity.
	Preparing

	// Ready means preparation finished and the order awaits dispatch.
	Ready

	// Delivering means the order is on a committed route with an assigned
	// driver.
	Delivering

	// Delivered is the terminal success status.
	Delivered

	// Cancelled is the terminal abort status, reachable from any non-terminal
	// status.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Confirmed:  "confirmed",
		Preparing:  "preparing",
		Ready:      "ready",
		Delivering: "delivering",
		Delivered:  "delivered",
		Cancelled:  "cancelled",
	}
}

// transitions is the full edge set of the lifecycle graph. Cancelled is
// handled separately because it is reachable from every non-terminal status.
func transitions() map[Status]Status {
	return map[Status]Status{
		Pending:    Confirmed,
		Confirmed:  Preparing,
		Preparing:  Ready,
		Ready:      Delivering,
		Delivering: Delivered,
	}
}

// ParseStatus converts the wire representation ("pending", "ready", ...) into
// a Status. Returns an error for unrecognized input.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid order status", s))
}

// Validate checks that the Status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the lower-case wire name of the status. Implements
// fmt.Stringer; safe on any value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether an edge exists from s to target without
// performing the transition.
func (s Status) CanTransitionTo(target Status) bool {
	if s.Validate() != nil || target.Validate() != nil {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target == Cancelled {
		return true
	}
	return transitions()[s] == target
}

// TransitionTo returns the new status if the edge exists. Terminal statuses
// reject everything with ErrAlreadyTerminal; missing edges are rejected with
// ErrInvalidTransition. Both errors carry the offending edge for diagnostics.
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := errors.Join(s.Validate(), target.Validate()); err != nil {
		return Unknown, err
	}

	if s.IsTerminal() {
		return Unknown, fmt.Errorf("%w: %s", ErrAlreadyTerminal, s)
	}

	if !s.CanTransitionTo(target) {
		return Unknown, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, target)
	}

	return target, nil
}

// ValidateCanHaveDriver enforces the consistency rule between order status and
// driver assignment: a delivery driver is attached if and only if the order is
// Delivering or Delivered.
func (s Status) ValidateCanHaveDriver(hasDriver bool) error {
	inDelivery := s == Delivering || s == Delivered

	if hasDriver && !inDelivery {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s order must not have a delivery driver", s))
	}

	if !hasDriver && inDelivery {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s order must have a delivery driver", s))
	}

	return nil
}
