package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrMarkPaymentCommandIsNotConstructed = errors.New(
	"MarkPaymentCommand must be created via NewMarkPaymentCommand constructor",
)

// MarkPaymentCommand represents a payment-processor event for an order:
// settlement, failure, or refund.
type MarkPaymentCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	status  order.PaymentStatus

	guard guard.ConstructorGuard
}

// NewMarkPaymentCommand creates a payment event for an order.
func NewMarkPaymentCommand(orderID kernel.UUID, status order.PaymentStatus) (MarkPaymentCommand, error) {
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return MarkPaymentCommand{}, err
	}

	return MarkPaymentCommand{
		orderID: orderID,
		status:  status,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c *MarkPaymentCommand) Validate() error {
	return c.guard.Validate(ErrMarkPaymentCommandIsNotConstructed)
}

// OrderID returns the order the payment event belongs to.
func (c MarkPaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Status returns the reported payment status.
func (c MarkPaymentCommand) Status() order.PaymentStatus {
	return c.status
}
