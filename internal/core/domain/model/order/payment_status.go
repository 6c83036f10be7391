package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// PaymentStatus tracks the payment side of an order independently of the
// delivery lifecycle. It is updated by external payment-processor events.
type PaymentStatus int

const (
	// PaymentUnknown is the invalid zero value.
	PaymentUnknown PaymentStatus = iota

	// PaymentPending means no settlement has been confirmed yet.
	PaymentPending

	// PaymentPaid means the payment processor confirmed settlement.
	PaymentPaid

	// PaymentFailed means the payment attempt was rejected.
	PaymentFailed

	// PaymentRefunded means a previously settled payment was returned.
	PaymentRefunded
)

func getPaymentStatusStrings() map[PaymentStatus]string {
	return map[PaymentStatus]string{
		PaymentUnknown:  "unknown",
		PaymentPending:  "pending",
		PaymentPaid:     "paid",
		PaymentFailed:   "failed",
		PaymentRefunded: "refunded",
	}
}

// ParsePaymentStatus converts a wire name back into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for status, str := range getPaymentStatusStrings() {
		if str == s && status != PaymentUnknown {
			return status, nil
		}
	}
	return PaymentUnknown, errs.NewValueIsInvalidErrorWithCause("paymentStatus",
		fmt.Errorf("%q is not a valid payment status", s))
}

// Validate checks that the PaymentStatus is one of the defined states.
func (s PaymentStatus) Validate() error {
	if s <= PaymentUnknown || s > PaymentRefunded {
		return errs.NewValueIsInvalidErrorWithCause("paymentStatus",
			fmt.Errorf("%d is not a valid payment status", s))
	}
	return nil
}

// String returns the lower-case wire name of the payment status.
func (s PaymentStatus) String() string {
	if str, ok := getPaymentStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}
