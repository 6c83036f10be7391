package driver

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the availability of a delivery driver. Only Available
// drivers are considered by the dispatch engine; a driver moves to Delivering
// when a route is committed to them and back to Available when the route is
// completed. Offline and OnBreak drivers are invisible to dispatch.
type Status int

const (
	// Unknown is the invalid zero value.
	Unknown Status = iota

	// Available means the driver is on shift and may be claimed for a route.
	Available

	// Delivering means the driver is executing a committed route.
	Delivering

	// Offline means the driver is off shift.
	Offline

	// OnBreak means the driver is on shift but temporarily not dispatchable.
	OnBreak
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Available:  "available",
		Delivering: "delivering",
		Offline:    "offline",
		OnBreak:    "break",
	}
}

// ParseStatus converts the wire representation into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("driverStatus",
		fmt.Errorf("%q is not a valid driver status", s))
}

// Validate checks that the Status is one of the defined states.
func (s Status) Validate() error {
	if s <= Unknown || s > OnBreak {
		return errs.NewValueIsInvalidErrorWithCause("driverStatus",
			fmt.Errorf("%d is not a valid driver status", s))
	}
	return nil
}

// String returns the lower-case wire name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// ValidateCanHaveRoute enforces the consistency rule between driver status and
// route assignment: a route is attached if and only if the driver is
// Delivering.
func (s Status) ValidateCanHaveRoute(hasRoute bool) error {
	if hasRoute && s != Delivering {
		return errs.NewValueIsInvalidErrorWithCause("driverStatus",
			fmt.Errorf("%s driver must not have a route", s))
	}

	if !hasRoute && s == Delivering {
		return errs.NewValueIsInvalidErrorWithCause("driverStatus",
			fmt.Errorf("%s driver must have a route", s))
	}

	return nil
}
