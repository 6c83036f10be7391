package order

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when validating a zero-value Address.
var ErrAddressIsNotConstructed = errors.New("Address must be created via NewAddress constructor")

// Address is the delivery destination of an order: a postal address plus the
// validated coordinate the dispatch engine actually routes on.
type Address struct { //nolint:recvcheck //using for validation
	street       string
	city         string
	postalCode   string
	instructions string
	location     kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewAddress creates a delivery address. Street and a valid location are
// required; city, postal code, and courier instructions are optional.
func NewAddress(street, city, postalCode, instructions string, location kernel.GeoPoint) (Address, error) {
	address := Address{
		city:         city,
		postalCode:   postalCode,
		instructions: instructions,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		address.setStreet(street),
		address.setLocation(location),
	); err != nil {
		return Address{}, err
	}

	return address, nil
}

// Validate ensures the address was created via NewAddress.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// Street returns the street line of the address.
func (a Address) Street() string {
	return a.street
}

// City returns the city, possibly empty.
func (a Address) City() string {
	return a.city
}

// PostalCode returns the postal code, possibly empty.
func (a Address) PostalCode() string {
	return a.postalCode
}

// Instructions returns free-form courier instructions, possibly empty.
func (a Address) Instructions() string {
	return a.instructions
}

// Location returns the routed coordinate of the address.
func (a Address) Location() kernel.GeoPoint {
	return a.location
}

func (a *Address) setStreet(street string) error {
	if street == "" {
		return errs.NewValueIsRequiredError("street")
	}
	a.street = street
	return nil
}

func (a *Address) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	a.location = location
	return nil
}
