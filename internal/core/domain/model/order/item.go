package order

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrItemIsNotConstructed is returned when validating a zero-value Item.
var ErrItemIsNotConstructed = errors.New("Item must be created via NewItem constructor")

// Item is one ordered line: a product reference with quantity and the unit
// price captured at order time. Prices are carried in minor currency units
// (cents) to avoid floating point drift.
type Item struct { //nolint:recvcheck //using for validation
	productID      kernel.UUID
	quantity       int
	unitPriceCents int64

	guard guard.ConstructorGuard
}

// NewItem creates an ordered line item. Quantity must be at least one and the
// unit price must not be negative.
func NewItem(productID kernel.UUID, quantity int, unitPriceCents int64) (Item, error) {
	item := Item{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		item.setProductID(productID),
		item.setQuantity(quantity),
		item.setUnitPriceCents(unitPriceCents),
	); err != nil {
		return Item{}, err
	}

	return item, nil
}

// Validate ensures the item was created via NewItem.
func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

// ProductID returns the referenced product.
func (i Item) ProductID() kernel.UUID {
	return i.productID
}

// Quantity returns the ordered quantity.
func (i Item) Quantity() int {
	return i.quantity
}

// UnitPriceCents returns the captured unit price in minor currency units.
func (i Item) UnitPriceCents() int64 {
	return i.unitPriceCents
}

// TotalCents returns quantity times unit price.
func (i Item) TotalCents() int64 {
	return int64(i.quantity) * i.unitPriceCents
}

func (i *Item) setProductID(productID kernel.UUID) error {
	if err := productID.Validate(); err != nil {
		return err
	}
	i.productID = productID
	return nil
}

func (i *Item) setQuantity(quantity int) error {
	if quantity < 1 {
		return errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not at least 1", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *Item) setUnitPriceCents(unitPriceCents int64) error {
	if unitPriceCents < 0 {
		return errs.NewValueIsInvalidErrorWithCause("unitPriceCents",
			fmt.Errorf("%d is negative", unitPriceCents))
	}
	i.unitPriceCents = unitPriceCents
	return nil
}
