package kitchen

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Kitchen aggregate errors.
var (
	// ErrKitchenIsNotConstructed is returned when a Kitchen instance was not
	// created through NewKitchen or RestoreKitchen.
	ErrKitchenIsNotConstructed = errors.New("Kitchen must be created via NewKitchen or RestoreKitchen constructor")

	// ErrCapacityExceeded is returned when starting preparation would push a
	// kitchen past its concurrency limit.
	ErrCapacityExceeded = errors.New("kitchen is at maximum concurrent preparations")
)

const maxConcurrentLimit = 1000

// Kitchen is a preparation site with a fixed concurrency limit. The number of
// orders currently being prepared is not stored on the aggregate; it is
// derived live from the order store, so capacity can never drift out of sync
// with order statuses.
type Kitchen struct {
	id            kernel.UUID
	name          string
	location      kernel.GeoPoint
	maxConcurrent int

	guard guard.ConstructorGuard
}

// NewKitchen registers a preparation site. maxConcurrent must be positive.
func NewKitchen(id kernel.UUID, name string, location kernel.GeoPoint, maxConcurrent int) (*Kitchen, error) {
	k := &Kitchen{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		k.setID(id),
		k.setName(name),
		k.setLocation(location),
		k.setMaxConcurrent(maxConcurrent),
	); err != nil {
		return nil, err
	}

	return k, nil
}

// RestoreKitchen reconstructs a kitchen aggregate from persistent storage.
func RestoreKitchen(id kernel.UUID, name string, location kernel.GeoPoint, maxConcurrent int) (*Kitchen, error) {
	return NewKitchen(id, name, location, maxConcurrent)
}

// Validate ensures the Kitchen was created through a constructor.
func (k *Kitchen) Validate() error {
	if k == nil {
		return ErrKitchenIsNotConstructed
	}
	return k.guard.Validate(ErrKitchenIsNotConstructed)
}

// IsEqual compares two kitchens by identity.
func (k *Kitchen) IsEqual(other *Kitchen) bool {
	return other != nil && k.id.IsEqual(other.id)
}

// ID returns the kitchen's unique identifier.
func (k *Kitchen) ID() kernel.UUID {
	return k.id
}

// Name returns the kitchen's display name.
func (k *Kitchen) Name() string {
	return k.name
}

// Location returns the kitchen's coordinate.
func (k *Kitchen) Location() kernel.GeoPoint {
	return k.location
}

// MaxConcurrent returns the concurrency limit.
func (k *Kitchen) MaxConcurrent() int {
	return k.maxConcurrent
}

// CapacityWith builds a capacity snapshot from the live count of orders the
// kitchen is preparing right now.
func (k *Kitchen) CapacityWith(preparingCount int) (Capacity, error) {
	return NewCapacity(k.id, k.maxConcurrent, preparingCount)
}

func (k *Kitchen) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	k.id = id
	return nil
}

func (k *Kitchen) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	k.name = name
	return nil
}

func (k *Kitchen) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	k.location = location
	return nil
}

func (k *Kitchen) setMaxConcurrent(maxConcurrent int) error {
	if maxConcurrent < 1 || maxConcurrent > maxConcurrentLimit {
		return errs.NewValueIsOutOfRangeError("maxConcurrent", maxConcurrent, 1, maxConcurrentLimit)
	}
	k.maxConcurrent = maxConcurrent
	return nil
}

// Capacity is a point-in-time snapshot of a kitchen's load.
type Capacity struct {
	kitchenID      kernel.UUID
	maxConcurrent  int
	preparingCount int
}

// NewCapacity builds a capacity snapshot. The preparing count must not be
// negative; it may legitimately exceed the limit if the limit was lowered
// after orders entered preparation.
func NewCapacity(kitchenID kernel.UUID, maxConcurrent, preparingCount int) (Capacity, error) {
	if err := kitchenID.Validate(); err != nil {
		return Capacity{}, err
	}
	if preparingCount < 0 {
		return Capacity{}, errs.NewValueIsInvalidErrorWithCause("preparingCount",
			fmt.Errorf("%d is negative", preparingCount))
	}

	return Capacity{
		kitchenID:      kitchenID,
		maxConcurrent:  maxConcurrent,
		preparingCount: preparingCount,
	}, nil
}

// KitchenID returns the kitchen the snapshot describes.
func (c Capacity) KitchenID() kernel.UUID {
	return c.kitchenID
}

// MaxConcurrent returns the concurrency limit at snapshot time.
func (c Capacity) MaxConcurrent() int {
	return c.maxConcurrent
}

// PreparingCount returns the number of orders in preparation at snapshot time.
func (c Capacity) PreparingCount() int {
	return c.preparingCount
}

// Available returns the remaining slots, never negative.
func (c Capacity) Available() int {
	available := c.maxConcurrent - c.preparingCount
	if available < 0 {
		return 0
	}
	return available
}

// CanAccept reports whether one more order may enter preparation.
func (c Capacity) CanAccept() bool {
	return c.preparingCount < c.maxConcurrent
}
