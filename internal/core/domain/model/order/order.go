package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Order aggregate errors.
var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrDriverAlreadyAssigned is returned when assigning a driver to an
	// order that already carries one.
	ErrDriverAlreadyAssigned = errors.New("order already has a delivery driver")

	// ErrPreparationNotStarted is returned when completing preparation that
	// was never started.
	ErrPreparationNotStarted = errors.New("preparation has not been started")

	// ErrPreparationAlreadyStarted is returned when starting preparation
	// twice. Queue handlers rely on this to stay idempotent.
	ErrPreparationAlreadyStarted = errors.New("preparation has already been started")
)

// Preparation records kitchen timing for an order. Both timestamps are nil
// until the kitchen starts and finishes the order.
type Preparation struct {
	startedAt   *time.Time
	completedAt *time.Time
}

// RestorePreparation rebuilds preparation timing from persistence.
func RestorePreparation(startedAt, completedAt *time.Time) Preparation {
	return Preparation{startedAt: startedAt, completedAt: completedAt}
}

// StartedAt returns when the kitchen began the order, nil if not started.
func (p Preparation) StartedAt() *time.Time {
	return p.startedAt
}

// CompletedAt returns when the kitchen finished the order, nil if unfinished.
func (p Preparation) CompletedAt() *time.Time {
	return p.completedAt
}

// Duration returns the measured preparation time. The second return value is
// false while the order is still being prepared.
func (p Preparation) Duration() (time.Duration, bool) {
	if p.startedAt == nil || p.completedAt == nil {
		return 0, false
	}
	return p.completedAt.Sub(*p.startedAt), true
}

// Order is the aggregate root of the delivery lifecycle. It owns the status
// state machine, the append-only timeline, payment state, kitchen preparation
// timing, and the driver assignment.
//
// Invariants:
//   - status moves only along the lifecycle graph (see Status)
//   - the timeline is append-only and monotonic in wall-clock time
//   - a delivery driver is attached iff status is Delivering or Delivered
//   - the total amount is the sum over line items
//
// All mutation goes through validated methods; direct struct construction is
// rejected by Validate.
type Order struct {
	id          kernel.UUID
	customerID  kernel.UUID
	kitchenID   kernel.UUID
	items       []Item
	address     Address
	scheduledAt time.Time

	status        Status
	paymentStatus PaymentStatus
	driverID      *kernel.UUID
	preparation   Preparation
	timeline      []TimelineEntry

	guard guard.ConstructorGuard
}

// NewOrder creates a freshly placed order in Pending status with a seeded
// timeline entry at placedAt. At least one line item is required.
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	kitchenID kernel.UUID,
	items []Item,
	address Address,
	scheduledAt time.Time,
	placedAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		paymentStatus: PaymentPending,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setKitchenID(kitchenID),
		o.setItems(items),
		o.setAddress(address),
		o.setScheduledAt(scheduledAt),
	); err != nil {
		return nil, err
	}

	if err := o.appendTimeline(Pending, placedAt, "order placed"); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an order aggregate from persistent storage,
// including its current status, payment state, driver assignment, preparation
// timing, and full timeline. The status/driver consistency rule is enforced
// on restore so corrupt rows never become live aggregates.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	kitchenID kernel.UUID,
	items []Item,
	address Address,
	scheduledAt time.Time,
	status Status,
	paymentStatus PaymentStatus,
	driverID *kernel.UUID,
	preparation Preparation,
	timeline []TimelineEntry,
) (*Order, error) {
	o := &Order{
		preparation: preparation,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setKitchenID(kitchenID),
		o.setItems(items),
		o.setAddress(address),
		o.setScheduledAt(scheduledAt),
		o.setStatus(status),
		o.setPaymentStatus(paymentStatus),
		o.setDriverID(driverID),
		o.setTimeline(timeline),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the placing customer's identifier.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// KitchenID returns the kitchen responsible for preparation.
func (o *Order) KitchenID() kernel.UUID {
	return o.kitchenID
}

// Items returns a copy of the ordered line items.
func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

// Address returns the delivery destination.
func (o *Order) Address() Address {
	return o.address
}

// ScheduledAt returns the requested delivery time.
func (o *Order) ScheduledAt() time.Time {
	return o.scheduledAt
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// PaymentStatus returns the current payment state.
func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

// Driver returns the assigned delivery driver, nil while unassigned.
func (o *Order) Driver() *kernel.UUID {
	return o.driverID
}

// Preparation returns the kitchen timing record.
func (o *Order) Preparation() Preparation {
	return o.preparation
}

// Timeline returns a copy of the append-only status history.
func (o *Order) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, len(o.timeline))
	copy(out, o.timeline)
	return out
}

// TotalAmountCents returns the order total as the sum over line items.
func (o *Order) TotalAmountCents() int64 {
	var total int64
	for _, item := range o.items {
		total += item.TotalCents()
	}
	return total
}

// TransitionTo moves the order along one edge of the lifecycle graph and
// appends the matching timeline entry. It fails with ErrAlreadyTerminal for
// Delivered/Cancelled orders and ErrInvalidTransition for missing edges.
//
// Entering Delivering requires a driver assigned beforehand via AssignDriver;
// entering Cancelled detaches any driver so the status/driver consistency
// rule keeps holding.
func (o *Order) TransitionTo(target Status, note string, at time.Time) error {
	newStatus, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}

	if newStatus == Delivering && o.driverID == nil {
		return errs.NewValueIsRequiredError("delivery driver")
	}

	if err = o.appendTimeline(newStatus, at, note); err != nil {
		return err
	}

	if newStatus == Cancelled {
		o.driverID = nil
	}

	o.status = newStatus
	return nil
}

// AssignDriver attaches a delivery driver to an order awaiting dispatch. The
// order must be Ready and unassigned; the actual move into Delivering happens
// through TransitionTo.
func (o *Order) AssignDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if o.status != Ready {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, Delivering)
	}

	if o.driverID != nil {
		return ErrDriverAlreadyAssigned
	}

	o.driverID = &driverID
	return nil
}

// MarkPayment records a payment-processor event against the order.
func (o *Order) MarkPayment(status PaymentStatus) error {
	return o.setPaymentStatus(status)
}

// StartPreparation records the kitchen start timestamp. The order must
// already be Preparing; starting twice is rejected so retried queue jobs do
// not overwrite the original timing.
func (o *Order) StartPreparation(at time.Time) error {
	if o.status != Preparing {
		return fmt.Errorf("%w: cannot start preparation in status %s", ErrInvalidTransition, o.status)
	}

	if o.preparation.startedAt != nil {
		return ErrPreparationAlreadyStarted
	}

	started := at
	o.preparation.startedAt = &started
	return nil
}

// CompletePreparation records the kitchen end timestamp. Preparation must
// have been started first.
func (o *Order) CompletePreparation(at time.Time) error {
	if o.preparation.startedAt == nil {
		return ErrPreparationNotStarted
	}

	if at.Before(*o.preparation.startedAt) {
		return errs.NewValueIsInvalidErrorWithCause("completedAt",
			fmt.Errorf("%s is before preparation start %s", at, *o.preparation.startedAt))
	}

	completed := at
	o.preparation.completedAt = &completed
	return nil
}

// appendTimeline adds an entry, enforcing monotonic wall-clock ordering.
func (o *Order) appendTimeline(status Status, at time.Time, note string) error {
	if len(o.timeline) > 0 {
		last := o.timeline[len(o.timeline)-1]
		if at.Before(last.RecordedAt()) {
			return fmt.Errorf("%w: %s is before %s", ErrTimelineNotMonotonic, at, last.RecordedAt())
		}
	}

	entry, err := NewTimelineEntry(status, at, note)
	if err != nil {
		return err
	}

	o.timeline = append(o.timeline, entry)
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("customerID", err)
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setKitchenID(kitchenID kernel.UUID) error {
	if err := kitchenID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("kitchenID", err)
	}
	o.kitchenID = kitchenID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	o.items = make([]Item, len(items))
	copy(o.items, items)
	return nil
}

func (o *Order) setAddress(address Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.address = address
	return nil
}

func (o *Order) setScheduledAt(scheduledAt time.Time) error {
	if scheduledAt.IsZero() {
		return errs.NewValueIsRequiredError("scheduledAt")
	}
	o.scheduledAt = scheduledAt
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setPaymentStatus(status PaymentStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.paymentStatus = status
	return nil
}

func (o *Order) setDriverID(driverID *kernel.UUID) error {
	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return err
		}
	}

	if err := o.status.ValidateCanHaveDriver(driverID != nil); err != nil {
		return err
	}

	o.driverID = driverID
	return nil
}

func (o *Order) setTimeline(timeline []TimelineEntry) error {
	if len(timeline) == 0 {
		return errs.NewValueIsRequiredError("timeline")
	}

	for i, entry := range timeline {
		if err := entry.Validate(); err != nil {
			return err
		}
		if i > 0 && entry.RecordedAt().Before(timeline[i-1].RecordedAt()) {
			return ErrTimelineNotMonotonic
		}
	}

	o.timeline = make([]TimelineEntry, len(timeline))
	copy(o.timeline, timeline)
	return nil
}
