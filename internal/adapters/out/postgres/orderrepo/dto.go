// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Maps order domain entities to relational database tables with proper indexing
// for efficient querying by status, kitchen, and driver assignment.
type OrderDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	KitchenID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status        string     `gorm:"type:varchar(32);not null;index"`
	PaymentStatus string     `gorm:"type:varchar(32);not null"`
	DriverID      *uuid.UUID `gorm:"type:uuid;index"`

	Street       string `gorm:"type:varchar(255);not null"`
	City         string `gorm:"type:varchar(255)"`
	PostalCode   string `gorm:"type:varchar(32)"`
	Instructions string `gorm:"type:text"`
	Lat          float64
	Lng          float64

	ScheduledAt            time.Time `gorm:"not null"`
	PreparationStartedAt   *time.Time
	PreparationCompletedAt *time.Time

	Items    []ItemDTO          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Timeline []TimelineEntryDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO represents one persisted order line item. Line items are written once
// with the order and never change afterwards.
type ItemDTO struct {
	OrderID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq            int       `gorm:"primaryKey;autoIncrement:false"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int       `gorm:"not null"`
	UnitPriceCents int64     `gorm:"not null"`
}

// TableName specifies the database table name for order line items.
func (ItemDTO) TableName() string {
	return "order_items"
}

// TimelineEntryDTO represents one persisted entry of the append-only order
// history. The (order_id, seq) key makes re-inserting existing entries a no-op,
// so updates only ever append.
type TimelineEntryDTO struct {
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        int       `gorm:"primaryKey;autoIncrement:false"`
	Status     string    `gorm:"type:varchar(32);not null"`
	RecordedAt time.Time `gorm:"not null"`
	Note       string    `gorm:"type:text"`
}

// TableName specifies the database table name for order timeline entries.
func (TimelineEntryDTO) TableName() string {
	return "order_timeline"
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including line items, the timeline, preparation
// timing, and the optional driver assignment.
func fromDomain(aggregate *order.Order) OrderDTO {
	orderID := aggregate.ID().Bytes()

	var driverID *uuid.UUID
	if id := aggregate.Driver(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for i, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			OrderID:        orderID,
			Seq:            i,
			ProductID:      item.ProductID().Bytes(),
			Quantity:       item.Quantity(),
			UnitPriceCents: item.UnitPriceCents(),
		})
	}

	timeline := make([]TimelineEntryDTO, 0, len(aggregate.Timeline()))
	for i, entry := range aggregate.Timeline() {
		timeline = append(timeline, TimelineEntryDTO{
			OrderID:    orderID,
			Seq:        i,
			Status:     entry.Status().String(),
			RecordedAt: entry.RecordedAt(),
			Note:       entry.Note(),
		})
	}

	address := aggregate.Address()
	preparation := aggregate.Preparation()

	return OrderDTO{
		ID:            orderID,
		CustomerID:    aggregate.CustomerID().Bytes(),
		KitchenID:     aggregate.KitchenID().Bytes(),
		Status:        aggregate.Status().String(),
		PaymentStatus: aggregate.PaymentStatus().String(),
		DriverID:      driverID,

		Street:       address.Street(),
		City:         address.City(),
		PostalCode:   address.PostalCode(),
		Instructions: address.Instructions(),
		Lat:          address.Location().Lat(),
		Lng:          address.Location().Lng(),

		ScheduledAt:            aggregate.ScheduledAt(),
		PreparationStartedAt:   preparation.StartedAt(),
		PreparationCompletedAt: preparation.CompletedAt(),

		Items:    items,
		Timeline: timeline,
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including status, payment state, driver
// assignment, preparation timing, and the timeline using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	kitchenID, err := kernel.UUIDFromBytes(dto.KitchenID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}
		driverID = &dID
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := order.ParsePaymentStatus(dto.PaymentStatus)
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}
	address, err := order.NewAddress(dto.Street, dto.City, dto.PostalCode, dto.Instructions, location)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDto := range dto.Items {
		item, itemErr := itemToDomain(itemDto)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	timeline := make([]order.TimelineEntry, 0, len(dto.Timeline))
	for _, entryDto := range dto.Timeline {
		entry, entryErr := timelineEntryToDomain(entryDto)
		if entryErr != nil {
			return nil, entryErr
		}
		timeline = append(timeline, entry)
	}

	return order.RestoreOrder(
		id,
		customerID,
		kitchenID,
		items,
		address,
		dto.ScheduledAt,
		status,
		paymentStatus,
		driverID,
		order.RestorePreparation(dto.PreparationStartedAt, dto.PreparationCompletedAt),
		timeline,
	)
}

// itemToDomain converts a line item DTO to its domain value object.
func itemToDomain(dto ItemDTO) (order.Item, error) {
	productID, err := kernel.UUIDFromBytes(dto.ProductID[:])
	if err != nil {
		return order.Item{}, err
	}

	return order.NewItem(productID, dto.Quantity, dto.UnitPriceCents)
}

// timelineEntryToDomain converts a timeline entry DTO to its domain value object.
func timelineEntryToDomain(dto TimelineEntryDTO) (order.TimelineEntry, error) {
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return order.TimelineEntry{}, err
	}

	return order.NewTimelineEntry(status, dto.RecordedAt, dto.Note)
}
