// Package kitchenrepo provides data transfer objects and mapping functions for kitchen persistence.
package kitchenrepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"

	"github.com/google/uuid"
)

// KitchenDTO represents the database structure for persisting kitchen
// aggregates. The live preparing count is never stored here; it is derived
// from the orders table on demand.
type KitchenDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	MaxConcurrent int       `gorm:"not null"`
	Lat           float64
	Lng           float64
}

// TableName specifies the database table name for kitchen entities.
func (KitchenDTO) TableName() string {
	return "kitchens"
}

// fromDomain converts a kitchen domain aggregate to its database representation.
func fromDomain(aggregate *kitchen.Kitchen) KitchenDTO {
	return KitchenDTO{
		ID:            aggregate.ID().Bytes(),
		Name:          aggregate.Name(),
		MaxConcurrent: aggregate.MaxConcurrent(),
		Lat:           aggregate.Location().Lat(),
		Lng:           aggregate.Location().Lng(),
	}
}

// toDomain converts a database DTO to a kitchen domain aggregate.
func toDomain(dto KitchenDTO) (*kitchen.Kitchen, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}

	return kitchen.RestoreKitchen(id, dto.Name, location, dto.MaxConcurrent)
}
