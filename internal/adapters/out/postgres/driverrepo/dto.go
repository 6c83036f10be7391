// Package driverrepo provides data transfer objects and mapping functions for driver persistence.
// This package implements the repository pattern for the driver domain aggregate, handling
// the conversion between domain entities and database representations.
package driverrepo

import (
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DriverDTO represents the database structure for persisting driver aggregates.
// The served zones live in a child table so dispatch can filter by zone in SQL.
type DriverDTO struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name    string     `gorm:"type:varchar(255);not null"`
	Status  string     `gorm:"type:varchar(32);not null;index"`
	Lat     float64
	Lng     float64
	RouteID *uuid.UUID `gorm:"type:uuid;index"`

	Zones []ZoneDTO `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for driver entities.
// Overrides GORM's default naming convention to use "drivers".
func (DriverDTO) TableName() string {
	return "drivers"
}

// ZoneDTO represents one zone a driver serves.
type ZoneDTO struct {
	DriverID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Zone     string    `gorm:"type:varchar(255);primaryKey"`
}

// TableName specifies the database table name for driver zone assignments.
func (ZoneDTO) TableName() string {
	return "driver_zones"
}

// fromDomain converts a driver domain aggregate to its database representation.
func fromDomain(aggregate *driver.Driver) DriverDTO {
	driverID := aggregate.ID().Bytes()

	var routeID *uuid.UUID
	if id := aggregate.Route(); id != nil {
		raw := id.Bytes()
		routeID = &raw
	}

	zones := make([]ZoneDTO, 0, len(aggregate.Zones()))
	for _, zone := range aggregate.Zones() {
		zones = append(zones, ZoneDTO{
			DriverID: driverID,
			Zone:     zone,
		})
	}

	return DriverDTO{
		ID:      driverID,
		Name:    aggregate.Name(),
		Status:  aggregate.Status().String(),
		Lat:     aggregate.Location().Lat(),
		Lng:     aggregate.Location().Lng(),
		RouteID: routeID,
		Zones:   zones,
	}
}

// toDomain converts a database DTO to a driver domain aggregate.
// Reconstructs the complete aggregate including status, position, zones, and
// the active route using RestoreDriver.
func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := driver.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}

	var routeID *kernel.UUID
	if dto.RouteID != nil {
		rID, routeErr := kernel.UUIDFromBytes((*dto.RouteID)[:])
		if routeErr != nil {
			return nil, routeErr
		}
		routeID = &rID
	}

	zones := make([]string, 0, len(dto.Zones))
	for _, zone := range dto.Zones {
		zones = append(zones, zone.Zone)
	}

	return driver.RestoreDriver(id, dto.Name, status, location, zones, routeID)
}
