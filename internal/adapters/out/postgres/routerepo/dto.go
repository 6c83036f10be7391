// Package routerepo provides data transfer objects and mapping functions for route persistence.
// Only committed routes reach this package; candidate routes produced during
// optimization live and die in memory.
package routerepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
)

// RouteDTO represents the database structure for persisting committed routes.
type RouteDTO struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Zone                 string    `gorm:"type:varchar(255);not null"`
	DriverID             uuid.UUID `gorm:"type:uuid;not null;index"`
	TotalMeters          float64   `gorm:"not null"`
	TotalDurationSeconds int64     `gorm:"not null"`

	Stops []StopDTO `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for route entities.
func (RouteDTO) TableName() string {
	return "routes"
}

// StopDTO represents one delivery stop of a route in visiting sequence.
type StopDTO struct {
	RouteID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"primaryKey;autoIncrement:false"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Lat     float64
	Lng     float64
}

// TableName specifies the database table name for route stops.
func (StopDTO) TableName() string {
	return "route_stops"
}

// fromDomain converts a route domain aggregate to its database representation.
func fromDomain(aggregate *route.Route) RouteDTO {
	routeID := aggregate.ID().Bytes()

	stops := make([]StopDTO, 0, len(aggregate.Stops()))
	for i, stop := range aggregate.Stops() {
		stops = append(stops, StopDTO{
			RouteID: routeID,
			Seq:     i,
			OrderID: stop.OrderID().Bytes(),
			Lat:     stop.Location().Lat(),
			Lng:     stop.Location().Lng(),
		})
	}

	return RouteDTO{
		ID:                   routeID,
		Zone:                 aggregate.Zone(),
		DriverID:             aggregate.Driver().Bytes(),
		TotalMeters:          aggregate.TotalMeters(),
		TotalDurationSeconds: int64(aggregate.TotalDuration() / time.Second),
		Stops:                stops,
	}
}

// toDomain converts a database DTO to a route domain aggregate.
func toDomain(dto RouteDTO) (*route.Route, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	stops := make([]route.Stop, 0, len(dto.Stops))
	for _, stopDto := range dto.Stops {
		stop, stopErr := stopToDomain(stopDto)
		if stopErr != nil {
			return nil, stopErr
		}
		stops = append(stops, stop)
	}

	return route.RestoreRoute(
		id,
		dto.Zone,
		stops,
		dto.TotalMeters,
		time.Duration(dto.TotalDurationSeconds)*time.Second,
		driverID,
	)
}

// stopToDomain converts a stop DTO to its domain value object.
func stopToDomain(dto StopDTO) (route.Stop, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return route.Stop{}, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return route.Stop{}, err
	}

	return route.NewStop(orderID, location)
}
