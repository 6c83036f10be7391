package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetActiveRouteQueryHandler resolves a driver's committed route and its stop
// sequence straight from the database.
type GetActiveRouteQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveRouteQueryHandler creates a handler for active route lookups.
func NewGetActiveRouteQueryHandler(db *gorm.DB) GetActiveRouteQueryHandler {
	return GetActiveRouteQueryHandler{db: db}
}

// Handle returns the driver's active route with stops in sequence, or
// errs.ErrObjectNotFound when the driver has none.
func (h GetActiveRouteQueryHandler) Handle(
	ctx context.Context,
	query GetActiveRouteQuery,
) (GetActiveRouteQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetActiveRouteQueryResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			r.id,
			r.zone,
			r.total_meters,
			r.total_duration_seconds,
			s.order_id,
			s.lat,
			s.lng
		FROM drivers d
		JOIN routes r ON r.id = d.route_id
		JOIN route_stops s ON s.route_id = r.id
		WHERE d.id = ?
		ORDER BY s.seq
	`, query.DriverID().Bytes()).Rows()
	if err != nil {
		return GetActiveRouteQueryResponse{}, err
	}
	defer rows.Close()

	var response GetActiveRouteQueryResponse

	for rows.Next() {
		var (
			routeID         string
			zone            string
			totalMeters     float64
			durationSeconds int64
			orderID         string
			lat             float64
			lng             float64
		)

		if err = rows.Scan(&routeID, &zone, &totalMeters, &durationSeconds, &orderID, &lat, &lng); err != nil {
			return GetActiveRouteQueryResponse{}, err
		}

		if response.Stops == nil {
			id, idErr := kernel.UUIDFromString(routeID)
			if idErr != nil {
				return GetActiveRouteQueryResponse{}, idErr
			}
			response.RouteID = id
			response.Zone = zone
			response.TotalMeters = totalMeters
			response.TotalDuration = time.Duration(durationSeconds) * time.Second
			response.Stops = make([]GetActiveRouteQueryStop, 0)
		}

		stopOrderID, idErr := kernel.UUIDFromString(orderID)
		if idErr != nil {
			return GetActiveRouteQueryResponse{}, idErr
		}
		location, locErr := kernel.NewGeoPoint(lat, lng)
		if locErr != nil {
			return GetActiveRouteQueryResponse{}, locErr
		}

		response.Stops = append(response.Stops, GetActiveRouteQueryStop{
			OrderID:  stopOrderID,
			Location: location,
		})
	}

	if err = rows.Err(); err != nil {
		return GetActiveRouteQueryResponse{}, err
	}

	if response.Stops == nil {
		return GetActiveRouteQueryResponse{},
			errs.NewObjectNotFoundError("route", query.DriverID().String())
	}

	return response, nil
}
