package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetOrdersByStatusQueryHandler lists orders in one lifecycle status straight
// from the database.
type GetOrdersByStatusQueryHandler struct {
	db *gorm.DB
}

// NewGetOrdersByStatusQueryHandler creates a handler for status listings.
func NewGetOrdersByStatusQueryHandler(db *gorm.DB) GetOrdersByStatusQueryHandler {
	return GetOrdersByStatusQueryHandler{db: db}
}

// Handle lists the matching orders sorted by id for consistent output.
func (h GetOrdersByStatusQueryHandler) Handle(
	ctx context.Context,
	query GetOrdersByStatusQuery,
) ([]GetOrdersByStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			kitchen_id,
			status,
			lat,
			lng,
			scheduled_at
		FROM orders
		WHERE status = ?
		ORDER BY id
	`, query.Status().String()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]GetOrdersByStatusQueryResponse, 0)

	for rows.Next() {
		var (
			id          string
			customerID  string
			kitchenID   string
			status      string
			lat         float64
			lng         float64
			scheduledAt time.Time
		)

		if err = rows.Scan(&id, &customerID, &kitchenID, &status, &lat, &lng, &scheduledAt); err != nil {
			return nil, err
		}

		response, buildErr := buildOrderResponse(id, customerID, kitchenID, status, lat, lng, scheduledAt)
		if buildErr != nil {
			return nil, buildErr
		}

		responses = append(responses, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return responses, nil
}

func buildOrderResponse(
	id, customerID, kitchenID, status string,
	lat, lng float64,
	scheduledAt time.Time,
) (GetOrdersByStatusQueryResponse, error) {
	orderID, err := kernel.UUIDFromString(id)
	if err != nil {
		return GetOrdersByStatusQueryResponse{}, err
	}
	customerUUID, err := kernel.UUIDFromString(customerID)
	if err != nil {
		return GetOrdersByStatusQueryResponse{}, err
	}
	kitchenUUID, err := kernel.UUIDFromString(kitchenID)
	if err != nil {
		return GetOrdersByStatusQueryResponse{}, err
	}
	parsedStatus, err := order.ParseStatus(status)
	if err != nil {
		return GetOrdersByStatusQueryResponse{}, err
	}
	location, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		return GetOrdersByStatusQueryResponse{}, err
	}

	return GetOrdersByStatusQueryResponse{
		ID:          orderID,
		CustomerID:  customerUUID,
		KitchenID:   kitchenUUID,
		Status:      parsedStatus,
		Location:    location,
		ScheduledAt: scheduledAt,
	}, nil
}
