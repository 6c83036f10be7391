package queries

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetKitchenCapacityQueryHandler computes a kitchen's live load from order
// statuses. Capacity is never cached; the count reflects the store at query
// time.
type GetKitchenCapacityQueryHandler struct {
	db *gorm.DB
}

// NewGetKitchenCapacityQueryHandler creates a handler for capacity queries.
func NewGetKitchenCapacityQueryHandler(db *gorm.DB) GetKitchenCapacityQueryHandler {
	return GetKitchenCapacityQueryHandler{db: db}
}

// Handle returns the capacity snapshot, or errs.ErrObjectNotFound for an
// unknown kitchen.
func (h GetKitchenCapacityQueryHandler) Handle(
	ctx context.Context,
	query GetKitchenCapacityQuery,
) (GetKitchenCapacityQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetKitchenCapacityQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			k.id,
			k.name,
			k.max_concurrent,
			COUNT(o.id) FILTER (WHERE o.status = ?) AS preparing_count
		FROM kitchens k
		LEFT JOIN orders o ON o.kitchen_id = k.id
		WHERE k.id = ?
		GROUP BY k.id, k.name, k.max_concurrent
	`, order.Preparing.String(), query.KitchenID().Bytes()).Row()

	var (
		id             string
		name           string
		maxConcurrent  int
		preparingCount int
	)

	err := row.Scan(&id, &name, &maxConcurrent, &preparingCount)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return GetKitchenCapacityQueryResponse{},
			errs.NewObjectNotFoundError("kitchen", query.KitchenID().String())
	}
	if err != nil {
		return GetKitchenCapacityQueryResponse{}, err
	}

	kitchenID, err := kernel.UUIDFromString(id)
	if err != nil {
		return GetKitchenCapacityQueryResponse{}, err
	}

	available := maxConcurrent - preparingCount
	if available < 0 {
		available = 0
	}

	return GetKitchenCapacityQueryResponse{
		KitchenID:      kitchenID,
		Name:           name,
		MaxConcurrent:  maxConcurrent,
		PreparingCount: preparingCount,
		Available:      available,
	}, nil
}
