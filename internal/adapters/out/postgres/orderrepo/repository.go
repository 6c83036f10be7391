package orderrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its line items and seeded timeline.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order unconditionally. New timeline entries are
// appended; already persisted entries are left untouched.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	return r.update(ctx, aggregate, nil)
}

// UpdateIfStatus saves the order only if the stored status still equals
// expected. Losing the race to a concurrent writer yields errs.ErrConflictRetry
// and leaves the row untouched.
func (r *GormOrderRepository) UpdateIfStatus(
	ctx context.Context,
	aggregate *order.Order,
	expected order.Status,
) error {
	return r.update(ctx, aggregate, &expected)
}

func (r *GormOrderRepository) update(ctx context.Context, aggregate *order.Order, expected *order.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)

	tx := r.db.WithContext(ctx).Model(&OrderDTO{}).Select("*").Omit("Items", "Timeline")
	if expected != nil {
		tx = tx.Where("id = ? AND status = ?", dto.ID, expected.String())
	} else {
		tx = tx.Where("id = ?", dto.ID)
	}

	result := tx.Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if expected != nil {
			return errs.NewConflictError("order", aggregate.ID().String())
		}
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if err := r.appendTimeline(ctx, dto.Timeline); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// appendTimeline inserts timeline entries, skipping those already stored. The
// timeline is append-only, so conflicting rows are by definition identical.
func (r *GormOrderRepository) appendTimeline(ctx context.Context, entries []TimelineEntryDTO) error {
	if len(entries) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
}

// Get retrieves an order by ID with its line items and full timeline.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items", sortBySeq).
		Preload("Timeline", sortBySeq).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllInStatus retrieves every order in the given status, ordered by id for
// deterministic processing.
func (r *GormOrderRepository) GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items", sortBySeq).
		Preload("Timeline", sortBySeq).
		Order("id").
		Find(&dtos, "status = ?", status.String()).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// CountPreparingForKitchen returns the live number of orders the kitchen is
// preparing right now.
func (r *GormOrderRepository) CountPreparingForKitchen(ctx context.Context, kitchenID kernel.UUID) (int, error) {
	if err := kitchenID.Validate(); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("kitchen_id = ? AND status = ?", kitchenID.Bytes(), order.Preparing.String()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func sortBySeq(db *gorm.DB) *gorm.DB {
	return db.Order("seq")
}
