package kitchenrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKitchenRepository implements KitchenRepository using GORM.
type GormKitchenRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormKitchenRepository creates a new GORM kitchen repository.
func NewGormKitchenRepository(db *gorm.DB, tracker aggregateTracker) *GormKitchenRepository {
	return &GormKitchenRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new kitchen to the database.
func (r *GormKitchenRepository) Add(ctx context.Context, aggregate *kitchen.Kitchen) error {
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

// Update saves an existing kitchen to the database.
func (r *GormKitchenRepository) Update(ctx context.Context, aggregate *kitchen.Kitchen) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&KitchenDTO{}).Select("*").Where("id = ?", dto.ID).Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("kitchen", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a kitchen by ID.
func (r *GormKitchenRepository) Get(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves a kitchen by ID with SELECT FOR UPDATE, blocking
// concurrent locking reads of the same row until the transaction ends.
func (r *GormKitchenRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error) {
	return r.get(ctx, id, true)
}

func (r *GormKitchenRepository) get(ctx context.Context, id kernel.UUID, forUpdate bool) (*kitchen.Kitchen, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto KitchenDTO
	if err := tx.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("kitchen", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
