package driverrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormDriverRepository implements DriverRepository using GORM.
type GormDriverRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormDriverRepository creates a new GORM driver repository.
func NewGormDriverRepository(db *gorm.DB, tracker aggregateTracker) *GormDriverRepository {
	return &GormDriverRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new driver with their zone assignments.
func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
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

// Update saves an existing driver unconditionally. Zone assignments are fixed
// at registration and are not rewritten.
func (r *GormDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
	return r.update(ctx, aggregate, nil)
}

// UpdateIfStatus saves the driver only if the stored status still equals
// expected. Dispatch claims drivers through this method; losing the race
// yields errs.ErrConflictRetry.
func (r *GormDriverRepository) UpdateIfStatus(
	ctx context.Context,
	aggregate *driver.Driver,
	expected driver.Status,
) error {
	return r.update(ctx, aggregate, &expected)
}

func (r *GormDriverRepository) update(ctx context.Context, aggregate *driver.Driver, expected *driver.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)

	tx := r.db.WithContext(ctx).Model(&DriverDTO{}).Select("*").Omit("Zones")
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
			return errs.NewConflictError("driver", aggregate.ID().String())
		}
		return errs.NewObjectNotFoundError("driver", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a driver by ID with their zone assignments.
func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	err := r.db.WithContext(ctx).
		Preload("Zones").
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAvailableInZone retrieves every Available driver serving the named
// zone, ordered by id for deterministic processing. Drivers with no zone
// assignments at all serve the unzoned bucket.
func (r *GormDriverRepository) GetAllAvailableInZone(ctx context.Context, zone string) ([]*driver.Driver, error) {
	if zone == "" {
		return nil, errs.NewValueIsRequiredError("zone")
	}

	tx := r.db.WithContext(ctx).
		Model(&DriverDTO{}).
		Distinct("drivers.*").
		Joins("LEFT JOIN driver_zones z ON z.driver_id = drivers.id").
		Where("drivers.status = ?", driver.Available.String()).
		Order("drivers.id")

	if zone == services.UnzonedZone {
		tx = tx.Where("z.zone = ? OR z.driver_id IS NULL", zone)
	} else {
		tx = tx.Where("z.zone = ?", zone)
	}

	var dtos []DriverDTO
	if err := tx.Preload("Zones").Find(&dtos).Error; err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, nil
}

// FindNearestAvailable retrieves the Available driver serving the zone who is
// closest to the given point, or errs.ErrObjectNotFound when the zone has
// none. Distance ties break toward the lowest driver id.
func (r *GormDriverRepository) FindNearestAvailable(
	ctx context.Context,
	zone string,
	from kernel.GeoPoint,
) (*driver.Driver, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}

	candidates, err := r.GetAllAvailableInZone(ctx, zone)
	if err != nil {
		return nil, err
	}

	var (
		nearest         *driver.Driver
		nearestDistance float64
	)

	for _, candidate := range candidates {
		distance, distErr := from.HaversineDistanceMeters(candidate.Location())
		if distErr != nil {
			return nil, distErr
		}

		if nearest == nil || distance < nearestDistance {
			nearest = candidate
			nearestDistance = distance
		}
	}

	if nearest == nil {
		return nil, errs.NewObjectNotFoundError("driver", zone)
	}

	return nearest, nil
}
