package postgres

import (
	"dispatch/internal/adapters/out/postgres/driverrepo"
	"dispatch/internal/adapters/out/postgres/kitchenrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/routerepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every aggregate table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.TimelineEntryDTO{},
		&driverrepo.DriverDTO{},
		&driverrepo.ZoneDTO{},
		&kitchenrepo.KitchenDTO{},
		&routerepo.RouteDTO{},
		&routerepo.StopDTO{},
	)
}
