package cmd

import (
	"log/slog"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/notifications"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use case handlers.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	queue      ports.JobQueue
	zoneLock   ports.ZoneLock
	grouper    services.ZoneGrouper
	optimizer  services.RouteOptimizer
	logger     *slog.Logger
}

// NewCompositionRoot builds the domain services from configuration and wires
// them to the given infrastructure.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	queue ports.JobQueue,
	zoneLock ports.ZoneLock,
	logger *slog.Logger,
) (CompositionRoot, error) {
	zones := make([]services.Zone, 0, len(config.Zones))
	for _, zoneConfig := range config.Zones {
		center, err := kernel.NewGeoPoint(zoneConfig.Lat, zoneConfig.Lng)
		if err != nil {
			return CompositionRoot{}, err
		}

		zone, err := services.NewZone(zoneConfig.Name, center, zoneConfig.RadiusMeters)
		if err != nil {
			return CompositionRoot{}, err
		}
		zones = append(zones, zone)
	}

	grouper, err := services.NewZoneGrouper(zones)
	if err != nil {
		return CompositionRoot{}, err
	}

	distances, err := geo.NewHaversineDistanceProvider(config.DriverSpeedMetersPerSecond)
	if err != nil {
		return CompositionRoot{}, err
	}

	optimizer, err := services.NewRouteOptimizer(distances, config.MaxRouteStops)
	if err != nil {
		return CompositionRoot{}, err
	}

	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		queue:      queue,
		zoneLock:   zoneLock,
		grouper:    grouper,
		optimizer:  optimizer,
		logger:     logger,
	}, nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) driverUoWFactory() commands.DriverUoWFactory {
	return FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) kitchenUoWFactory() commands.KitchenUoWFactory {
	return FuncKitchenUoWFactory(func() commands.KitchenUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) dispatchUoWFactory() commands.DispatchUoWFactory {
	return FuncDispatchUoWFactory(func() commands.DispatchUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.queue)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.orderUoWFactory(), c.queue)
}

func (c *CompositionRoot) CreateStartPreparationCommandHandler() commands.StartPreparationCommandHandler {
	return commands.NewStartPreparationCommandHandler(c.kitchenUoWFactory(), c.queue)
}

func (c *CompositionRoot) CreateCompletePreparationCommandHandler() commands.CompletePreparationCommandHandler {
	return commands.NewCompletePreparationCommandHandler(c.orderUoWFactory(), c.queue)
}

func (c *CompositionRoot) CreateMarkPaymentCommandHandler() commands.MarkPaymentCommandHandler {
	return commands.NewMarkPaymentCommandHandler(c.orderUoWFactory())
}

func (c *CompositionRoot) CreateCreateDriverCommandHandler() commands.CreateDriverCommandHandler {
	return commands.NewCreateDriverCommandHandler(c.driverUoWFactory())
}

func (c *CompositionRoot) CreateMoveDriverCommandHandler() commands.MoveDriverCommandHandler {
	return commands.NewMoveDriverCommandHandler(c.driverUoWFactory())
}

func (c *CompositionRoot) CreateCompleteRouteCommandHandler() commands.CompleteRouteCommandHandler {
	return commands.NewCompleteRouteCommandHandler(c.dispatchUoWFactory())
}

func (c *CompositionRoot) CreateOptimizeDeliveriesCommandHandler() commands.OptimizeDeliveriesCommandHandler {
	return commands.NewOptimizeDeliveriesCommandHandler(
		c.dispatchUoWFactory(),
		c.grouper,
		c.optimizer,
		c.zoneLock,
		c.queue,
		c.config.LockTTL,
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetOrdersByStatusQueryHandler() queries.GetOrdersByStatusQueryHandler {
	return queries.NewGetOrdersByStatusQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetKitchenCapacityQueryHandler() queries.GetKitchenCapacityQueryHandler {
	return queries.NewGetKitchenCapacityQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveRouteQueryHandler() queries.GetActiveRouteQueryHandler {
	return queries.NewGetActiveRouteQueryHandler(c.gormDB)
}

// CreateNotificationRouter wires the notification fan-out with log-backed
// senders and the in-memory customer directory.
func (c *CompositionRoot) CreateNotificationRouter() *notifications.Router {
	senders := notifications.NewLogSenders(c.logger)
	return notifications.NewRouter(
		notifications.NewInMemoryDirectory(),
		senders,
		senders,
		senders,
		c.queue,
		c.logger,
	)
}

// CreateJobManager wires the queue workers and the optimization scheduler.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.queue,
		c.CreateOptimizeDeliveriesCommandHandler(),
		c.CreateStartPreparationCommandHandler(),
		c.CreateNotificationRouter(),
		c.config.CycleSchedule,
		c.logger,
	)
}

// CreateHTTPServer wires the REST surface.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateTransitionOrderCommandHandler(),
		c.CreateStartPreparationCommandHandler(),
		c.CreateCompletePreparationCommandHandler(),
		c.CreateMarkPaymentCommandHandler(),
		c.CreateCreateDriverCommandHandler(),
		c.CreateMoveDriverCommandHandler(),
		c.CreateCompleteRouteCommandHandler(),
		c.CreateGetOrdersByStatusQueryHandler(),
		c.CreateGetKitchenCapacityQueryHandler(),
		c.CreateGetActiveRouteQueryHandler(),
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncKitchenUoWFactory func() commands.KitchenUoW

func (f FuncKitchenUoWFactory) Create() commands.KitchenUoW {
	return f()
}

type FuncDispatchUoWFactory func() commands.DispatchUoW

func (f FuncDispatchUoWFactory) Create() commands.DispatchUoW {
	return f()
}
