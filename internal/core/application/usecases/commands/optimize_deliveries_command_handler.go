package commands

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// OptimizationResult summarizes one optimization cycle.
type OptimizationResult struct {
	ZonesProcessed   int
	ZonesLocked      int
	ZonesDeferred    int
	RoutesCommitted  int
	OrdersDispatched int
	OrdersSkipped    int
}

// OptimizeDeliveriesCommandHandler runs the dispatch cycle. Per zone it takes
// the zone lock, plans candidate routes over the Ready orders, claims the
// best driver with a conditional status update, and commits route, driver,
// and order changes in one transaction.
//
// Failure policy:
//   - a zone whose lock is held elsewhere is skipped, another instance is
//     already working on it
//   - a zone with no claimable driver is deferred; its orders stay Ready and
//     re-enter the next cycle
//   - an order that loses its conditional update (cancelled concurrently) is
//     skipped; its stop is removed from the route, the totals are re-priced,
//     and the rest of the route still dispatches
type OptimizeDeliveriesCommandHandler struct {
	uowFactory DispatchUoWFactory
	grouper    services.ZoneGrouper
	optimizer  services.RouteOptimizer
	zoneLock   ports.ZoneLock
	queue      ports.JobQueue
	lockTTL    time.Duration
	logger     *slog.Logger
}

// NewOptimizeDeliveriesCommandHandler creates the dispatch cycle handler.
func NewOptimizeDeliveriesCommandHandler(
	uowFactory DispatchUoWFactory,
	grouper services.ZoneGrouper,
	optimizer services.RouteOptimizer,
	zoneLock ports.ZoneLock,
	queue ports.JobQueue,
	lockTTL time.Duration,
	logger *slog.Logger,
) OptimizeDeliveriesCommandHandler {
	return OptimizeDeliveriesCommandHandler{
		uowFactory: uowFactory,
		grouper:    grouper,
		optimizer:  optimizer,
		zoneLock:   zoneLock,
		queue:      queue,
		lockTTL:    lockTTL,
		logger:     logger.With("component", "optimize-deliveries"),
	}
}

// Handle runs one cycle and reports what it did. Zone-level problems are
// absorbed into the result; only infrastructure failures surface as errors.
func (h OptimizeDeliveriesCommandHandler) Handle(
	ctx context.Context,
	command OptimizeDeliveriesCommand,
) (OptimizationResult, error) {
	var result OptimizationResult

	if err := command.Validate(); err != nil {
		return result, err
	}

	grouped, err := h.loadReadyOrdersByZone(ctx)
	if err != nil {
		return result, err
	}

	zones := make([]string, 0, len(grouped))
	for zone := range grouped {
		if command.Zone() != "" && zone != command.Zone() {
			continue
		}
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	for _, zone := range zones {
		if err = h.optimizeZone(ctx, zone, grouped[zone], &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// loadReadyOrdersByZone reads the dispatchable orders and buckets them by the
// zone of their delivery address.
func (h OptimizeDeliveriesCommandHandler) loadReadyOrdersByZone(
	ctx context.Context,
) (map[string][]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ready, err := uow.OrderRepository().GetAllInStatus(ctx, order.Ready)
	if err != nil {
		return nil, err
	}

	return h.grouper.GroupOrders(ready)
}

func (h OptimizeDeliveriesCommandHandler) optimizeZone(
	ctx context.Context,
	zone string,
	orders []*order.Order,
	result *OptimizationResult,
) error {
	token, acquired, err := h.zoneLock.Acquire(ctx, zone, h.lockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		result.ZonesLocked++
		h.logger.Info("zone locked by another instance, skipping", "zone", zone)
		return nil
	}

	defer func() {
		_ = h.zoneLock.Release(ctx, zone, token)
	}()

	result.ZonesProcessed++

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	drivers, err := uow.DriverRepository().GetAllAvailableInZone(ctx, zone)
	if err != nil {
		return err
	}
	if len(drivers) == 0 {
		result.ZonesDeferred++
		h.logger.Warn("no available drivers, deferring zone", "zone", zone, "orders", len(orders))
		return nil
	}

	candidate, err := h.optimizer.BestCandidate(ctx, zone, drivers, orders)
	if errors.Is(err, services.ErrNoCandidateRoute) {
		result.OrdersSkipped += len(orders)
		h.logger.Warn("no routable orders in zone", "zone", zone, "orders", len(orders))
		return nil
	}
	if err != nil {
		return err
	}
	result.OrdersSkipped += len(candidate.Skipped)

	claimed, err := h.claimDriver(ctx, uow, zone, candidate)
	if err != nil {
		return err
	}
	if claimed == nil {
		result.ZonesDeferred++
		h.logger.Warn("every driver claim lost, deferring zone", "zone", zone, "orders", len(orders))
		return nil
	}

	dispatched, err := h.dispatchOrders(ctx, uow, claimed.ID(), candidate, orders, result)
	if err != nil {
		return err
	}
	if len(dispatched) == 0 {
		// Every planned order was taken by a concurrent writer; drop the
		// route and release the driver via rollback.
		result.ZonesDeferred++
		h.logger.Warn("every planned order conflicted, dropping route", "zone", zone)
		return nil
	}

	// Only the orders that won their conditional update ride the committed
	// route; stops of conflicted orders are dropped and the totals re-priced.
	if len(dispatched) < len(candidate.Route.Stops()) {
		if err = h.shrinkRoute(ctx, claimed, candidate.Route, dispatched); err != nil {
			return err
		}
	}

	if err = candidate.Route.Commit(claimed.ID()); err != nil {
		return err
	}
	if err = uow.RouteRepository().Add(ctx, candidate.Route); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	result.RoutesCommitted++
	result.OrdersDispatched += len(dispatched)
	h.logger.Info("route committed",
		"zone", zone,
		"route_id", candidate.Route.ID().String(),
		"driver_id", claimed.ID().String(),
		"stops", len(dispatched),
	)

	for _, dispatchedOrder := range dispatched {
		if err = enqueueNotification(ctx, h.queue, dispatchedOrder, ""); err != nil {
			return err
		}
	}

	return nil
}

// shrinkRoute drops the stops of conflicted orders from the planned route and
// re-estimates the travel totals from the driver's position over the
// surviving sequence.
func (h OptimizeDeliveriesCommandHandler) shrinkRoute(
	ctx context.Context,
	claimed *driver.Driver,
	planned *route.Route,
	dispatched []*order.Order,
) error {
	kept := make(map[string]struct{}, len(dispatched))
	for _, o := range dispatched {
		kept[o.ID().String()] = struct{}{}
	}

	stops := make([]route.Stop, 0, len(dispatched))
	for _, stop := range planned.Stops() {
		if _, ok := kept[stop.OrderID().String()]; ok {
			stops = append(stops, stop)
		}
	}

	totalMeters, totalDuration, err := h.optimizer.EstimateTotals(ctx, claimed.Location(), stops)
	if err != nil {
		return err
	}

	return planned.ShrinkTo(stops, totalMeters, totalDuration)
}

// claimDriver claims the candidate's driver with a conditional update. When
// the claim loses a race, it falls back to the nearest still-available driver
// and retries once; a second loss defers the zone. Returns nil when no driver
// could be claimed.
func (h OptimizeDeliveriesCommandHandler) claimDriver(
	ctx context.Context,
	uow DispatchUoW,
	zone string,
	candidate services.Candidate,
) (*driver.Driver, error) {
	driversRepo := uow.DriverRepository()
	routeID := candidate.Route.ID()

	if err := h.tryClaim(ctx, driversRepo, candidate.Driver, routeID); err == nil {
		return candidate.Driver, nil
	} else if !errors.Is(err, errs.ErrConflictRetry) && !errors.Is(err, driver.ErrDriverNotAvailable) {
		return nil, err
	}

	firstStop := candidate.Route.Stops()[0]
	fallback, err := driversRepo.FindNearestAvailable(ctx, zone, firstStop.Location())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = h.tryClaim(ctx, driversRepo, fallback, routeID)
	if errors.Is(err, errs.ErrConflictRetry) || errors.Is(err, driver.ErrDriverNotAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return fallback, nil
}

func (h OptimizeDeliveriesCommandHandler) tryClaim(
	ctx context.Context,
	driversRepo ports.DriverRepository,
	d *driver.Driver,
	routeID kernel.UUID,
) error {
	if err := d.AssignRoute(routeID); err != nil {
		return err
	}
	return driversRepo.UpdateIfStatus(ctx, d, driver.Available)
}

// dispatchOrders moves the planned orders into Delivering under the claimed
// driver. An order losing its conditional update is skipped.
func (h OptimizeDeliveriesCommandHandler) dispatchOrders(
	ctx context.Context,
	uow DispatchUoW,
	driverID kernel.UUID,
	candidate services.Candidate,
	orders []*order.Order,
	result *OptimizationResult,
) ([]*order.Order, error) {
	ordersRepo := uow.OrderRepository()

	byID := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		byID[o.ID().String()] = o
	}

	now := time.Now().UTC()
	dispatched := make([]*order.Order, 0, len(candidate.Route.Stops()))

	for _, orderID := range candidate.Route.OrderIDs() {
		o, ok := byID[orderID.String()]
		if !ok {
			continue
		}

		if err := o.AssignDriver(driverID); err != nil {
			return nil, err
		}
		if err := o.TransitionTo(order.Delivering, "", now); err != nil {
			return nil, err
		}

		err := ordersRepo.UpdateIfStatus(ctx, o, order.Ready)
		if errors.Is(err, errs.ErrConflictRetry) {
			result.OrdersSkipped++
			h.logger.Warn("order changed concurrently, skipping", "order_id", orderID.String())
			continue
		}
		if err != nil {
			return nil, err
		}

		dispatched = append(dispatched, o)
	}

	return dispatched, nil
}
