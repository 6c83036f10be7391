package commands_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// haversineDistances estimates every leg at 10 m/s. Destinations listed in
// unavailable have no estimate.
type haversineDistances struct {
	unavailable map[string]struct{}
}

func legKey(p kernel.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat(), p.Lng())
}

func (s haversineDistances) GetDistance(
	_ context.Context, origin, destination kernel.GeoPoint,
) (ports.DistanceResult, error) {
	if _, ok := s.unavailable[legKey(destination)]; ok {
		return ports.DistanceResult{}, ports.ErrDistanceUnavailable
	}

	meters, err := origin.HaversineDistanceMeters(destination)
	if err != nil {
		return ports.DistanceResult{}, err
	}

	return ports.DistanceResult{
		DistanceMeters: meters,
		Duration:       time.Duration(meters / 10 * float64(time.Second)),
	}, nil
}

func availableDriver(t *testing.T, lat, lng float64, zones ...string) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(kernel.NewUUID(), "Sam", testGeoPoint(t, lat, lng), zones)
	require.NoError(t, err)

	return d
}

type optimizeFixture struct {
	uow     *stubUoW
	lock    *stubZoneLock
	queue   *recordingQueue
	handler commands.OptimizeDeliveriesCommandHandler
}

// northZoneFixture wires a handler over one configured zone named north
// centered on Berlin Mitte.
func northZoneFixture(t *testing.T, distances ports.DistanceProvider) optimizeFixture {
	t.Helper()

	northZone, err := services.NewZone("north", testGeoPoint(t, 52.52, 13.405), 5000)
	require.NoError(t, err)
	grouper, err := services.NewZoneGrouper([]services.Zone{northZone})
	require.NoError(t, err)
	optimizer, err := services.NewRouteOptimizer(distances, 10)
	require.NoError(t, err)

	fixture := optimizeFixture{
		uow:   newStubUoW(),
		lock:  &stubZoneLock{},
		queue: &recordingQueue{},
	}
	fixture.handler = commands.NewOptimizeDeliveriesCommandHandler(
		stubDispatchUoWFactory{uow: fixture.uow},
		grouper,
		optimizer,
		fixture.lock,
		fixture.queue,
		30*time.Second,
		slog.New(slog.DiscardHandler),
	)

	return fixture
}

func TestOptimizeDeliveriesCommandHandler_Handle(t *testing.T) {
	t.Run("should dispatch a zone's ready orders on one committed route", func(t *testing.T) {
		// Given two ready orders in the north zone and one available driver.
		ctx := t.Context()
		near := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		far := orderInStatus(t, order.Ready, 52.5300, 13.4050)
		d := availableDriver(t, 52.5200, 13.4050, "north")
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{near, far}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{d}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, d, driver.Available).Return(nil).Once()

		var committed *route.Route
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).
			Run(func(args mock.Arguments) {
				committed = args.Get(1).(*route.Route)
			}).
			Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, near, order.Ready).Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, far, order.Ready).Return(nil).Once()

		// When
		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		// Then
		require.NoError(t, err)
		assert.Equal(t, 1, result.ZonesProcessed)
		assert.Equal(t, 1, result.RoutesCommitted)
		assert.Equal(t, 2, result.OrdersDispatched)
		assert.Zero(t, result.OrdersSkipped)

		require.NotNil(t, committed)
		assert.Equal(t, "north", committed.Zone())
		require.NotNil(t, committed.Driver())
		assert.True(t, committed.Driver().IsEqual(d.ID()))

		// Nearest-first stop order.
		ids := committed.OrderIDs()
		require.Len(t, ids, 2)
		assert.True(t, ids[0].IsEqual(near.ID()))
		assert.True(t, ids[1].IsEqual(far.ID()))

		assert.Equal(t, order.Delivering, near.Status())
		assert.Equal(t, order.Delivering, far.Status())
		require.NotNil(t, near.Driver())
		assert.True(t, near.Driver().IsEqual(d.ID()))
		assert.Equal(t, driver.Delivering, d.Status())

		assert.Equal(t, []string{"north"}, fixture.lock.acquired)
		assert.Equal(t, []string{"north"}, fixture.lock.released)
		assert.Equal(t, []string{ports.TopicNotification, ports.TopicNotification}, fixture.queue.topics())
		fixture.uow.orders.AssertExpectations(t)
		fixture.uow.drivers.AssertExpectations(t)
		fixture.uow.routes.AssertExpectations(t)
	})

	t.Run("should skip a zone whose lock is held elsewhere", func(t *testing.T) {
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		fixture := northZoneFixture(t, haversineDistances{})
		fixture.lock.denied = map[string]struct{}{"north": {}}

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{ready}, nil).Once()

		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		require.NoError(t, err)
		assert.Equal(t, 1, result.ZonesLocked)
		assert.Zero(t, result.ZonesProcessed)
		assert.Equal(t, order.Ready, ready.Status())
		fixture.uow.drivers.AssertNotCalled(t, "GetAllAvailableInZone", mock.Anything, mock.Anything)
	})

	t.Run("should defer a zone with no available drivers", func(t *testing.T) {
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{ready}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{}, nil).Once()

		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		// Driver unavailability is never fatal; orders stay ready.
		require.NoError(t, err)
		assert.Equal(t, 1, result.ZonesDeferred)
		assert.Zero(t, result.RoutesCommitted)
		assert.Equal(t, order.Ready, ready.Status())
		assert.Nil(t, ready.Driver())
		assert.Empty(t, fixture.queue.jobs)
	})

	t.Run("should fall back to the nearest driver when the claim is lost", func(t *testing.T) {
		// Given the planned driver is stolen by a concurrent cycle.
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		planned := availableDriver(t, 52.5200, 13.4050, "north")
		fallback := availableDriver(t, 52.5250, 13.4050, "north")
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{ready}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{planned}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, planned, driver.Available).
			Return(errs.NewConflictError("driver", planned.ID().String())).Once()
		fixture.uow.drivers.On("FindNearestAvailable", ctx, "north", mock.Anything).
			Return(fallback, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, fallback, driver.Available).Return(nil).Once()
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, ready, order.Ready).Return(nil).Once()

		// When
		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		// Then the route is committed to the fallback driver.
		require.NoError(t, err)
		assert.Equal(t, 1, result.RoutesCommitted)
		require.NotNil(t, ready.Driver())
		assert.True(t, ready.Driver().IsEqual(fallback.ID()))
		fixture.uow.drivers.AssertExpectations(t)
	})

	t.Run("should defer the zone when the fallback claim is lost too", func(t *testing.T) {
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		planned := availableDriver(t, 52.5200, 13.4050, "north")
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{ready}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{planned}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, planned, driver.Available).
			Return(errs.NewConflictError("driver", planned.ID().String())).Once()
		fixture.uow.drivers.On("FindNearestAvailable", ctx, "north", mock.Anything).
			Return(nil, errs.NewObjectNotFoundError("driver", "north")).Once()

		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		require.NoError(t, err)
		assert.Equal(t, 1, result.ZonesDeferred)
		assert.Zero(t, result.RoutesCommitted)
		assert.Equal(t, order.Ready, ready.Status())
		fixture.uow.routes.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("should exclude orders without a travel estimate and keep going", func(t *testing.T) {
		// Given one order with no estimate and one routable order.
		ctx := t.Context()
		routable := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		unroutable := orderInStatus(t, order.Ready, 52.5300, 13.4050)
		d := availableDriver(t, 52.5200, 13.4050, "north")
		fixture := northZoneFixture(t, haversineDistances{unavailable: map[string]struct{}{
			legKey(unroutable.Address().Location()): {},
		}})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{routable, unroutable}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{d}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, d, driver.Available).Return(nil).Once()
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, routable, order.Ready).Return(nil).Once()

		// When
		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		// Then
		require.NoError(t, err)
		assert.Equal(t, 1, result.OrdersDispatched)
		assert.Equal(t, 1, result.OrdersSkipped)
		assert.Equal(t, order.Delivering, routable.Status())
		assert.Equal(t, order.Ready, unroutable.Status())
	})

	t.Run("should skip an order that changed concurrently and shrink the route", func(t *testing.T) {
		ctx := t.Context()
		near := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		far := orderInStatus(t, order.Ready, 52.5300, 13.4050)
		d := availableDriver(t, 52.5200, 13.4050, "north")
		distances := haversineDistances{}
		fixture := northZoneFixture(t, distances)

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{near, far}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{d}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, d, driver.Available).Return(nil).Once()

		var committed *route.Route
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).
			Run(func(args mock.Arguments) {
				committed = args.Get(1).(*route.Route)
			}).
			Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, near, order.Ready).
			Return(errs.NewConflictError("order", near.ID().String())).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, far, order.Ready).Return(nil).Once()

		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		require.NoError(t, err)
		assert.Equal(t, 1, result.OrdersDispatched)
		assert.Equal(t, 1, result.OrdersSkipped)
		assert.Equal(t, 1, result.RoutesCommitted)
		assert.Equal(t, order.Delivering, far.Status())
		assert.Len(t, fixture.queue.jobs, 1)

		// The committed route carries only the surviving order; the conflicted
		// stop is gone and the totals are re-priced for the shorter route.
		require.NotNil(t, committed)
		ids := committed.OrderIDs()
		require.Len(t, ids, 1)
		assert.True(t, ids[0].IsEqual(far.ID()))

		leg, err := distances.GetDistance(ctx, d.Location(), far.Address().Location())
		require.NoError(t, err)
		assert.InDelta(t, leg.DistanceMeters, committed.TotalMeters(), 0.01)
		assert.Equal(t, leg.Duration, committed.TotalDuration())
	})

	t.Run("should optimize unzoned orders in a cycle of their own", func(t *testing.T) {
		// Given an order far outside the configured zone.
		ctx := t.Context()
		remote := orderInStatus(t, order.Ready, 48.8584, 2.2945)
		d := availableDriver(t, 48.8600, 2.2900, services.UnzonedZone)
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{remote}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, services.UnzonedZone).
			Return([]*driver.Driver{d}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, d, driver.Available).Return(nil).Once()
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, remote, order.Ready).Return(nil).Once()

		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand(""))

		require.NoError(t, err)
		assert.Equal(t, 1, result.RoutesCommitted)
		assert.Equal(t, []string{services.UnzonedZone}, fixture.lock.acquired)
	})

	t.Run("should honor a single-zone trigger", func(t *testing.T) {
		// Given ready orders in north and outside it.
		ctx := t.Context()
		north := orderInStatus(t, order.Ready, 52.5210, 13.4050)
		remote := orderInStatus(t, order.Ready, 48.8584, 2.2945)
		d := availableDriver(t, 52.5200, 13.4050, "north")
		fixture := northZoneFixture(t, haversineDistances{})

		fixture.uow.orders.On("GetAllInStatus", ctx, order.Ready).
			Return([]*order.Order{north, remote}, nil).Once()
		fixture.uow.drivers.On("GetAllAvailableInZone", ctx, "north").
			Return([]*driver.Driver{d}, nil).Once()
		fixture.uow.drivers.On("UpdateIfStatus", ctx, d, driver.Available).Return(nil).Once()
		fixture.uow.routes.On("Add", ctx, mock.AnythingOfType("*route.Route")).Return(nil).Once()
		fixture.uow.orders.On("UpdateIfStatus", ctx, north, order.Ready).Return(nil).Once()

		// When triggered for north only.
		result, err := fixture.handler.Handle(ctx, commands.NewOptimizeDeliveriesCommand("north"))

		// Then the unzoned bucket is left alone.
		require.NoError(t, err)
		assert.Equal(t, 1, result.ZonesProcessed)
		assert.Equal(t, order.Ready, remote.Status())
		fixture.uow.drivers.AssertNotCalled(t, "GetAllAvailableInZone", ctx, services.UnzonedZone)
	})
}
