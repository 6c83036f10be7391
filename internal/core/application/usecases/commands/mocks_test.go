package commands_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateIfStatus(ctx context.Context, o *order.Order, expected order.Status) error {
	args := m.Called(ctx, o, expected)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) CountPreparingForKitchen(ctx context.Context, kitchenID kernel.UUID) (int, error) {
	args := m.Called(ctx, kitchenID)
	return args.Int(0), args.Error(1)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) UpdateIfStatus(ctx context.Context, d *driver.Driver, expected driver.Status) error {
	args := m.Called(ctx, d, expected)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetAllAvailableInZone(ctx context.Context, zone string) ([]*driver.Driver, error) {
	args := m.Called(ctx, zone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) FindNearestAvailable(
	ctx context.Context, zone string, from kernel.GeoPoint,
) (*driver.Driver, error) {
	args := m.Called(ctx, zone, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

type MockKitchenRepository struct{ mock.Mock }

func (m *MockKitchenRepository) Add(ctx context.Context, k *kitchen.Kitchen) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKitchenRepository) Update(ctx context.Context, k *kitchen.Kitchen) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKitchenRepository) Get(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kitchen.Kitchen), args.Error(1)
}

func (m *MockKitchenRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*kitchen.Kitchen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kitchen.Kitchen), args.Error(1)
}

type MockRouteRepository struct{ mock.Mock }

func (m *MockRouteRepository) Add(ctx context.Context, r *route.Route) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Route), args.Error(1)
}

func (m *MockRouteRepository) GetActiveByDriver(ctx context.Context, driverID kernel.UUID) (*route.Route, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Route), args.Error(1)
}

// stubUoW hands the mocked repositories to handlers and tracks the
// transaction lifecycle.
type stubUoW struct {
	orders   *MockOrderRepository
	drivers  *MockDriverRepository
	kitchens *MockKitchenRepository
	routes   *MockRouteRepository

	commits   int
	rollbacks int
}

func newStubUoW() *stubUoW {
	return &stubUoW{
		orders:   new(MockOrderRepository),
		drivers:  new(MockDriverRepository),
		kitchens: new(MockKitchenRepository),
		routes:   new(MockRouteRepository),
	}
}

func (u *stubUoW) Begin(context.Context) error    { return nil }
func (u *stubUoW) Commit(context.Context) error   { u.commits++; return nil }
func (u *stubUoW) Rollback(context.Context) error { u.rollbacks++; return nil }

func (u *stubUoW) OrderRepository() ports.OrderRepository     { return u.orders }
func (u *stubUoW) DriverRepository() ports.DriverRepository   { return u.drivers }
func (u *stubUoW) KitchenRepository() ports.KitchenRepository { return u.kitchens }
func (u *stubUoW) RouteRepository() ports.RouteRepository     { return u.routes }

type stubOrderUoWFactory struct{ uow *stubUoW }

func (f stubOrderUoWFactory) Create() commands.OrderUoW { return f.uow }

type stubDriverUoWFactory struct{ uow *stubUoW }

func (f stubDriverUoWFactory) Create() commands.DriverUoW { return f.uow }

type stubKitchenUoWFactory struct{ uow *stubUoW }

func (f stubKitchenUoWFactory) Create() commands.KitchenUoW { return f.uow }

type stubDispatchUoWFactory struct{ uow *stubUoW }

func (f stubDispatchUoWFactory) Create() commands.DispatchUoW { return f.uow }

// recordedJob is one job captured by the recording queue.
type recordedJob struct {
	topic   string
	payload []byte
}

// recordingQueue captures enqueued jobs for assertions.
type recordingQueue struct {
	jobs []recordedJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, topic string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, recordedJob{topic: topic, payload: payload})
	return nil
}

func (q *recordingQueue) Subscribe(string, ports.JobHandler) error { return nil }
func (q *recordingQueue) Close() error                             { return nil }

func (q *recordingQueue) topics() []string {
	out := make([]string, len(q.jobs))
	for i, job := range q.jobs {
		out[i] = job.topic
	}
	return out
}

// stubZoneLock grants every zone except the ones listed in denied.
type stubZoneLock struct {
	denied   map[string]struct{}
	acquired []string
	released []string
}

func (l *stubZoneLock) Acquire(_ context.Context, zone string, _ time.Duration) (string, bool, error) {
	if _, ok := l.denied[zone]; ok {
		return "", false, nil
	}
	l.acquired = append(l.acquired, zone)
	return "token-" + zone, true, nil
}

func (l *stubZoneLock) Release(_ context.Context, zone string, _ string) error {
	l.released = append(l.released, zone)
	return nil
}

func testGeoPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()

	point, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)

	return point
}

func testAddressAt(t *testing.T, lat, lng float64) order.Address {
	t.Helper()

	address, err := order.NewAddress("1 Main St", "Berlin", "10115", "", testGeoPoint(t, lat, lng))
	require.NoError(t, err)

	return address
}

func testItems(t *testing.T) []order.Item {
	t.Helper()

	item, err := order.NewItem(kernel.NewUUID(), 1, 1200)
	require.NoError(t, err)

	return []order.Item{item}
}

// orderInStatus builds an order at the given address walked forward to the
// wanted lifecycle status.
func orderInStatus(t *testing.T, status order.Status, lat, lng float64) *order.Order {
	t.Helper()

	placedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		testItems(t), testAddressAt(t, lat, lng), placedAt.Add(time.Hour), placedAt)
	require.NoError(t, err)

	path := []order.Status{order.Confirmed, order.Preparing, order.Ready}
	at := placedAt.Add(time.Minute)
	for _, next := range path {
		if o.Status() == status {
			break
		}
		require.NoError(t, o.TransitionTo(next, "", at))
		at = at.Add(time.Minute)
	}
	require.Equal(t, status, o.Status())

	return o
}
