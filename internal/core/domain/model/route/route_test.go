package route_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStops(t *testing.T, count int) []route.Stop {
	t.Helper()

	stops := make([]route.Stop, 0, count)
	for i := 0; i < count; i++ {
		location, err := kernel.NewGeoPoint(48.85+float64(i)*0.01, 2.35)
		require.NoError(t, err)

		stop, err := route.NewStop(kernel.NewUUID(), location)
		require.NoError(t, err)

		stops = append(stops, stop)
	}

	return stops
}

func TestNewRoute(t *testing.T) {
	t.Run("should create an uncommitted candidate", func(t *testing.T) {
		// Given
		id := kernel.NewUUID()
		stops := testStops(t, 3)

		// When
		r, err := route.NewRoute(id, "north", stops, 5400, 21*time.Minute)

		// Then
		require.NoError(t, err)
		require.NoError(t, r.Validate())
		assert.True(t, r.ID().IsEqual(id))
		assert.Equal(t, "north", r.Zone())
		assert.Len(t, r.Stops(), 3)
		assert.InDelta(t, 5400.0, r.TotalMeters(), 0.001)
		assert.Equal(t, 21*time.Minute, r.TotalDuration())
		assert.False(t, r.IsCommitted())
		assert.Nil(t, r.Driver())
	})

	t.Run("should preserve stop order", func(t *testing.T) {
		stops := testStops(t, 3)

		r, err := route.NewRoute(kernel.NewUUID(), "north", stops, 0, 0)

		require.NoError(t, err)
		ids := r.OrderIDs()
		require.Len(t, ids, 3)
		for i, stop := range stops {
			assert.True(t, ids[i].IsEqual(stop.OrderID()))
		}
	})

	t.Run("should require at least one stop", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), "north", nil, 0, 0)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should require a zone", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), "", testStops(t, 1), 0, 0)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject negative travel totals", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), "north", testStops(t, 1), -1, 0)
		require.Error(t, err)

		_, err = route.NewRoute(kernel.NewUUID(), "north", testStops(t, 1), 0, -time.Second)
		require.Error(t, err)
	})

	t.Run("should reject zero-value stops", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), "north", []route.Stop{{}}, 0, 0)

		require.Error(t, err)
		require.ErrorIs(t, err, route.ErrStopIsNotConstructed)
	})
}

func TestRoute_Commit(t *testing.T) {
	t.Run("should bind the route to a driver", func(t *testing.T) {
		r, err := route.NewRoute(kernel.NewUUID(), "north", testStops(t, 2), 1000, 5*time.Minute)
		require.NoError(t, err)
		driverID := kernel.NewUUID()

		err = r.Commit(driverID)

		require.NoError(t, err)
		assert.True(t, r.IsCommitted())
		require.NotNil(t, r.Driver())
		assert.True(t, r.Driver().IsEqual(driverID))
	})

	t.Run("should reject committing twice", func(t *testing.T) {
		r, err := route.NewRoute(kernel.NewUUID(), "north", testStops(t, 2), 1000, 5*time.Minute)
		require.NoError(t, err)
		require.NoError(t, r.Commit(kernel.NewUUID()))

		err = r.Commit(kernel.NewUUID())

		require.Error(t, err)
		require.ErrorIs(t, err, route.ErrRouteAlreadyCommitted)
	})

	t.Run("should reject an invalid driver id", func(t *testing.T) {
		r, err := route.NewRoute(kernel.NewUUID(), "north", testStops(t, 2), 1000, 5*time.Minute)
		require.NoError(t, err)

		require.Error(t, r.Commit(kernel.UUID{}))
	})
}

func TestRoute_ShrinkTo(t *testing.T) {
	t.Run("should drop lost stops and re-price the totals", func(t *testing.T) {
		// Given a committed three-stop route.
		stops := testStops(t, 3)
		r, err := route.NewRoute(kernel.NewUUID(), "north", stops, 5400, 21*time.Minute)
		require.NoError(t, err)
		driverID := kernel.NewUUID()
		require.NoError(t, r.Commit(driverID))

		// When the middle stop is lost.
		err = r.ShrinkTo([]route.Stop{stops[0], stops[2]}, 3600, 14*time.Minute)

		// Then
		require.NoError(t, err)
		ids := r.OrderIDs()
		require.Len(t, ids, 2)
		assert.True(t, ids[0].IsEqual(stops[0].OrderID()))
		assert.True(t, ids[1].IsEqual(stops[2].OrderID()))
		assert.InDelta(t, 3600.0, r.TotalMeters(), 0.001)
		assert.Equal(t, 14*time.Minute, r.TotalDuration())
		assert.True(t, r.IsCommitted())
		assert.True(t, r.Driver().IsEqual(driverID))
	})

	t.Run("should require at least one surviving stop", func(t *testing.T) {
		r, err := route.NewRoute(kernel.NewUUID(), "north", testStops(t, 2), 1000, 5*time.Minute)
		require.NoError(t, err)

		err = r.ShrinkTo(nil, 0, 0)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestRestoreRoute(t *testing.T) {
	t.Run("should restore a committed route", func(t *testing.T) {
		driverID := kernel.NewUUID()

		r, err := route.RestoreRoute(kernel.NewUUID(), "north", testStops(t, 2),
			2500, 12*time.Minute, driverID)

		require.NoError(t, err)
		assert.True(t, r.IsCommitted())
		assert.True(t, r.Driver().IsEqual(driverID))
	})

	t.Run("should reject an invalid driver id", func(t *testing.T) {
		_, err := route.RestoreRoute(kernel.NewUUID(), "north", testStops(t, 2),
			2500, 12*time.Minute, kernel.UUID{})

		require.Error(t, err)
	})
}
