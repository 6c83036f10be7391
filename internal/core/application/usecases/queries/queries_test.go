package queries_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetKitchenCapacityQuery(t *testing.T) {
	t.Run("should create a query for a valid kitchen id", func(t *testing.T) {
		kitchenID := kernel.NewUUID()

		query, err := queries.NewGetKitchenCapacityQuery(kitchenID)

		require.NoError(t, err)
		require.NoError(t, query.Validate())
		assert.True(t, query.KitchenID().IsEqual(kitchenID))
	})

	t.Run("should reject a zero kitchen id", func(t *testing.T) {
		_, err := queries.NewGetKitchenCapacityQuery(kernel.UUID{})

		require.Error(t, err)
	})

	t.Run("should reject unconstructed queries", func(t *testing.T) {
		var query queries.GetKitchenCapacityQuery

		require.ErrorIs(t, query.Validate(), queries.ErrGetKitchenCapacityQueryIsNotConstructed)
	})
}

func TestNewGetOrdersByStatusQuery(t *testing.T) {
	t.Run("should create a query for every valid status", func(t *testing.T) {
		for _, status := range []order.Status{order.Pending, order.Ready, order.Delivering} {
			query, err := queries.NewGetOrdersByStatusQuery(status)

			require.NoError(t, err)
			assert.Equal(t, status, query.Status())
		}
	})

	t.Run("should reject the unknown status", func(t *testing.T) {
		_, err := queries.NewGetOrdersByStatusQuery(order.Unknown)

		require.Error(t, err)
	})
}

func TestNewGetActiveRouteQuery(t *testing.T) {
	t.Run("should create a query for a valid driver id", func(t *testing.T) {
		driverID := kernel.NewUUID()

		query, err := queries.NewGetActiveRouteQuery(driverID)

		require.NoError(t, err)
		assert.True(t, query.DriverID().IsEqual(driverID))
	})

	t.Run("should reject a zero driver id", func(t *testing.T) {
		_, err := queries.NewGetActiveRouteQuery(kernel.UUID{})

		require.Error(t, err)
	})
}
