package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testKitchen(t *testing.T, id kernel.UUID, maxConcurrent int) *kitchen.Kitchen {
	t.Helper()

	k, err := kitchen.NewKitchen(id, "Downtown", testGeoPoint(t, 52.52, 13.405), maxConcurrent)
	require.NoError(t, err)

	return k
}

func TestStartPreparationCommandHandler_Handle(t *testing.T) {
	t.Run("should start preparation when the kitchen has a free slot", func(t *testing.T) {
		// Given a kitchen preparing 2 of 3.
		ctx := t.Context()
		confirmed := orderInStatus(t, order.Confirmed, 52.52, 13.405)
		site := testKitchen(t, confirmed.KitchenID(), 3)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, confirmed.ID()).Return(confirmed, nil).Once()
		uow.kitchens.On("GetForUpdate", ctx, confirmed.KitchenID()).Return(site, nil).Once()
		uow.orders.On("CountPreparingForKitchen", ctx, site.ID()).Return(2, nil).Once()
		uow.orders.On("UpdateIfStatus", ctx, confirmed, order.Confirmed).Return(nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewStartPreparationCommandHandler(stubKitchenUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewStartPreparationCommand(confirmed.ID())
		require.NoError(t, err)

		// When
		err = handler.Handle(ctx, cmd)

		// Then
		require.NoError(t, err)
		assert.Equal(t, order.Preparing, confirmed.Status())
		assert.NotNil(t, confirmed.Preparation().StartedAt())
		assert.Equal(t, 1, uow.commits)
		assert.Equal(t, []string{ports.TopicNotification}, queue.topics())
		uow.orders.AssertExpectations(t)
	})

	t.Run("should refuse intake at capacity", func(t *testing.T) {
		// Given a kitchen already preparing 3 of 3.
		ctx := t.Context()
		confirmed := orderInStatus(t, order.Confirmed, 52.52, 13.405)
		site := testKitchen(t, confirmed.KitchenID(), 3)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, confirmed.ID()).Return(confirmed, nil).Once()
		uow.kitchens.On("GetForUpdate", ctx, confirmed.KitchenID()).Return(site, nil).Once()
		uow.orders.On("CountPreparingForKitchen", ctx, site.ID()).Return(3, nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewStartPreparationCommandHandler(stubKitchenUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewStartPreparationCommand(confirmed.ID())
		require.NoError(t, err)

		// When
		err = handler.Handle(ctx, cmd)

		// Then the order stays confirmed for a later retry.
		require.Error(t, err)
		require.ErrorIs(t, err, kitchen.ErrCapacityExceeded)
		assert.Equal(t, order.Confirmed, confirmed.Status())
		assert.Zero(t, uow.commits)
		assert.Empty(t, queue.jobs)
		uow.orders.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject intake for an order that is not confirmed", func(t *testing.T) {
		ctx := t.Context()
		pending := orderInStatus(t, order.Pending, 52.52, 13.405)
		site := testKitchen(t, pending.KitchenID(), 3)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, pending.ID()).Return(pending, nil).Once()
		uow.kitchens.On("GetForUpdate", ctx, pending.KitchenID()).Return(site, nil).Once()
		uow.orders.On("CountPreparingForKitchen", ctx, site.ID()).Return(0, nil).Once()
		handler := commands.NewStartPreparationCommandHandler(stubKitchenUoWFactory{uow: uow}, &recordingQueue{})

		cmd, err := commands.NewStartPreparationCommand(pending.ID())
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}

func TestCompletePreparationCommandHandler_Handle(t *testing.T) {
	t.Run("should move a preparing order to ready", func(t *testing.T) {
		// Given
		ctx := t.Context()
		preparing := orderInStatus(t, order.Preparing, 52.52, 13.405)
		require.NoError(t, preparing.StartPreparation(preparing.Timeline()[0].RecordedAt()))
		uow := newStubUoW()
		uow.orders.On("Get", ctx, preparing.ID()).Return(preparing, nil).Once()
		uow.orders.On("UpdateIfStatus", ctx, preparing, order.Preparing).Return(nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewCompletePreparationCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewCompletePreparationCommand(preparing.ID())
		require.NoError(t, err)

		// When
		err = handler.Handle(ctx, cmd)

		// Then
		require.NoError(t, err)
		assert.Equal(t, order.Ready, preparing.Status())

		duration, done := preparing.Preparation().Duration()
		assert.True(t, done)
		assert.Greater(t, duration.Seconds(), 0.0)
		assert.Equal(t, []string{ports.TopicNotification}, queue.topics())
	})

	t.Run("should reject completion for an order that is not preparing", func(t *testing.T) {
		ctx := t.Context()
		confirmed := orderInStatus(t, order.Confirmed, 52.52, 13.405)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, confirmed.ID()).Return(confirmed, nil).Once()
		handler := commands.NewCompletePreparationCommandHandler(stubOrderUoWFactory{uow: uow}, &recordingQueue{})

		cmd, err := commands.NewCompletePreparationCommand(confirmed.ID())
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}
