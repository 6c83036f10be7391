package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewTransitionOrderCommand(t *testing.T) {
	t.Run("should reject targets with dedicated workflows", func(t *testing.T) {
		for _, target := range []order.Status{order.Preparing, order.Ready, order.Delivering} {
			_, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), target, "")

			require.Error(t, err)
			require.ErrorIs(t, err, commands.ErrTargetHasDedicatedWorkflow)
		}
	})

	t.Run("should reject pending as a target", func(t *testing.T) {
		_, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), order.Pending, "")

		require.Error(t, err)
	})

	t.Run("should reject unconstructed commands", func(t *testing.T) {
		var cmd commands.TransitionOrderCommand

		require.ErrorIs(t, cmd.Validate(), commands.ErrTransitionOrderCommandIsNotConstructed)
	})
}

func TestTransitionOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should confirm a pending order and enqueue kitchen and notification jobs", func(t *testing.T) {
		// Given
		ctx := t.Context()
		pending := orderInStatus(t, order.Pending, 52.52, 13.405)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, pending.ID()).Return(pending, nil).Once()
		uow.orders.On("UpdateIfStatus", ctx, pending, order.Pending).Return(nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewTransitionOrderCommand(pending.ID(), order.Confirmed, "call-center approved")
		require.NoError(t, err)

		// When
		err = handler.Handle(ctx, cmd)

		// Then
		require.NoError(t, err)
		assert.Equal(t, order.Confirmed, pending.Status())
		assert.Equal(t, 1, uow.commits)
		assert.Equal(t, []string{ports.TopicKitchenOrder, ports.TopicNotification}, queue.topics())
		uow.orders.AssertExpectations(t)
	})

	t.Run("should cancel without a kitchen job", func(t *testing.T) {
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.52, 13.405)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, ready.ID()).Return(ready, nil).Once()
		uow.orders.On("UpdateIfStatus", ctx, ready, order.Ready).Return(nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewTransitionOrderCommand(ready.ID(), order.Cancelled, "customer request")
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, ready.Status())
		assert.Equal(t, []string{ports.TopicNotification}, queue.topics())

		timeline := ready.Timeline()
		assert.Equal(t, "customer request", timeline[len(timeline)-1].Note())
	})

	t.Run("should surface a conditional update conflict without side effects", func(t *testing.T) {
		// Given a concurrent writer won the race.
		ctx := t.Context()
		pending := orderInStatus(t, order.Pending, 52.52, 13.405)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, pending.ID()).Return(pending, nil).Once()
		uow.orders.On("UpdateIfStatus", ctx, pending, order.Pending).
			Return(errs.NewConflictError("order", pending.ID().String())).Once()
		queue := &recordingQueue{}
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewTransitionOrderCommand(pending.ID(), order.Confirmed, "")
		require.NoError(t, err)

		// When
		err = handler.Handle(ctx, cmd)

		// Then
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrConflictRetry)
		assert.Zero(t, uow.commits)
		assert.Equal(t, 1, uow.rollbacks)
		assert.Empty(t, queue.jobs)
	})

	t.Run("should reject an invalid lifecycle edge without touching the store", func(t *testing.T) {
		ctx := t.Context()
		pending := orderInStatus(t, order.Pending, 52.52, 13.405)
		uow := newStubUoW()
		uow.orders.On("Get", ctx, pending.ID()).Return(pending, nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewTransitionOrderCommand(pending.ID(), order.Delivered, "")
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
		uow.orders.AssertNotCalled(t, "UpdateIfStatus",
			mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, queue.jobs)
	})

	t.Run("should reject transitions on terminal orders", func(t *testing.T) {
		ctx := t.Context()
		ready := orderInStatus(t, order.Ready, 52.52, 13.405)
		require.NoError(t, ready.TransitionTo(order.Cancelled, "", ready.Timeline()[0].RecordedAt().Add(time.Hour)))
		uow := newStubUoW()
		uow.orders.On("Get", ctx, ready.ID()).Return(ready, nil).Once()
		queue := &recordingQueue{}
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, queue)

		cmd, err := commands.NewTransitionOrderCommand(ready.ID(), order.Confirmed, "")
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrAlreadyTerminal)
	})

	t.Run("should propagate a missing order", func(t *testing.T) {
		ctx := t.Context()
		orderID := kernel.NewUUID()
		uow := newStubUoW()
		uow.orders.On("Get", ctx, orderID).
			Return(nil, errs.NewObjectNotFoundError("order", orderID.String())).Once()
		handler := commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow: uow}, &recordingQueue{})

		cmd, err := commands.NewTransitionOrderCommand(orderID, order.Confirmed, "")
		require.NoError(t, err)

		err = handler.Handle(ctx, cmd)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
