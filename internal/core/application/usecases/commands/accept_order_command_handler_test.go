package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

func TestAcceptOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	clientID := kernel.NewUUID()
	driverID := kernel.NewUUID()
	offered := assignedOrder(t, clientID, driverID)

	cmd, err := commands.NewAcceptOrderCommand(offered.ID(), driverID)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	offerRepo := new(MockOfferRepository)
	presenceRepo := new(MockPresenceRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", mock.Anything, offered.ID()).Return(offered, nil).Once()
	orderRepo.On("GetActiveByDriver", mock.Anything, driverID).
		Return(nil, errs.NewObjectNotFoundError("driver", driverID)).Once()
	orderRepo.On("Update", mock.Anything, offered).Return(nil).Once()
	uow.On("OfferRepository").Return(offerRepo).Once()
	offerRepo.On("Delete", mock.Anything, offered.ID()).Return(nil).Once()
	uow.On("PresenceRepository").Return(presenceRepo).Once()
	presenceRepo.On("Get", mock.Anything, driverID).Return(availablePresence(t, driverID), nil).Once()
	presenceRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*driver.Presence")).
		Run(func(args mock.Arguments) {
			presence := args.Get(1).(*driver.Presence)
			assert.Equal(t, driver.Busy, presence.Status())
		}).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockAssignmentUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(capturePublisher)

	h := commands.NewAcceptOrderCommandHandler(factory, publisher)
	require.NoError(t, h.Handle(ctx, cmd))

	require.Equal(t, order.Accepted, offered.Status())

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ports.EventKindStatusChanged, events[0].Kind)
	payload := events[0].Payload.(ports.StatusChangedPayload)
	assert.Equal(t, "accepted", payload.Status)

	orderRepo.AssertExpectations(t)
	offerRepo.AssertExpectations(t)
	presenceRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestAcceptOrderCommandHandler_Handle_LostRace(t *testing.T) {
	ctx := t.Context()
	clientID := kernel.NewUUID()
	driverID := kernel.NewUUID()
	offered := assignedOrder(t, clientID, driverID)

	cmd, err := commands.NewAcceptOrderCommand(offered.ID(), driverID)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", mock.Anything, offered.ID()).Return(offered, nil).Once()
	orderRepo.On("GetActiveByDriver", mock.Anything, driverID).
		Return(nil, errs.NewObjectNotFoundError("driver", driverID)).Once()
	orderRepo.On("Update", mock.Anything, offered).
		Return(errs.NewVersionIsInvalidError("version")).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockAssignmentUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(capturePublisher)

	h := commands.NewAcceptOrderCommandHandler(factory, publisher)
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, order.ErrStaleOffer)
	assert.Empty(t, publisher.Events())
}

func TestAcceptOrderCommandHandler_Handle_WrongDriver(t *testing.T) {
	ctx := t.Context()
	clientID := kernel.NewUUID()
	assignedDriver := kernel.NewUUID()
	otherDriver := kernel.NewUUID()
	offered := assignedOrder(t, clientID, assignedDriver)

	cmd, err := commands.NewAcceptOrderCommand(offered.ID(), otherDriver)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", mock.Anything, offered.ID()).Return(offered, nil).Once()
	orderRepo.On("GetActiveByDriver", mock.Anything, otherDriver).
		Return(nil, errs.NewObjectNotFoundError("driver", otherDriver)).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockAssignmentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewAcceptOrderCommandHandler(factory, new(capturePublisher))
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, order.ErrStaleOffer)
}

func TestAcceptOrderCommandHandler_Handle_DriverBusy(t *testing.T) {
	ctx := t.Context()
	clientID := kernel.NewUUID()
	driverID := kernel.NewUUID()
	offered := assignedOrder(t, clientID, driverID)
	inFlight := acceptedOrder(t, kernel.NewUUID(), driverID)

	cmd, err := commands.NewAcceptOrderCommand(offered.ID(), driverID)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", mock.Anything, offered.ID()).Return(offered, nil).Once()
	orderRepo.On("GetActiveByDriver", mock.Anything, driverID).Return(inFlight, nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockAssignmentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewAcceptOrderCommandHandler(factory, new(capturePublisher))
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrDriverHasActiveOrder)
}
