package commands_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllPending(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetActiveByDriver(ctx context.Context, driverID kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockPresenceRepository struct{ mock.Mock }

func (m *MockPresenceRepository) Upsert(ctx context.Context, presence *driver.Presence) error {
	args := m.Called(ctx, presence)
	return args.Error(0)
}

func (m *MockPresenceRepository) Get(ctx context.Context, driverID kernel.UUID) (*driver.Presence, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Presence), args.Error(1)
}

func (m *MockPresenceRepository) GetAllAvailableSince(
	ctx context.Context,
	since time.Time,
) ([]*driver.Presence, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Presence), args.Error(1)
}

func (m *MockPresenceRepository) GetAllStale(ctx context.Context, olderThan time.Time) ([]*driver.Presence, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Presence), args.Error(1)
}

type MockChatRepository struct{ mock.Mock }

func (m *MockChatRepository) Append(ctx context.Context, message *chat.Message) (*chat.Message, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Message), args.Error(1)
}

func (m *MockChatRepository) History(
	ctx context.Context,
	orderID kernel.UUID,
	sinceSeq int64,
	limit int,
) ([]*chat.Message, error) {
	args := m.Called(ctx, orderID, sinceSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Message), args.Error(1)
}

type MockOfferRepository struct{ mock.Mock }

func (m *MockOfferRepository) Save(ctx context.Context, aggregate *offer.Offer) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOfferRepository) Get(ctx context.Context, orderID kernel.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) Delete(ctx context.Context, orderID kernel.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOfferRepository) GetAllExpired(ctx context.Context, now time.Time) ([]*offer.Offer, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*offer.Offer), args.Error(1)
}

// MockUoW satisfies every narrow unit of work interface in this package.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) PresenceRepository() ports.PresenceRepository {
	args := m.Called()
	return args.Get(0).(ports.PresenceRepository)
}

func (m *MockUoW) ChatRepository() ports.ChatRepository {
	args := m.Called()
	return args.Get(0).(ports.ChatRepository)
}

func (m *MockUoW) OfferRepository() ports.OfferRepository {
	args := m.Called()
	return args.Get(0).(ports.OfferRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockAssignmentUoWFactory struct{ mock.Mock }

func (m *MockAssignmentUoWFactory) Create() commands.AssignmentUoW {
	args := m.Called()
	return args.Get(0).(commands.AssignmentUoW)
}

type MockTrackingUoWFactory struct{ mock.Mock }

func (m *MockTrackingUoWFactory) Create() commands.TrackingUoW {
	args := m.Called()
	return args.Get(0).(commands.TrackingUoW)
}

type MockConversationUoWFactory struct{ mock.Mock }

func (m *MockConversationUoWFactory) Create() commands.ConversationUoW {
	args := m.Called()
	return args.Get(0).(commands.ConversationUoW)
}

type MockDispatchNotifier struct{ mock.Mock }

func (m *MockDispatchNotifier) OrderQueued(orderID kernel.UUID) {
	m.Called(orderID)
}

func (m *MockDispatchNotifier) OfferDeclined(orderID kernel.UUID) {
	m.Called(orderID)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *capturePublisher) Publish(event ports.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Events() []ports.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.Event(nil), p.events...)
}

// fakeGeoIndex records geo index calls without a backing store.
type fakeGeoIndex struct {
	mu      sync.Mutex
	updated map[string]kernel.GeoPoint
	removed []string
	err     error
}

func newFakeGeoIndex() *fakeGeoIndex {
	return &fakeGeoIndex{updated: make(map[string]kernel.GeoPoint)}
}

func (g *fakeGeoIndex) Update(_ context.Context, driverID kernel.UUID, location kernel.GeoPoint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.updated[driverID.String()] = location
	return nil
}

func (g *fakeGeoIndex) Remove(_ context.Context, driverID kernel.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.removed = append(g.removed, driverID.String())
	return nil
}

func (g *fakeGeoIndex) Nearby(
	_ context.Context,
	_ kernel.GeoPoint,
	_ float64,
	_ int,
) ([]kernel.UUID, error) {
	return nil, nil
}
