package scheduler_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/scheduler"
)

// memStore is a transactionless in-memory unit of work shared across Create
// calls, sufficient for driving the matching loop in tests.
type memStore struct {
	mu        sync.Mutex
	orders    map[kernel.UUID]*order.Order
	presences map[kernel.UUID]*driver.Presence
	offers    map[kernel.UUID]*offer.Offer
}

func newMemStore() *memStore {
	return &memStore{
		orders:    make(map[kernel.UUID]*order.Order),
		presences: make(map[kernel.UUID]*driver.Presence),
		offers:    make(map[kernel.UUID]*offer.Offer),
	}
}

func (s *memStore) Create() ports.UnitOfWork { return s }

func (s *memStore) Begin(context.Context) error    { return nil }
func (s *memStore) Commit(context.Context) error   { return nil }
func (s *memStore) Rollback(context.Context) error { return nil }

func (s *memStore) OrderRepository() ports.OrderRepository       { return (*memOrderRepo)(s) }
func (s *memStore) PresenceRepository() ports.PresenceRepository { return (*memPresenceRepo)(s) }
func (s *memStore) ChatRepository() ports.ChatRepository         { return (*memChatRepo)(s) }
func (s *memStore) OfferRepository() ports.OfferRepository       { return (*memOfferRepo)(s) }

type memOrderRepo memStore

func (r *memOrderRepo) Add(_ context.Context, aggregate *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[aggregate.ID()] = aggregate
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, aggregate *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[aggregate.ID()] = aggregate
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.orders[id]; ok {
		return stored, nil
	}
	return nil, errs.NewObjectNotFoundError("order", id)
}

func (r *memOrderRepo) GetAllPending(context.Context) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make([]*order.Order, 0)
	for _, stored := range r.orders {
		if stored.Status() == order.Pending {
			pending = append(pending, stored)
		}
	}
	return pending, nil
}

func (r *memOrderRepo) GetActiveByDriver(_ context.Context, driverID kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.orders {
		if assigned := stored.Driver(); assigned != nil &&
			assigned.IsEqual(driverID) && stored.Status().IsActiveAssignment() {
			return stored, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("driver", driverID)
}

type memPresenceRepo memStore

func (r *memPresenceRepo) Upsert(_ context.Context, presence *driver.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presences[presence.DriverID()] = presence
	return nil
}

func (r *memPresenceRepo) Get(_ context.Context, driverID kernel.UUID) (*driver.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.presences[driverID]; ok {
		return stored, nil
	}
	return nil, errs.NewObjectNotFoundError("driver", driverID)
}

func (r *memPresenceRepo) GetAllAvailableSince(_ context.Context, since time.Time) ([]*driver.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	available := make([]*driver.Presence, 0)
	for _, stored := range r.presences {
		if stored.Status() == driver.Available && !stored.UpdatedAt().Before(since) {
			available = append(available, stored)
		}
	}
	return available, nil
}

func (r *memPresenceRepo) GetAllStale(_ context.Context, olderThan time.Time) ([]*driver.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stale := make([]*driver.Presence, 0)
	for _, stored := range r.presences {
		if stored.UpdatedAt().Before(olderThan) {
			stale = append(stale, stored)
		}
	}
	return stale, nil
}

type memChatRepo memStore

func (r *memChatRepo) Append(_ context.Context, message *chat.Message) (*chat.Message, error) {
	return message.WithSequence(1)
}

func (r *memChatRepo) History(context.Context, kernel.UUID, int64, int) ([]*chat.Message, error) {
	return nil, nil
}

type memOfferRepo memStore

func (r *memOfferRepo) Save(_ context.Context, aggregate *offer.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[aggregate.OrderID()] = aggregate
	return nil
}

func (r *memOfferRepo) Get(_ context.Context, orderID kernel.UUID) (*offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.offers[orderID]; ok {
		return stored, nil
	}
	return nil, errs.NewObjectNotFoundError("offer", orderID)
}

func (r *memOfferRepo) Delete(_ context.Context, orderID kernel.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.offers, orderID)
	return nil
}

func (r *memOfferRepo) GetAllExpired(_ context.Context, now time.Time) ([]*offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expired := make([]*offer.Offer, 0)
	for _, stored := range r.offers {
		if stored.Deadline().Before(now) {
			expired = append(expired, stored)
		}
	}
	return expired, nil
}

// unavailableGeoIndex forces the presence store fallback.
type unavailableGeoIndex struct{}

func (unavailableGeoIndex) Update(context.Context, kernel.UUID, kernel.GeoPoint) error { return nil }
func (unavailableGeoIndex) Remove(context.Context, kernel.UUID) error                  { return nil }
func (unavailableGeoIndex) Nearby(context.Context, kernel.GeoPoint, float64, int) ([]kernel.UUID, error) {
	return nil, errs.NewUnavailableError("geo index", assertAnError{})
}

type assertAnError struct{}

func (assertAnError) Error() string { return "index offline" }

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

func testConfig() scheduler.Config {
	return scheduler.Config{
		OfferTTL:           200 * time.Millisecond,
		Freshness:          2 * time.Minute,
		SearchRadiusMeters: 10_000,
		MaxCandidates:      5,
	}
}

func mustPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return point
}

func placeOrder(t *testing.T, store *memStore, dropoff kernel.GeoPoint) *order.Order {
	t.Helper()
	placed, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), dropoff, "12 Abay Ave", "card", 4500, "two pizzas")
	require.NoError(t, err)
	store.orders[placed.ID()] = placed
	return placed
}

func addAvailableDriver(t *testing.T, store *memStore, location kernel.GeoPoint) kernel.UUID {
	t.Helper()
	driverID := kernel.NewUUID()
	presence, err := driver.NewPresence(driverID, driver.Available, location)
	require.NoError(t, err)
	store.presences[driverID] = presence
	return driverID
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestScheduler_AssignsNearestCandidate(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	farDriver := addAvailableDriver(t, store, mustPoint(t, 43.4000, 76.9500))
	nearDriver := addAvailableDriver(t, store, mustPoint(t, 43.2410, 76.8910))

	placed := placeOrder(t, store, dropoff)

	publisher := new(capturePublisher)
	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, publisher, testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	s.OrderQueued(placed.ID())

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.orders[placed.ID()].Status() == order.Assigned
	})

	store.mu.Lock()
	assigned := store.orders[placed.ID()].Driver()
	inFlight := store.offers[placed.ID()]
	store.mu.Unlock()

	require.NotNil(t, assigned)
	assert.True(t, assigned.IsEqual(nearDriver))
	assert.False(t, assigned.IsEqual(farDriver))

	require.NotNil(t, inFlight)
	assert.Equal(t, int64(1), inFlight.Epoch())

	events := publisher.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, ports.EventKindStatusChanged, events[0].Kind)
}

func TestScheduler_DeclineAdvancesToNextCandidate(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	first := addAvailableDriver(t, store, mustPoint(t, 43.2401, 76.8901))
	second := addAvailableDriver(t, store, mustPoint(t, 43.2450, 76.8950))

	placed := placeOrder(t, store, dropoff)

	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, new(capturePublisher), testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	s.OrderQueued(placed.ID())
	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.orders[placed.ID()].Status() == order.Assigned
	})

	// The driver declines; command handlers release the order first.
	store.mu.Lock()
	require.NoError(t, store.orders[placed.ID()].Reject(first))
	store.mu.Unlock()

	s.OfferDeclined(placed.ID())

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		assigned := store.orders[placed.ID()].Driver()
		return assigned != nil && assigned.IsEqual(second)
	})

	store.mu.Lock()
	inFlight := store.offers[placed.ID()]
	store.mu.Unlock()
	assert.Equal(t, int64(2), inFlight.Epoch())
}

func TestScheduler_ExhaustionReturnsOrderToPendingPool(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	only := addAvailableDriver(t, store, mustPoint(t, 43.2401, 76.8901))
	placed := placeOrder(t, store, dropoff)

	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, new(capturePublisher), testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	s.OrderQueued(placed.ID())
	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.orders[placed.ID()].Status() == order.Assigned
	})

	store.mu.Lock()
	require.NoError(t, store.orders[placed.ID()].Reject(only))
	store.mu.Unlock()

	s.OfferDeclined(placed.ID())

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, offerExists := store.offers[placed.ID()]
		return !offerExists && store.orders[placed.ID()].Status() == order.Pending
	})
}

func TestScheduler_ExpiryMovesOffer(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	addAvailableDriver(t, store, mustPoint(t, 43.2401, 76.8901))
	second := addAvailableDriver(t, store, mustPoint(t, 43.2450, 76.8950))

	placed := placeOrder(t, store, dropoff)

	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, new(capturePublisher), testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	s.OrderQueued(placed.ID())

	// No response from the first driver; the deadline timer advances the
	// offer on its own.
	waitFor(t, 2*time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		assigned := store.orders[placed.ID()].Driver()
		return assigned != nil && assigned.IsEqual(second)
	})
}

func TestScheduler_AcceptedOrderStopsAdvancement(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	winner := addAvailableDriver(t, store, mustPoint(t, 43.2401, 76.8901))
	addAvailableDriver(t, store, mustPoint(t, 43.2450, 76.8950))

	placed := placeOrder(t, store, dropoff)

	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, new(capturePublisher), testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	s.OrderQueued(placed.ID())
	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.orders[placed.ID()].Status() == order.Assigned
	})

	store.mu.Lock()
	require.NoError(t, store.orders[placed.ID()].Accept(winner))
	store.mu.Unlock()

	// The expiry fires against an accepted order and must retire the offer
	// without touching the assignment.
	waitFor(t, 2*time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, offerExists := store.offers[placed.ID()]
		return !offerExists
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, order.Accepted, store.orders[placed.ID()].Status())
	assert.True(t, store.orders[placed.ID()].Driver().IsEqual(winner))
}

func TestScheduler_RequeueSweepPicksUpPendingOrders(t *testing.T) {
	store := newMemStore()
	dropoff := mustPoint(t, 43.2400, 76.8900)

	addAvailableDriver(t, store, mustPoint(t, 43.2401, 76.8901))
	placed := placeOrder(t, store, dropoff)

	s := scheduler.NewScheduler(store, unavailableGeoIndex{}, new(capturePublisher), testConfig(), slog.Default())
	s.Start()
	defer s.Stop()

	// No wakeup was delivered; the sweep finds the pending order.
	require.NoError(t, s.RequeuePending(t.Context()))

	waitFor(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.orders[placed.ID()].Status() == order.Assigned
	})
}
