// Package scheduler implements the order matching loop: candidate selection,
// offer creation, deadline timers, and advancement through the candidate list
// when drivers decline or time out.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const taskQueueSize = 256

type taskKind int

const (
	taskDispatch taskKind = iota
	taskAdvance
)

type task struct {
	kind    taskKind
	orderID kernel.UUID

	// epoch guards expiry-driven advances: a timer that fired for an offer
	// that has since moved on carries a stale epoch and is ignored.
	epoch int64
}

// Config holds the matching loop's tunables.
type Config struct {
	// OfferTTL is how long a candidate has to respond before the offer
	// moves to the next driver.
	OfferTTL time.Duration

	// Freshness is the presence staleness cutoff for candidate selection.
	Freshness time.Duration

	// SearchRadiusMeters bounds the candidate search around the dropoff.
	SearchRadiusMeters float64

	// MaxCandidates caps the candidate list built per dispatch round.
	MaxCandidates int
}

// Scheduler runs the matching loop. It consumes wakeups from command
// handlers (order placed, offer declined), expiry timers, and the periodic
// requeue sweep, and serializes them through a task queue drained by a
// single worker so two dispatch rounds never race on the same offer.
type Scheduler struct {
	uowFactory ports.UnitOfWorkFactory
	geoIndex   ports.GeoIndex
	ranker     services.CandidateRanker
	publisher  ports.EventPublisher
	config     Config
	logger     *slog.Logger

	tasks chan task

	mu     sync.Mutex
	timers map[kernel.UUID]*time.Timer

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler. Call Start to begin matching.
func NewScheduler(
	uowFactory ports.UnitOfWorkFactory,
	geoIndex ports.GeoIndex,
	publisher ports.EventPublisher,
	config Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		uowFactory: uowFactory,
		geoIndex:   geoIndex,
		ranker:     services.NewCandidateRanker(config.Freshness),
		publisher:  publisher,
		config:     config,
		logger:     logger.With("component", "scheduler"),
		tasks:      make(chan task, taskQueueSize),
		timers:     make(map[kernel.UUID]*time.Timer),
	}
}

// Start launches the worker. The worker stops when Stop is called.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop terminates the worker and cancels every pending offer timer.
// In-flight offers are recovered after restart by the requeue sweep.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, orderID)
	}
}

// OrderQueued implements the dispatch wakeup for newly placed orders.
func (s *Scheduler) OrderQueued(orderID kernel.UUID) {
	s.enqueue(task{kind: taskDispatch, orderID: orderID})
}

// OfferDeclined implements the dispatch wakeup for declined offers.
func (s *Scheduler) OfferDeclined(orderID kernel.UUID) {
	s.enqueue(task{kind: taskAdvance, orderID: orderID, epoch: -1})
}

// RequeuePending re-enters matching for orders stuck in pending and for
// offers whose deadline passed while no timer was armed, typically after a
// restart. Called by the periodic sweep job.
func (s *Scheduler) RequeuePending(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	pending, err := uow.OrderRepository().GetAllPending(ctx)
	if err != nil {
		return err
	}

	expired, err := uow.OfferRepository().GetAllExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	inFlight := make(map[kernel.UUID]bool, len(expired))
	for _, expiredOffer := range expired {
		inFlight[expiredOffer.OrderID()] = true
		s.enqueue(task{kind: taskAdvance, orderID: expiredOffer.OrderID(), epoch: expiredOffer.Epoch()})
	}

	for _, pendingOrder := range pending {
		if !inFlight[pendingOrder.ID()] {
			s.enqueue(task{kind: taskDispatch, orderID: pendingOrder.ID()})
		}
	}

	return nil
}

func (s *Scheduler) enqueue(t task) {
	select {
	case s.tasks <- t:
	default:
		s.logger.Warn("task queue full, dropping wakeup",
			"order_id", t.orderID.String())
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.tasks:
			var err error
			switch t.kind {
			case taskDispatch:
				err = s.dispatch(ctx, t.orderID)
			case taskAdvance:
				err = s.advance(ctx, t.orderID, t.epoch)
			}
			if err != nil {
				s.logger.Error("matching round failed",
					"order_id", t.orderID.String(),
					"error", err)
			}
		}
	}
}

// dispatch opens a matching round for a pending order: builds the ranked
// candidate list, persists the offer, and assigns the first candidate.
func (s *Scheduler) dispatch(ctx context.Context, orderID kernel.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	pendingOrder, err := orderRepo.Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if pendingOrder.Status() != order.Pending {
		return nil
	}

	candidates, err := s.selectCandidates(ctx, uow, pendingOrder)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		s.logger.Info("no dispatchable drivers, order stays pending",
			"order_id", orderID.String())
		return nil
	}

	deadline := time.Now().UTC().Add(s.config.OfferTTL)

	newOffer, err := offer.NewOffer(orderID, candidates, deadline)
	if err != nil {
		return err
	}

	first, err := newOffer.Current()
	if err != nil {
		return err
	}

	if err = pendingOrder.AssignCandidate(first); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, pendingOrder); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			s.logger.Info("order changed under dispatch, skipping round",
				"order_id", orderID.String())
			return nil
		}
		return err
	}

	if err = uow.OfferRepository().Save(ctx, newOffer); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	s.announceAssignment(orderID, first)
	s.armTimer(orderID, newOffer.Epoch(), s.config.OfferTTL)

	return nil
}

// advance moves an in-flight offer to the next candidate. expectedEpoch < 0
// means the advance came from an explicit decline; otherwise it came from a
// timer or the sweep and only applies while the offer is still on that epoch.
func (s *Scheduler) advance(ctx context.Context, orderID kernel.UUID, expectedEpoch int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	offerRepo := uow.OfferRepository()
	orderRepo := uow.OrderRepository()

	currentOffer, err := offerRepo.Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if expectedEpoch >= 0 && currentOffer.Epoch() != expectedEpoch {
		return nil
	}

	advancedOrder, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if advancedOrder.Status().IsTerminal() || advancedOrder.Status() == order.Accepted {
		// The race already resolved in the driver's or client's favor.
		if err = offerRepo.Delete(ctx, orderID); err != nil {
			return err
		}
		if err = uow.Commit(ctx); err != nil {
			return err
		}
		s.disarmTimer(orderID)
		return nil
	}

	// A timed-out candidate still holds the assignment; release it before
	// moving on. Declines arrive with the order already back in pending.
	if advancedOrder.Status() == order.Assigned {
		timedOut, currErr := currentOffer.Current()
		if currErr != nil {
			return currErr
		}
		if err = advancedOrder.Reject(timedOut); err != nil {
			return err
		}
	}

	// Advancing into exhaustion reports ErrCandidatesExhausted; the
	// Exhausted branch below handles that outcome, so it is not a failure
	// here.
	if err = currentOffer.Advance(time.Now().UTC().Add(s.config.OfferTTL)); err != nil &&
		!errors.Is(err, offer.ErrCandidatesExhausted) {
		return err
	}

	if currentOffer.Exhausted() {
		if err = orderRepo.Update(ctx, advancedOrder); err != nil {
			return err
		}
		if err = offerRepo.Delete(ctx, orderID); err != nil {
			return err
		}
		if err = uow.Commit(ctx); err != nil {
			return err
		}

		s.disarmTimer(orderID)
		s.logger.Info("candidate list exhausted, order back in pending pool",
			"order_id", orderID.String())
		return nil
	}

	next, err := currentOffer.Current()
	if err != nil {
		return err
	}

	if err = advancedOrder.AssignCandidate(next); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, advancedOrder); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			s.logger.Info("order changed under advance, skipping",
				"order_id", orderID.String())
			return nil
		}
		return err
	}

	if err = offerRepo.Save(ctx, currentOffer); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	s.announceAssignment(orderID, next)
	s.armTimer(orderID, currentOffer.Epoch(), s.config.OfferTTL)

	return nil
}

// selectCandidates builds the ranked candidate list. The geo index is the
// fast path; when it is unreachable the durable presence store serves the
// same query through the in-core ranker.
func (s *Scheduler) selectCandidates(
	ctx context.Context,
	uow ports.UnitOfWork,
	pendingOrder *order.Order,
) ([]kernel.UUID, error) {
	nearby, err := s.geoIndex.Nearby(ctx, pendingOrder.Dropoff(), s.config.SearchRadiusMeters, s.config.MaxCandidates)
	if err == nil && len(nearby) > 0 {
		return s.confirmDispatchable(ctx, uow, nearby)
	}
	if err != nil && !errors.Is(err, errs.ErrUnavailable) {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("geo index unavailable, falling back to presence store",
			"error", err)
	}

	cutoff := time.Now().UTC().Add(-s.config.Freshness)
	presences, err := uow.PresenceRepository().GetAllAvailableSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	ranked, err := s.ranker.Rank(pendingOrder.Dropoff(), presences, s.config.MaxCandidates, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	candidates := make([]kernel.UUID, 0, len(ranked))
	for _, candidate := range ranked {
		if candidate.DistanceMeters <= s.config.SearchRadiusMeters {
			candidates = append(candidates, candidate.DriverID)
		}
	}

	return candidates, nil
}

// confirmDispatchable re-checks geo index hits against the presence store.
// The index can lag behind status changes; the store has the last word.
func (s *Scheduler) confirmDispatchable(
	ctx context.Context,
	uow ports.UnitOfWork,
	nearby []kernel.UUID,
) ([]kernel.UUID, error) {
	now := time.Now().UTC()
	presenceRepo := uow.PresenceRepository()

	candidates := make([]kernel.UUID, 0, len(nearby))
	for _, driverID := range nearby {
		presence, err := presenceRepo.Get(ctx, driverID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if presence.IsDispatchable(now, s.config.Freshness) {
			candidates = append(candidates, driverID)
		}
	}

	return candidates, nil
}

func (s *Scheduler) announceAssignment(orderID, driverID kernel.UUID) {
	assigned := driverID
	s.publisher.Publish(ports.Event{
		Kind:    ports.EventKindStatusChanged,
		OrderID: orderID,
		At:      time.Now().UTC(),
		Payload: ports.StatusChangedPayload{
			Status:   order.Assigned.String(),
			DriverID: &assigned,
		},
	})
}

// armTimer schedules the offer expiry. The epoch snapshot makes a fired
// timer harmless once the offer has advanced past it.
func (s *Scheduler) armTimer(orderID kernel.UUID, epoch int64, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
	}

	s.timers[orderID] = time.AfterFunc(ttl, func() {
		s.enqueue(task{kind: taskAdvance, orderID: orderID, epoch: epoch})
	})
}

func (s *Scheduler) disarmTimer(orderID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
		delete(s.timers, orderID)
	}
}
