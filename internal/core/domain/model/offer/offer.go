// Package offer implements the ephemeral dispatch offer: the ordered candidate
// list for one pending order, the candidate currently holding the offer, and
// the deadline by which that candidate must respond.
//
// An offer exists only while its order is in pending or assigned; it is
// destroyed when the order moves on or when every candidate has been tried.
// Offers are persisted keyed by order id so dispatch state survives process
// restarts. The epoch field is the cancellation token for deadline timers: a
// timer snapshots the epoch when scheduled and is ignored if the offer has
// advanced past it by the time it fires.
package offer

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOfferIsNotConstructed is returned when an Offer was not created
	// through NewOffer or RestoreOffer.
	ErrOfferIsNotConstructed = errors.New("Offer must be created via NewOffer or RestoreOffer")

	// ErrCandidatesExhausted is returned when every candidate in the offer
	// has rejected or timed out. The order goes back to the unassigned pool.
	ErrCandidatesExhausted = errors.New("all candidates exhausted")
)

// Offer tracks the offer protocol state for one order.
type Offer struct {
	orderID      kernel.UUID
	candidates   []kernel.UUID
	currentIndex int
	deadline     time.Time
	epoch        int64

	isConstructed bool
}

// NewOffer creates an offer positioned at the first candidate. The candidate
// list must be non-empty and is already ordered nearest-first by the caller.
func NewOffer(orderID kernel.UUID, candidates []kernel.UUID, deadline time.Time) (*Offer, error) {
	o := &Offer{
		deadline:      deadline,
		epoch:         1,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setOrderID(orderID),
		o.setCandidates(candidates),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOffer reconstructs an offer from persistence.
func RestoreOffer(
	orderID kernel.UUID,
	candidates []kernel.UUID,
	currentIndex int,
	deadline time.Time,
	epoch int64,
) (*Offer, error) {
	if currentIndex < 0 || currentIndex > len(candidates) {
		return nil, errs.NewValueIsOutOfRangeError("currentIndex", currentIndex, 0, len(candidates))
	}
	if epoch <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("epoch", fmt.Errorf("%d is not a positive epoch", epoch))
	}

	o, err := NewOffer(orderID, candidates, deadline)
	if err != nil {
		return nil, err
	}

	o.currentIndex = currentIndex
	o.epoch = epoch
	return o, nil
}

// Validate ensures the Offer was constructed through a constructor.
func (o *Offer) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOfferIsNotConstructed
	}
	return nil
}

// OrderID returns the order this offer belongs to.
func (o *Offer) OrderID() kernel.UUID {
	return o.orderID
}

// Candidates returns a copy of the ordered candidate list.
func (o *Offer) Candidates() []kernel.UUID {
	cp := make([]kernel.UUID, len(o.candidates))
	copy(cp, o.candidates)
	return cp
}

// CurrentIndex returns the position of the currently offered candidate.
func (o *Offer) CurrentIndex() int {
	return o.currentIndex
}

// Deadline returns the moment the current candidate's offer window closes.
func (o *Offer) Deadline() time.Time {
	return o.deadline
}

// Epoch returns the offer's timer-cancellation epoch. It increments on every
// Advance, invalidating previously scheduled deadline timers.
func (o *Offer) Epoch() int64 {
	return o.epoch
}

// Exhausted reports whether every candidate has been tried.
func (o *Offer) Exhausted() bool {
	return o.currentIndex >= len(o.candidates)
}

// Current returns the candidate currently holding the offer, or
// ErrCandidatesExhausted when the list is used up.
func (o *Offer) Current() (kernel.UUID, error) {
	if o.Exhausted() {
		return kernel.UUID{}, ErrCandidatesExhausted
	}
	return o.candidates[o.currentIndex], nil
}

// Advance moves to the next candidate after a reject or deadline expiry; the
// two are treated identically. The epoch increments so a stale timer that
// fires afterwards is recognized and discarded. Returns
// ErrCandidatesExhausted when the offer has run out of candidates.
func (o *Offer) Advance(nextDeadline time.Time) error {
	if o.Exhausted() {
		return ErrCandidatesExhausted
	}

	o.currentIndex++
	o.epoch++
	o.deadline = nextDeadline

	if o.Exhausted() {
		return ErrCandidatesExhausted
	}
	return nil
}

func (o *Offer) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	o.orderID = orderID
	return nil
}

func (o *Offer) setCandidates(candidates []kernel.UUID) error {
	if len(candidates) == 0 {
		return errs.NewValueIsRequiredError("candidates")
	}

	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("candidates[%d]", i), err)
		}
	}

	o.candidates = make([]kernel.UUID, len(candidates))
	copy(o.candidates, candidates)
	return nil
}
