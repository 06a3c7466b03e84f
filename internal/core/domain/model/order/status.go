package order

import (
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Race and transition errors. These are expected outcomes of concurrent
// lifecycle operations and are handled locally by the dispatch scheduler or
// surfaced verbatim to the losing caller.
var (
	// ErrAlreadyAssigned is returned by AssignCandidate when the order has
	// already left pending. The scheduler treats it as an idempotent no-op
	// and moves to the next candidate.
	ErrAlreadyAssigned = errors.New("order is already assigned")

	// ErrStaleOffer is returned by Accept and Reject when the caller is not
	// the currently offered driver, or the order has already been accepted.
	// The losing driver re-fetches state and sees "order no longer available".
	ErrStaleOffer = errors.New("offer is stale")

	// ErrIllegalTransition is returned when a caller attempts a status change
	// that is not the immediate successor of the current status.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrTooLateToCancel is returned when cancellation is requested at or
	// beyond picked_up.
	ErrTooLateToCancel = errors.New("too late to cancel order")
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	Pending ──> Assigned ──> Accepted ──> PickedUp ──> InTransit ──> Delivered
//	   ▲           │
//	   └───────────┘ (reject / offer expiry)
//
// Cancelled and Failed are terminal and reachable from Pending, Assigned,
// and Accepted only. Transitions are monotonic: no status ever repeats or
// reverses except the explicit Assigned -> Pending release.
type Status int

const (
	// Unknown represents an invalid, uninitialized status.
	Unknown Status = iota

	// Pending means the order awaits a driver; the dispatch scheduler owns it.
	Pending

	// Assigned means the order is offered to one candidate driver who has not
	// yet responded.
	Assigned

	// Accepted means the offered driver confirmed the order.
	Accepted

	// PickedUp means the driver collected the goods.
	PickedUp

	// InTransit means the driver is on the way to the dropoff.
	InTransit

	// Delivered is the successful terminal state.
	Delivered

	// Cancelled is the terminal state for client or operator cancellation.
	Cancelled

	// Failed is the terminal state for orders abandoned by the system.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Assigned:  "assigned",
		Accepted:  "accepted",
		PickedUp:  "picked_up",
		InTransit: "in_transit",
		Delivered: "delivered",
		Cancelled: "cancelled",
		Failed:    "failed",
	}
}

// Validate checks the status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Failed {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status ("pending", "picked_up", ...).
// Implements fmt.Stringer; safe on any value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// StatusFromString parses a wire name back into a Status.
func StatusFromString(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Failed
}

// IsActiveAssignment reports whether the status represents a live driver
// assignment (assigned through in_transit). Used to enforce the
// one-active-order-per-driver invariant.
func (s Status) IsActiveAssignment() bool {
	return s == Assigned || s == Accepted || s == PickedUp || s == InTransit
}

// Assign transitions Pending -> Assigned. Any other starting status yields
// ErrAlreadyAssigned (terminal and in-flight states alike: from the
// scheduler's perspective the offer window has closed either way).
func (s Status) Assign() (Status, error) {
	if s != Pending {
		return Unknown, fmt.Errorf("cannot assign order in status %s: %w", s, ErrAlreadyAssigned)
	}
	return Assigned, nil
}

// Accept transitions Assigned -> Accepted. Any other starting status yields
// ErrStaleOffer: the second of two racing accept calls observes Accepted and
// loses here.
func (s Status) Accept() (Status, error) {
	if s != Assigned {
		return Unknown, fmt.Errorf("cannot accept order in status %s: %w", s, ErrStaleOffer)
	}
	return Accepted, nil
}

// Release transitions Assigned -> Pending on an explicit reject or offer
// expiry, returning the order to the dispatch pool.
func (s Status) Release() (Status, error) {
	if s != Assigned {
		return Unknown, fmt.Errorf("cannot release order in status %s: %w", s, ErrStaleOffer)
	}
	return Pending, nil
}

// next returns the immediate successor in the linear delivery sequence.
func (s Status) next() (Status, bool) {
	switch s {
	case Accepted:
		return PickedUp, true
	case PickedUp:
		return InTransit, true
	case InTransit:
		return Delivered, true
	default:
		return Unknown, false
	}
}

// AdvanceTo validates that target is the immediate successor of the current
// status in the accepted -> picked_up -> in_transit -> delivered sequence.
// Skipping ahead, repeating, and reversing all yield ErrIllegalTransition.
func (s Status) AdvanceTo(target Status) (Status, error) {
	succ, ok := s.next()
	if !ok || succ != target {
		return Unknown, fmt.Errorf("cannot advance from %s to %s: %w", s, target, ErrIllegalTransition)
	}
	return target, nil
}

// Cancel transitions to Cancelled from Pending, Assigned, or Accepted.
// At picked_up and beyond it yields ErrTooLateToCancel.
func (s Status) Cancel() (Status, error) {
	if s != Pending && s != Assigned && s != Accepted {
		return Unknown, fmt.Errorf("cannot cancel order in status %s: %w", s, ErrTooLateToCancel)
	}
	return Cancelled, nil
}

// Fail transitions to Failed from the same pre-pickup states as Cancel.
func (s Status) Fail() (Status, error) {
	if s != Pending && s != Assigned && s != Accepted {
		return Unknown, fmt.Errorf("cannot fail order in status %s: %w", s, ErrIllegalTransition)
	}
	return Failed, nil
}
