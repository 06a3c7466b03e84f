// Package order implements the Order aggregate root and its lifecycle state
// machine. It is the single owner of an order's status field: every mutation
// of (status, driverID) goes through aggregate methods so the transition rules
// cannot be bypassed.
//
// The package includes:
//   - Order: the aggregate root holding identity, delivery details, the
//     assigned driver, and set-once transition timestamps
//   - Status: a state machine enforcing the linear delivery workflow
//
// Lifecycle:
//
//	pending -> assigned -> accepted -> picked_up -> in_transit -> delivered
//
// with cancelled and failed reachable as terminal states from pending,
// assigned, or accepted. An order holds at most one non-terminal driver
// assignment at any instant; accept/reject races are resolved by the caller
// persisting the aggregate with an optimistic compare-and-set, so the race
// errors here (ErrStaleOffer, ErrAlreadyAssigned) are expected outcomes, not
// bugs.
package order
