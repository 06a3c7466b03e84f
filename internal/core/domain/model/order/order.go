package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// MaxDescriptionLength bounds the free-text content description.
const MaxDescriptionLength = 2000

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

// Timestamps records when each lifecycle transition happened. Every field is
// set at most once; the repository persists them as nullable columns.
type Timestamps struct {
	CreatedAt   time.Time
	AssignedAt  *time.Time
	AcceptedAt  *time.Time
	PickedUpAt  *time.Time
	InTransitAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	FailedAt    *time.Time
}

// Order is the aggregate root for a single delivery request. It owns the
// lifecycle status, the current driver assignment, and the set-once transition
// timestamps.
//
// Invariants maintained by this type:
//   - at most one non-terminal driver assignment at any instant
//   - status transitions are monotonic per the Status state machine
//   - each transition timestamp is set exactly once, in increasing order
//
// The version field supports the optimistic compare-and-set used by the
// repository: a concurrent writer that loses the race observes zero affected
// rows and maps that to the appropriate race error.
type Order struct {
	id             kernel.UUID
	clientID       kernel.UUID
	driverID       *kernel.UUID
	dropoff        kernel.GeoPoint
	dropoffAddress string
	paymentMethod  string
	amount         int64
	description    string
	status         Status
	version        int64
	timestamps     Timestamps

	isConstructed bool
}

// NewOrder creates an order in Pending status.
//
// Required fields per the intake contract: content description, dropoff
// target, and payment method. A missing field fails with a
// errs.ValueIsRequiredError; the intake collaborator never retries those.
func NewOrder(
	id kernel.UUID,
	clientID kernel.UUID,
	dropoff kernel.GeoPoint,
	dropoffAddress string,
	paymentMethod string,
	amount int64,
	description string,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		version:       1,
		timestamps:    Timestamps{CreatedAt: time.Now().UTC()},
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setClientID(clientID),
		o.setDropoff(dropoff, dropoffAddress),
		o.setPaymentMethod(paymentMethod),
		o.setAmount(amount),
		o.setDescription(description),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an order from persistence without re-running the
// creation-time side effects. Status and version are taken as stored.
func RestoreOrder(
	id kernel.UUID,
	clientID kernel.UUID,
	driverID *kernel.UUID,
	dropoff kernel.GeoPoint,
	dropoffAddress string,
	paymentMethod string,
	amount int64,
	description string,
	status Status,
	version int64,
	timestamps Timestamps,
) (*Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return nil, err
		}
	}

	o, err := NewOrder(id, clientID, dropoff, dropoffAddress, paymentMethod, amount, description)
	if err != nil {
		return nil, err
	}

	o.driverID = driverID
	o.status = status
	o.version = version
	o.timestamps = timestamps
	return o, nil
}

// Validate ensures the Order was constructed through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// ClientID returns the identifier of the client who placed the order.
func (o *Order) ClientID() kernel.UUID {
	return o.clientID
}

// Driver returns the currently assigned driver's ID, or nil when unassigned.
func (o *Order) Driver() *kernel.UUID {
	return o.driverID
}

// Dropoff returns the delivery target coordinates.
func (o *Order) Dropoff() kernel.GeoPoint {
	return o.dropoff
}

// DropoffAddress returns the opaque address reference for the dropoff.
func (o *Order) DropoffAddress() string {
	return o.dropoffAddress
}

// PaymentMethod returns the opaque payment tag chosen by the client.
func (o *Order) PaymentMethod() string {
	return o.paymentMethod
}

// Amount returns the order total in integer minor units.
func (o *Order) Amount() int64 {
	return o.amount
}

// Description returns the content description.
func (o *Order) Description() string {
	return o.description
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Version returns the optimistic-concurrency version of the aggregate.
func (o *Order) Version() int64 {
	return o.version
}

// Timestamps returns the recorded transition times.
func (o *Order) Timestamps() Timestamps {
	return o.timestamps
}

// AssignCandidate offers the order to a candidate driver, transitioning
// Pending -> Assigned. Called only by the dispatch scheduler. If the order has
// already left Pending the call fails with ErrAlreadyAssigned and the
// scheduler moves on to the next candidate.
func (o *Order) AssignCandidate(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Assign()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.driverID = &driverID
	o.stamp(&o.timestamps.AssignedAt)
	return nil
}

// Accept confirms the offer, transitioning Assigned -> Accepted. Only the
// currently offered driver may accept; everyone else gets ErrStaleOffer.
//
// This is the core race point: of two near-simultaneous accepts, the first
// compare-and-set wins and the second observes either a driver mismatch here
// or a version conflict at persistence time.
func (o *Order) Accept(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if !o.isAssignedTo(driverID) {
		return fmt.Errorf("driver %s is not the offered candidate: %w", driverID, ErrStaleOffer)
	}

	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.stamp(&o.timestamps.AcceptedAt)
	return nil
}

// Reject declines the offer, transitioning Assigned -> Pending and clearing
// the driver so the scheduler can offer the order to the next candidate.
// Only the currently offered driver may reject.
func (o *Order) Reject(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if !o.isAssignedTo(driverID) {
		return fmt.Errorf("driver %s is not the offered candidate: %w", driverID, ErrStaleOffer)
	}

	newStatus, err := o.status.Release()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.driverID = nil
	return nil
}

// AdvanceTo moves the order one step along accepted -> picked_up ->
// in_transit -> delivered. The caller must be the assigned driver and the
// target must be the immediate successor; anything else is
// ErrIllegalTransition. Repeating a transition fails the same way, and the
// timestamp for each step is set exactly once.
func (o *Order) AdvanceTo(driverID kernel.UUID, target Status) error {
	if err := errors.Join(driverID.Validate(), target.Validate()); err != nil {
		return err
	}

	if !o.isAssignedTo(driverID) {
		return fmt.Errorf("driver %s is not assigned to order %s: %w", driverID, o.id, ErrIllegalTransition)
	}

	newStatus, err := o.status.AdvanceTo(target)
	if err != nil {
		return err
	}

	o.status = newStatus
	switch newStatus {
	case PickedUp:
		o.stamp(&o.timestamps.PickedUpAt)
	case InTransit:
		o.stamp(&o.timestamps.InTransitAt)
	case Delivered:
		o.stamp(&o.timestamps.DeliveredAt)
	}
	return nil
}

// Cancel terminates the order from Pending, Assigned, or Accepted. Once the
// goods are picked up cancellation fails with ErrTooLateToCancel.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.stamp(&o.timestamps.CancelledAt)
	return nil
}

// Fail terminates the order as failed from the same pre-pickup states as Cancel.
func (o *Order) Fail() error {
	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.stamp(&o.timestamps.FailedAt)
	return nil
}

// isAssignedTo reports whether driverID is the current assignee.
func (o *Order) isAssignedTo(driverID kernel.UUID) bool {
	return o.driverID != nil && o.driverID.IsEqual(driverID)
}

// stamp sets a transition timestamp, keeping the first value on re-entry.
func (o *Order) stamp(field **time.Time) {
	if *field == nil {
		now := time.Now().UTC()
		*field = &now
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setClientID(clientID kernel.UUID) error {
	if err := clientID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("clientId", err)
	}
	o.clientID = clientID
	return nil
}

func (o *Order) setDropoff(dropoff kernel.GeoPoint, address string) error {
	if err := dropoff.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("dropoff", err)
	}
	if address == "" {
		return errs.NewValueIsRequiredError("dropoffAddress")
	}
	o.dropoff = dropoff
	o.dropoffAddress = address
	return nil
}

func (o *Order) setPaymentMethod(paymentMethod string) error {
	if paymentMethod == "" {
		return errs.NewValueIsRequiredError("paymentMethod")
	}
	o.paymentMethod = paymentMethod
	return nil
}

func (o *Order) setAmount(amount int64) error {
	if amount <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("%d is not greater than 0", amount))
	}
	o.amount = amount
	return nil
}

func (o *Order) setDescription(description string) error {
	if description == "" {
		return errs.NewValueIsRequiredError("description")
	}
	if len(description) > MaxDescriptionLength {
		return errs.NewValueIsOutOfRangeError("description", len(description), 1, MaxDescriptionLength)
	}
	o.description = description
	return nil
}
