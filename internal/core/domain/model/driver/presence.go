package driver

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// ErrPresenceIsNotConstructed is returned when a Presence instance was not
// created through NewPresence or RestorePresence.
var ErrPresenceIsNotConstructed = errors.New("Presence must be created via NewPresence or RestorePresence")

// Presence is a driver's last reported availability and position. It is
// upserted on every status change and location ping; the last-update time
// drives the staleness policy that keeps unreachable drivers out of
// candidate selection.
type Presence struct {
	driverID  kernel.UUID
	status    Status
	location  kernel.GeoPoint
	updatedAt time.Time

	isConstructed bool
}

// NewPresence creates a presence record for a driver at a position.
func NewPresence(driverID kernel.UUID, status Status, location kernel.GeoPoint) (*Presence, error) {
	p := &Presence{
		updatedAt:     time.Now().UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		p.setDriverID(driverID),
		p.setStatus(status),
		p.setLocation(location),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// RestorePresence reconstructs a presence record from persistence, keeping
// the stored update time.
func RestorePresence(driverID kernel.UUID, status Status, location kernel.GeoPoint, updatedAt time.Time) (*Presence, error) {
	p, err := NewPresence(driverID, status, location)
	if err != nil {
		return nil, err
	}

	p.updatedAt = updatedAt
	return p, nil
}

// Validate ensures the record was constructed through a constructor.
func (p *Presence) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPresenceIsNotConstructed
	}
	return nil
}

// DriverID returns the driver this record belongs to.
func (p *Presence) DriverID() kernel.UUID {
	return p.driverID
}

// Status returns the driver's availability status.
func (p *Presence) Status() Status {
	return p.status
}

// Location returns the driver's last known position.
func (p *Presence) Location() kernel.GeoPoint {
	return p.location
}

// UpdatedAt returns the time of the last status or location change.
func (p *Presence) UpdatedAt() time.Time {
	return p.updatedAt
}

// ChangeStatus sets a new availability status and refreshes the update time.
// The caller (PresenceTracker) is responsible for the cross-aggregate rule
// that a driver with a live order past accepted cannot go available.
func (p *Presence) ChangeStatus(status Status) error {
	if err := p.setStatus(status); err != nil {
		return err
	}

	p.updatedAt = time.Now().UTC()
	return nil
}

// MoveTo records a location ping. Unconditional upsert: pings are accepted in
// every status so live tracking keeps working for busy drivers.
func (p *Presence) MoveTo(location kernel.GeoPoint) error {
	if err := p.setLocation(location); err != nil {
		return err
	}

	p.updatedAt = time.Now().UTC()
	return nil
}

// IsFresh reports whether the record was updated within threshold of now.
func (p *Presence) IsFresh(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.updatedAt) <= threshold
}

// IsDispatchable reports whether the driver can be offered an order: status
// available and the record fresh. A stale available record is excluded so the
// scheduler never offers to an unreachable driver.
func (p *Presence) IsDispatchable(now time.Time, threshold time.Duration) bool {
	return p.status == Available && p.IsFresh(now, threshold)
}

func (p *Presence) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	p.driverID = driverID
	return nil
}

func (p *Presence) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	p.status = status
	return nil
}

func (p *Presence) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	p.location = location
	return nil
}
