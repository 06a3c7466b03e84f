package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSetDriverStatusCommandIsNotConstructed = errors.New(
	"SetDriverStatusCommand must be created via NewSetDriverStatusCommand constructor",
)

// SetDriverStatusCommand represents a driver reporting their availability.
// Carries the current location so a driver coming online is immediately
// placed in the geo index.
type SetDriverStatusCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	status   driver.Status
	location kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewSetDriverStatusCommand creates a command for an availability report.
func NewSetDriverStatusCommand(
	driverID kernel.UUID,
	status driver.Status,
	location kernel.GeoPoint,
) (SetDriverStatusCommand, error) {
	statusCommand := SetDriverStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		statusCommand.setDriverID(driverID),
		statusCommand.setStatus(status),
		statusCommand.setLocation(location),
	); err != nil {
		return SetDriverStatusCommand{}, err
	}

	return statusCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c SetDriverStatusCommand) Validate() error {
	return c.guard.Validate(ErrSetDriverStatusCommandIsNotConstructed)
}

// DriverID returns the reporting driver.
func (c SetDriverStatusCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Status returns the reported availability.
func (c SetDriverStatusCommand) Status() driver.Status {
	return c.status
}

// Location returns the driver's current position.
func (c SetDriverStatusCommand) Location() kernel.GeoPoint {
	return c.location
}

func (c *SetDriverStatusCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *SetDriverStatusCommand) setStatus(status driver.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	c.status = status
	return nil
}

func (c *SetDriverStatusCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}
