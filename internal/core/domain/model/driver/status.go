package driver

import (
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// ErrInvalidPresenceTransition is returned when a driver attempts to go
// available while still holding a live order assignment past accepted.
// Single active order per driver is assumed; multi-order carrying is not
// supported.
var ErrInvalidPresenceTransition = errors.New("invalid presence transition")

// Status is a driver's availability state as reported by the driver's client
// and adjusted by the lifecycle (delivery completion frees the driver).
type Status int

const (
	// Unknown is an invalid, uninitialized status.
	Unknown Status = iota

	// Offline means the driver is not connected. Drivers without a presence
	// record are treated as offline too.
	Offline

	// Available means the driver can receive dispatch offers.
	Available

	// Busy means the driver is carrying an active order.
	Busy

	// Unavailable means the driver is connected but opted out of offers.
	Unavailable
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:     "unknown",
		Offline:     "offline",
		Available:   "available",
		Busy:        "busy",
		Unavailable: "unavailable",
	}
}

// Validate checks the status is one of the defined presence states.
func (s Status) Validate() error {
	if s <= Unknown || s > Unavailable {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid presence status", s))
	}
	return nil
}

// String returns the wire name of the status. Implements fmt.Stringer.
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
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid presence status", s))
}
