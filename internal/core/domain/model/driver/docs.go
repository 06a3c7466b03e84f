// Package driver implements the presence record that tracks each driver's
// availability status and last known position. PresenceTracker is the only
// writer of this state; one record exists per driver, upserted on every status
// or location change. A driver with no record is treated as offline.
package driver
