// Package presencerepo persists driver presence records: one row per driver,
// upserted on every status change or location ping.
package presencerepo

import (
	"time"

	"github.com/google/uuid"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// PresenceDTO represents the database structure for driver presence.
// The updated_at column drives the freshness cutoff in candidate selection.
type PresenceDTO struct {
	DriverID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status    string    `gorm:"index"`
	Lat       float64
	Lon       float64
	UpdatedAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for presence records.
func (PresenceDTO) TableName() string {
	return "driver_presence"
}

func fromDomain(presence *driver.Presence) PresenceDTO {
	return PresenceDTO{
		DriverID:  presence.DriverID().Bytes(),
		Status:    presence.Status().String(),
		Lat:       presence.Location().Latitude(),
		Lon:       presence.Location().Longitude(),
		UpdatedAt: presence.UpdatedAt(),
	}
}

func toDomain(dto PresenceDTO) (*driver.Presence, error) {
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	status, err := driver.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return nil, err
	}

	return driver.RestorePresence(driverID, status, location, dto.UpdatedAt)
}
