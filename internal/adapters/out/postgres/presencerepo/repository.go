package presencerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// GormPresenceRepository implements PresenceRepository using GORM.
type GormPresenceRepository struct {
	db *gorm.DB
}

// NewGormPresenceRepository creates a new GORM presence repository.
func NewGormPresenceRepository(db *gorm.DB) *GormPresenceRepository {
	return &GormPresenceRepository{db: db}
}

// Upsert writes the record, inserting or replacing by driver ID.
func (r *GormPresenceRepository) Upsert(ctx context.Context, presence *driver.Presence) error {
	if err := presence.Validate(); err != nil {
		return err
	}

	dto := fromDomain(presence)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "driver_id"}},
			UpdateAll: true,
		}).
		Create(&dto).Error
}

// Get retrieves a driver's presence record.
func (r *GormPresenceRepository) Get(ctx context.Context, driverID kernel.UUID) (*driver.Presence, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	var dto PresenceDTO
	if err := r.db.WithContext(ctx).First(&dto, "driver_id = ?", driverID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver presence", driverID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAvailableSince retrieves available drivers updated at or after since.
func (r *GormPresenceRepository) GetAllAvailableSince(
	ctx context.Context,
	since time.Time,
) ([]*driver.Presence, error) {
	var dtos []PresenceDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "status = ? AND updated_at >= ?", driver.Available.String(), since).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetAllStale retrieves records not updated since olderThan.
func (r *GormPresenceRepository) GetAllStale(ctx context.Context, olderThan time.Time) ([]*driver.Presence, error) {
	var dtos []PresenceDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "updated_at < ?", olderThan).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

func toDomainSlice(dtos []PresenceDTO) ([]*driver.Presence, error) {
	presences := make([]*driver.Presence, 0, len(dtos))
	for _, dto := range dtos {
		restored, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		presences = append(presences, restored)
	}
	return presences, nil
}
