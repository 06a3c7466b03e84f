package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// UpdateLocationCommandHandler handles driver location pings. Every ping
// refreshes the durable presence record; if the driver is carrying an active
// order the position is also streamed to that order's room so the client
// watches the driver approach.
type UpdateLocationCommandHandler struct {
	uowFactory TrackingUoWFactory
	geoIndex   ports.GeoIndex
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewUpdateLocationCommandHandler creates a handler for location pings.
func NewUpdateLocationCommandHandler(
	uowFactory TrackingUoWFactory,
	geoIndex ports.GeoIndex,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) UpdateLocationCommandHandler {
	return UpdateLocationCommandHandler{
		uowFactory: uowFactory,
		geoIndex:   geoIndex,
		publisher:  publisher,
		logger:     logger.With("component", "update_location"),
	}
}

// Handle processes one ping. A first ping from a driver with no presence
// record creates one in the Offline status; the driver still has to report
// availability before entering the dispatch pool.
func (h UpdateLocationCommandHandler) Handle(ctx context.Context, cmd UpdateLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	presenceRepo := uow.PresenceRepository()

	presence, err := presenceRepo.Get(ctx, cmd.DriverID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		presence, err = driver.NewPresence(cmd.DriverID(), driver.Offline, cmd.Location())
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err = presence.MoveTo(cmd.Location()); err != nil {
			return err
		}
	}

	if err = presenceRepo.Upsert(ctx, presence); err != nil {
		return err
	}

	active, err := uow.OrderRepository().GetActiveByDriver(ctx, cmd.DriverID())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if presence.Status() == driver.Available {
		if indexErr := h.geoIndex.Update(ctx, cmd.DriverID(), cmd.Location()); indexErr != nil {
			h.logger.Warn("geo index sync failed",
				"driver_id", cmd.DriverID().String(),
				"error", indexErr)
		}
	}

	if active != nil {
		h.publisher.Publish(ports.Event{
			Kind:    ports.EventKindLocationUpdate,
			OrderID: active.ID(),
			At:      time.Now().UTC(),
			Payload: ports.LocationUpdatePayload{
				DriverID: cmd.DriverID(),
				Location: cmd.Location(),
			},
		})
	}

	return nil
}
