package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// SetDriverStatusCommandHandler handles driver availability reports. The
// durable presence record is the source of truth; the geo index is a
// best-effort replica updated after commit, and index failures never fail
// the report.
type SetDriverStatusCommandHandler struct {
	uowFactory TrackingUoWFactory
	geoIndex   ports.GeoIndex
	logger     *slog.Logger
}

// NewSetDriverStatusCommandHandler creates a handler for availability reports.
func NewSetDriverStatusCommandHandler(
	uowFactory TrackingUoWFactory,
	geoIndex ports.GeoIndex,
	logger *slog.Logger,
) SetDriverStatusCommandHandler {
	return SetDriverStatusCommandHandler{
		uowFactory: uowFactory,
		geoIndex:   geoIndex,
		logger:     logger.With("component", "set_driver_status"),
	}
}

// Handle processes the availability report. A driver holding an order past
// "accepted" cannot go available; they stay busy until delivery or
// cancellation releases them.
func (h SetDriverStatusCommandHandler) Handle(ctx context.Context, cmd SetDriverStatusCommand) error {
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

	if cmd.Status() == driver.Available {
		if err := h.ensureNoLiveDelivery(ctx, uow, cmd.DriverID()); err != nil {
			return err
		}
	}

	presenceRepo := uow.PresenceRepository()

	presence, err := presenceRepo.Get(ctx, cmd.DriverID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		presence, err = driver.NewPresence(cmd.DriverID(), cmd.Status(), cmd.Location())
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err = presence.ChangeStatus(cmd.Status()); err != nil {
			return err
		}
		if err = presence.MoveTo(cmd.Location()); err != nil {
			return err
		}
	}

	if err = presenceRepo.Upsert(ctx, presence); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.syncGeoIndex(ctx, cmd)

	return nil
}

func (h SetDriverStatusCommandHandler) ensureNoLiveDelivery(
	ctx context.Context,
	uow TrackingUoW,
	driverID kernel.UUID,
) error {
	active, err := uow.OrderRepository().GetActiveByDriver(ctx, driverID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// An assigned order is only a pending offer; anything past that means
	// the driver is mid-delivery.
	if active.Status() != order.Assigned {
		return driver.ErrInvalidPresenceTransition
	}

	return nil
}

func (h SetDriverStatusCommandHandler) syncGeoIndex(ctx context.Context, cmd SetDriverStatusCommand) {
	var err error
	if cmd.Status() == driver.Available {
		err = h.geoIndex.Update(ctx, cmd.DriverID(), cmd.Location())
	} else {
		err = h.geoIndex.Remove(ctx, cmd.DriverID())
	}

	if err != nil {
		h.logger.Warn("geo index sync failed",
			"driver_id", cmd.DriverID().String(),
			"error", err)
	}
}
