package cmd

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redisgeo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/realtime"
	"dispatch/internal/scheduler"
)

// CompositionRoot wires adapters, use cases, the realtime hub and the
// matching scheduler into one object graph.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	geoIndex   ports.GeoIndex
	hub        *realtime.Hub
	scheduler  *scheduler.Scheduler
	logger     *slog.Logger
}

// NewCompositionRoot builds the object graph. Nothing is started yet; call
// Scheduler().Start and the job manager from main.
func NewCompositionRoot(config Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *CompositionRoot {
	root := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		geoIndex:   redisgeo.NewGeoIndex(redisClient),
		hub:        realtime.NewHub(logger),
		logger:     logger,
	}

	root.scheduler = scheduler.NewScheduler(
		&root.uowFactory,
		root.geoIndex,
		root.hub,
		scheduler.Config{
			OfferTTL:           config.OfferTTL,
			Freshness:          config.PresenceFreshness,
			SearchRadiusMeters: config.SearchRadiusMeters,
			MaxCandidates:      config.MaxCandidates,
		},
		logger,
	)

	return root
}

// Hub returns the realtime hub.
func (c *CompositionRoot) Hub() *realtime.Hub {
	return c.hub
}

// Scheduler returns the matching scheduler.
func (c *CompositionRoot) Scheduler() *scheduler.Scheduler {
	return c.scheduler
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.scheduler)
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() commands.AcceptOrderCommandHandler {
	var f commands.AssignmentUoWFactory = FuncAssignmentUoWFactory(func() commands.AssignmentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAcceptOrderCommandHandler(f, c.hub)
}

func (c *CompositionRoot) CreateRejectOrderCommandHandler() commands.RejectOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRejectOrderCommandHandler(f, c.scheduler)
}

func (c *CompositionRoot) CreateAdvanceOrderStatusCommandHandler() commands.AdvanceOrderStatusCommandHandler {
	var f commands.AssignmentUoWFactory = FuncAssignmentUoWFactory(func() commands.AssignmentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceOrderStatusCommandHandler(f, c.hub)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	var f commands.AssignmentUoWFactory = FuncAssignmentUoWFactory(func() commands.AssignmentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelOrderCommandHandler(f, c.hub)
}

func (c *CompositionRoot) CreateSetDriverStatusCommandHandler() commands.SetDriverStatusCommandHandler {
	var f commands.TrackingUoWFactory = FuncTrackingUoWFactory(func() commands.TrackingUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSetDriverStatusCommandHandler(f, c.geoIndex, c.logger)
}

func (c *CompositionRoot) CreateUpdateLocationCommandHandler() commands.UpdateLocationCommandHandler {
	var f commands.TrackingUoWFactory = FuncTrackingUoWFactory(func() commands.TrackingUoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpdateLocationCommandHandler(f, c.geoIndex, c.hub, c.logger)
}

func (c *CompositionRoot) CreateSendMessageCommandHandler() commands.SendMessageCommandHandler {
	var f commands.ConversationUoWFactory = FuncConversationUoWFactory(func() commands.ConversationUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSendMessageCommandHandler(f, c.hub)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetConversationHistoryQueryHandler() queries.GetConversationHistoryQueryHandler {
	return queries.NewGetConversationHistoryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetNearbyDriversQueryHandler() queries.GetNearbyDriversQueryHandler {
	return queries.NewGetNearbyDriversQueryHandler(c.gormDB, c.config.PresenceFreshness)
}

// CreateHTTPServer wires every use case into the REST + SSE surface.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateAcceptOrderCommandHandler(),
		c.CreateRejectOrderCommandHandler(),
		c.CreateAdvanceOrderStatusCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		c.CreateSetDriverStatusCommandHandler(),
		c.CreateUpdateLocationCommandHandler(),
		c.CreateSendMessageCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetConversationHistoryQueryHandler(),
		c.CreateGetNearbyDriversQueryHandler(),
		c.hub,
	)
}

// CreateJobManager wires the requeue and presence sweeps.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	requeueSweep := jobs.NewRequeueSweepJob(c.scheduler, c.config.RequeueSweepSchedule, c.logger)
	presenceSweep := jobs.NewPresenceSweepJob(
		&c.uowFactory,
		c.geoIndex,
		c.config.PresenceFreshness,
		c.config.PresenceSweepSchedule,
		c.logger,
	)
	return jobs.NewJobManager(requeueSweep, presenceSweep)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncAssignmentUoWFactory func() commands.AssignmentUoW

func (f FuncAssignmentUoWFactory) Create() commands.AssignmentUoW {
	return f()
}

type FuncTrackingUoWFactory func() commands.TrackingUoW

func (f FuncTrackingUoWFactory) Create() commands.TrackingUoW {
	return f()
}

type FuncConversationUoWFactory func() commands.ConversationUoW

func (f FuncConversationUoWFactory) Create() commands.ConversationUoW {
	return f()
}
