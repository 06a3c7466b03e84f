// Package http exposes the dispatch engine over a REST surface plus an SSE
// stream per order room. Actor identity arrives via trusted X-Actor-Id and
// X-Actor-Role headers set by the gateway in front of this service.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/realtime"
)

const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"

	roleClient   = "client"
	roleDriver   = "driver"
	roleOperator = "operator"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler    commands.CreateOrderCommandHandler
	acceptOrderHandler    commands.AcceptOrderCommandHandler
	rejectOrderHandler    commands.RejectOrderCommandHandler
	advanceOrderHandler   commands.AdvanceOrderStatusCommandHandler
	cancelOrderHandler    commands.CancelOrderCommandHandler
	setStatusHandler      commands.SetDriverStatusCommandHandler
	updateLocationHandler commands.UpdateLocationCommandHandler
	sendMessageHandler    commands.SendMessageCommandHandler
	getOrderHandler       queries.GetOrderQueryHandler
	getHistoryHandler     queries.GetConversationHistoryQueryHandler
	getNearbyHandler      queries.GetNearbyDriversQueryHandler
	hub                   *realtime.Hub
}

// NewServer creates an HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	acceptOrderHandler commands.AcceptOrderCommandHandler,
	rejectOrderHandler commands.RejectOrderCommandHandler,
	advanceOrderHandler commands.AdvanceOrderStatusCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	setStatusHandler commands.SetDriverStatusCommandHandler,
	updateLocationHandler commands.UpdateLocationCommandHandler,
	sendMessageHandler commands.SendMessageCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getHistoryHandler queries.GetConversationHistoryQueryHandler,
	getNearbyHandler queries.GetNearbyDriversQueryHandler,
	hub *realtime.Hub,
) *Server {
	return &Server{
		createOrderHandler:  createOrderHandler,
		acceptOrderHandler:  acceptOrderHandler,
		rejectOrderHandler:  rejectOrderHandler,
		advanceOrderHandler: advanceOrderHandler,
		cancelOrderHandler:  cancelOrderHandler,
		setStatusHandler:    setStatusHandler,
		updateLocationHandler:   updateLocationHandler,
		sendMessageHandler:  sendMessageHandler,
		getOrderHandler:     getOrderHandler,
		getHistoryHandler:   getHistoryHandler,
		getNearbyHandler:    getNearbyHandler,
		hub:                 hub,
	}
}

// RegisterRoutes mounts all endpoints under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders/:id", s.GetOrder)
	v1.POST("/orders/:id/accept", s.AcceptOrder)
	v1.POST("/orders/:id/reject", s.RejectOrder)
	v1.POST("/orders/:id/advance", s.AdvanceOrder)
	v1.POST("/orders/:id/cancel", s.CancelOrder)
	v1.POST("/orders/:id/messages", s.SendMessage)
	v1.GET("/orders/:id/messages", s.GetMessages)
	v1.POST("/orders/:id/typing", s.Typing)
	v1.GET("/orders/:id/events", s.StreamEvents)
	v1.PUT("/drivers/:id/status", s.SetDriverStatus)
	v1.PUT("/drivers/:id/location", s.UpdateDriverLocation)
	v1.GET("/drivers/nearby", s.GetNearbyDrivers)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	clientID, err := actorID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusUnauthorized, err)
	}

	var body createOrderRequest
	if bindErr := ctx.Bind(&body); bindErr != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("invalid request body"))
	}

	dropoff, err := kernel.NewGeoPoint(body.DropoffLat, body.DropoffLon)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(
		orderID,
		clientID,
		dropoff,
		body.DropoffAddress,
		body.PaymentMethod,
		body.Amount,
		body.Description,
	)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": orderID.String()})
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	snapshot, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderResponseFrom(snapshot))
}

// AcceptOrder handles POST /api/v1/orders/:id/accept.
func (s *Server) AcceptOrder(ctx echo.Context) error {
	orderID, driverID, code, err := orderAndDriver(ctx)
	if err != nil {
		return writeError(ctx, code, err)
	}

	cmd, err := commands.NewAcceptOrderCommand(orderID, driverID)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.acceptOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// RejectOrder handles POST /api/v1/orders/:id/reject.
func (s *Server) RejectOrder(ctx echo.Context) error {
	orderID, driverID, code, err := orderAndDriver(ctx)
	if err != nil {
		return writeError(ctx, code, err)
	}

	cmd, err := commands.NewRejectOrderCommand(orderID, driverID)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.rejectOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// AdvanceOrder handles POST /api/v1/orders/:id/advance.
func (s *Server) AdvanceOrder(ctx echo.Context) error {
	orderID, driverID, code, err := orderAndDriver(ctx)
	if err != nil {
		return writeError(ctx, code, err)
	}

	var body advanceOrderRequest
	if bindErr := ctx.Bind(&body); bindErr != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("invalid request body"))
	}

	target, err := order.StatusFromString(body.Target)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	cmd, err := commands.NewAdvanceOrderStatusCommand(orderID, driverID, target)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.advanceOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	actor, err := actorID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusUnauthorized, err)
	}

	var cmd commands.CancelOrderCommand
	if ctx.Request().Header.Get(headerActorRole) == roleOperator {
		cmd, err = commands.NewOperatorCancelOrderCommand(orderID, actor)
	} else {
		cmd, err = commands.NewCancelOrderCommand(orderID, actor)
	}
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// SendMessage handles POST /api/v1/orders/:id/messages.
func (s *Server) SendMessage(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	senderID, err := actorID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusUnauthorized, err)
	}

	var body sendMessageRequest
	if bindErr := ctx.Bind(&body); bindErr != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("invalid request body"))
	}

	kind := chat.KindText
	if body.Kind != "" {
		kind, err = chat.KindFromString(body.Kind)
		if err != nil {
			return writeError(ctx, http.StatusBadRequest, err)
		}
	}

	var recipientID *kernel.UUID
	if body.RecipientID != "" {
		parsed, parseErr := kernel.UUIDFromString(body.RecipientID)
		if parseErr != nil {
			return writeError(ctx, http.StatusBadRequest, parseErr)
		}
		recipientID = &parsed
	}

	cmd, err := commands.NewSendMessageCommand(orderID, senderID, recipientID, body.Content, kind)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	stored, err := s.sendMessageHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, messageResponseFrom(stored))
}

// GetMessages handles GET /api/v1/orders/:id/messages.
func (s *Server) GetMessages(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	sinceSeq := int64(0)
	if raw := ctx.QueryParam("since_seq"); raw != "" {
		if _, scanErr := fmt.Sscan(raw, &sinceSeq); scanErr != nil {
			return writeError(ctx, http.StatusBadRequest, errors.New("since_seq must be an integer"))
		}
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		if _, scanErr := fmt.Sscan(raw, &limit); scanErr != nil {
			return writeError(ctx, http.StatusBadRequest, errors.New("limit must be an integer"))
		}
	}

	query, err := queries.NewGetConversationHistoryQuery(orderID, sinceSeq, limit)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	messages, err := s.getHistoryHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err)
	}

	response := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		item := messageResponse{
			Seq:       message.Seq,
			SenderID:  message.SenderID.String(),
			Content:   message.Content,
			Kind:      message.Kind,
			CreatedAt: message.CreatedAt,
		}
		if message.RecipientID != nil {
			item.RecipientID = message.RecipientID.String()
		}
		response = append(response, item)
	}

	return ctx.JSON(http.StatusOK, response)
}

// Typing handles POST /api/v1/orders/:id/typing. The indicator is broadcast
// to the room and never persisted.
func (s *Server) Typing(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	actor, err := actorID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusUnauthorized, err)
	}

	s.hub.Publish(ports.Event{
		Kind:    ports.EventKindTyping,
		OrderID: orderID,
		At:      nowUTC(),
		Payload: ports.TypingPayload{
			ActorID: actor,
			Role:    ctx.Request().Header.Get(headerActorRole),
		},
	})

	return ctx.NoContent(http.StatusAccepted)
}

// StreamEvents handles GET /api/v1/orders/:id/events as an SSE stream. The
// stream carries every room event from the moment of subscription; clients
// recover anything earlier through the order snapshot and message history.
func (s *Server) StreamEvents(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	sub := s.hub.Subscribe(orderID)
	defer s.hub.Unsubscribe(sub)

	response := ctx.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set(echo.HeaderCacheControl, "no-cache")
	response.Header().Set(echo.HeaderConnection, "keep-alive")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	requestCtx := ctx.Request().Context()
	for {
		select {
		case <-requestCtx.Done():
			return nil
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if writeErr := writeSSE(response, event); writeErr != nil {
				return nil
			}
		}
	}
}

// SetDriverStatus handles PUT /api/v1/drivers/:id/status.
func (s *Server) SetDriverStatus(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	var body setStatusRequest
	if bindErr := ctx.Bind(&body); bindErr != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("invalid request body"))
	}

	status, err := driver.StatusFromString(body.Status)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	location, err := kernel.NewGeoPoint(body.Lat, body.Lon)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	cmd, err := commands.NewSetDriverStatusCommand(driverID, status, location)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.setStatusHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// UpdateDriverLocation handles PUT /api/v1/drivers/:id/location.
func (s *Server) UpdateDriverLocation(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "id")
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	var body locationRequest
	if bindErr := ctx.Bind(&body); bindErr != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("invalid request body"))
	}

	location, err := kernel.NewGeoPoint(body.Lat, body.Lon)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	cmd, err := commands.NewUpdateLocationCommand(driverID, location)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	if err := s.updateLocationHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetNearbyDrivers handles GET /api/v1/drivers/nearby.
func (s *Server) GetNearbyDrivers(ctx echo.Context) error {
	var lat, lon float64
	if _, err := fmt.Sscan(ctx.QueryParam("lat"), &lat); err != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("lat must be a number"))
	}
	if _, err := fmt.Sscan(ctx.QueryParam("lon"), &lon); err != nil {
		return writeError(ctx, http.StatusBadRequest, errors.New("lon must be a number"))
	}

	radius := 5000.0
	if raw := ctx.QueryParam("radius"); raw != "" {
		if _, err := fmt.Sscan(raw, &radius); err != nil {
			return writeError(ctx, http.StatusBadRequest, errors.New("radius must be a number"))
		}
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		if _, err := fmt.Sscan(raw, &limit); err != nil {
			return writeError(ctx, http.StatusBadRequest, errors.New("limit must be an integer"))
		}
	}

	reference, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	query, err := queries.NewGetNearbyDriversQuery(reference, radius, limit)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err)
	}

	drivers, err := s.getNearbyHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err)
	}

	response := make([]nearbyDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, nearbyDriverResponse{
			DriverID:       d.DriverID.String(),
			Lat:            d.Location.Latitude(),
			Lon:            d.Location.Longitude(),
			DistanceMeters: d.DistanceMeters,
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

func orderAndDriver(ctx echo.Context) (kernel.UUID, kernel.UUID, int, error) {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, http.StatusBadRequest, err
	}

	driverID, err := actorID(ctx)
	if err != nil {
		return kernel.UUID{}, kernel.UUID{}, http.StatusUnauthorized, err
	}

	return orderID, driverID, 0, nil
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(ctx.Param(name))
	if err != nil {
		return kernel.UUID{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func actorID(ctx echo.Context) (kernel.UUID, error) {
	raw := ctx.Request().Header.Get(headerActorID)
	if raw == "" {
		return kernel.UUID{}, errors.New("missing " + headerActorID + " header")
	}

	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errors.New("malformed " + headerActorID + " header")
	}
	return id, nil
}

// writeDomainError maps application and domain errors onto HTTP statuses.
func writeDomainError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return writeError(ctx, http.StatusNotFound, err)
	case errors.Is(err, order.ErrStaleOffer),
		errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, order.ErrTooLateToCancel),
		errors.Is(err, commands.ErrDriverHasActiveOrder),
		errors.Is(err, driver.ErrInvalidPresenceTransition):
		return writeError(ctx, http.StatusConflict, err)
	case errors.Is(err, commands.ErrNotOrderOwner),
		errors.Is(err, commands.ErrNotConversationParticipant):
		return writeError(ctx, http.StatusForbidden, err)
	case errors.Is(err, commands.ErrConversationClosed):
		return writeError(ctx, http.StatusGone, err)
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return writeError(ctx, http.StatusBadRequest, err)
	default:
		return writeError(ctx, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(ctx echo.Context, code int, err error) error {
	return ctx.JSON(code, errorResponse{Code: code, Message: err.Error()})
}

func writeSSE(response *echo.Response, event ports.Event) error {
	payload, err := json.Marshal(sseEnvelope{
		Kind:    string(event.Kind),
		OrderID: event.OrderID.String(),
		At:      event.At,
		Payload: event.Payload,
	})
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(response, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
		return err
	}
	response.Flush()
	return nil
}
