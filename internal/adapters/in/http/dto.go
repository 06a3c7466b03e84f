package http

import (
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/chat"
)

type createOrderRequest struct {
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLon     float64 `json:"dropoff_lon"`
	DropoffAddress string  `json:"dropoff_address"`
	PaymentMethod  string  `json:"payment_method"`
	Amount         int64   `json:"amount"`
	Description    string  `json:"description"`
}

type advanceOrderRequest struct {
	Target string `json:"target"`
}

type sendMessageRequest struct {
	Content     string `json:"content"`
	Kind        string `json:"kind"`
	RecipientID string `json:"recipient_id"`
}

type setStatusRequest struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type orderResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	DriverID       string     `json:"driver_id,omitempty"`
	Status         string     `json:"status"`
	DropoffLat     float64    `json:"dropoff_lat"`
	DropoffLon     float64    `json:"dropoff_lon"`
	DropoffAddress string     `json:"dropoff_address"`
	PaymentMethod  string     `json:"payment_method"`
	Amount         int64      `json:"amount"`
	Description    string     `json:"description"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt     *time.Time `json:"picked_up_at,omitempty"`
	InTransitAt    *time.Time `json:"in_transit_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
}

func orderResponseFrom(snapshot queries.GetOrderQueryResponse) orderResponse {
	response := orderResponse{
		ID:             snapshot.ID.String(),
		ClientID:       snapshot.ClientID.String(),
		Status:         snapshot.Status,
		DropoffLat:     snapshot.DropoffLat,
		DropoffLon:     snapshot.DropoffLon,
		DropoffAddress: snapshot.DropoffAddress,
		PaymentMethod:  snapshot.PaymentMethod,
		Amount:         snapshot.Amount,
		Description:    snapshot.Description,
		Version:        snapshot.Version,
		CreatedAt:      snapshot.CreatedAt,
		AssignedAt:     snapshot.AssignedAt,
		AcceptedAt:     snapshot.AcceptedAt,
		PickedUpAt:     snapshot.PickedUpAt,
		InTransitAt:    snapshot.InTransitAt,
		DeliveredAt:    snapshot.DeliveredAt,
		CancelledAt:    snapshot.CancelledAt,
		FailedAt:       snapshot.FailedAt,
	}
	if snapshot.DriverID != nil {
		response.DriverID = snapshot.DriverID.String()
	}
	return response
}

type messageResponse struct {
	Seq         int64     `json:"seq"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Content     string    `json:"content"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

func messageResponseFrom(message *chat.Message) messageResponse {
	response := messageResponse{
		Seq:       message.Seq(),
		SenderID:  message.SenderID().String(),
		Content:   message.Content(),
		Kind:      message.MessageKind().String(),
		CreatedAt: message.CreatedAt(),
	}
	if id := message.RecipientID(); id != nil {
		response.RecipientID = id.String()
	}
	return response
}

type nearbyDriverResponse struct {
	DriverID       string  `json:"driver_id"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	DistanceMeters float64 `json:"distance_meters"`
}

type sseEnvelope struct {
	Kind    string    `json:"kind"`
	OrderID string    `json:"order_id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
