package consumers

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"kassa/internal/models"
)

type Handlers struct{}

func NewHandlers() *Handlers {
	return &Handlers{}
}

func (h *Handlers) HandleReservationCreated(m *stan.Msg) {
	var event models.ReservationCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation created event", "error", err)
		return
	}

	slog.Info("audit",
		"event_type", models.EventReservationCreated,
		"reservation_id", event.ReservationID,
		"session_id", event.SessionID,
		"user_id", event.UserID,
		"seat_count", len(event.SeatIDs),
		"expires_at", event.ExpiresAt)

	m.Ack()
}

func (h *Handlers) HandlePaymentConfirmed(m *stan.Msg) {
	var event models.PaymentConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment confirmed event", "error", err)
		return
	}

	slog.Info("audit",
		"event_type", models.EventPaymentConfirmed,
		"reservation_id", event.ReservationID,
		"session_id", event.SessionID,
		"user_id", event.UserID)

	m.Ack()
}

func (h *Handlers) HandleReservationExpired(m *stan.Msg) {
	var event models.ReservationExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation expired event", "error", err)
		return
	}

	slog.Info("audit",
		"event_type", models.EventReservationExpired,
		"reservation_id", event.ReservationID,
		"session_id", event.SessionID,
		"user_id", event.UserID)

	m.Ack()
}

func (h *Handlers) HandleSeatReleased(m *stan.Msg) {
	var event models.SeatReleasedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat released event", "error", err)
		return
	}

	slog.Info("audit",
		"event_type", models.EventSeatReleased,
		"reservation_id", event.ReservationID,
		"seat_ids", event.SeatIDs)

	m.Ack()
}
