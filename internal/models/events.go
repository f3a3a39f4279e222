package models

import "time"

// NATS Event Types
const (
	EventReservationCreated = "reservation.created"
	EventPaymentConfirmed   = "payment.confirmed"
	EventReservationExpired = "reservation.expired"
	EventSeatReleased       = "seat.released"
)

// ReservationCreatedEvent is published after a hold is committed.
type ReservationCreatedEvent struct {
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	SeatIDs       []string  `json:"seat_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentConfirmedEvent is published after a reservation is finalized into a sale.
type PaymentConfirmedEvent struct {
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	PaymentRef    *string   `json:"payment_ref"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationExpiredEvent is published when the sweeper reclaims a stale hold.
type ReservationExpiredEvent struct {
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// SeatReleasedEvent reports the seats returned to AVAILABLE by an expiry.
type SeatReleasedEvent struct {
	ReservationID string    `json:"reservation_id"`
	SeatIDs       []string  `json:"seat_ids"`
	Timestamp     time.Time `json:"timestamp"`
}
