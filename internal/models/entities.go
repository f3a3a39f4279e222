package models

import (
	"time"
)

// Seat statuses. A seat only moves forward AVAILABLE -> RESERVED -> SOLD;
// the single reverse edge RESERVED -> AVAILABLE happens when a hold expires.
const (
	SeatAvailable = "AVAILABLE"
	SeatReserved  = "RESERVED"
	SeatSold      = "SOLD"
)

// Reservation statuses. CONFIRMED and EXPIRED are terminal.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationExpired   = "EXPIRED"
)

// Session represents a showing. Immutable after creation; owns its seats.
type Session struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	Room       string    `json:"room" db:"room"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	SeatCount  int       `json:"seat_count" db:"seat_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Seat belongs to exactly one session. The seat row is the unit of
// pessimistic locking; it is only mutated inside a transaction that
// holds its row lock.
type Seat struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Number    int       `json:"number" db:"seat_number"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Reservation is a buyer's temporary claim over a set of seats within one
// session. Seat membership lives in reservation_seats and never changes
// after the reservation is created.
type Reservation struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Status    string    `json:"status" db:"status"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Sale is the durable record that a reservation was paid. Append-only,
// at most one per reservation.
type Sale struct {
	ID            string    `json:"id" db:"id"`
	ReservationID string    `json:"reservation_id" db:"reservation_id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	TotalCents    int64     `json:"total_cents" db:"total_cents"`
	PaymentRef    *string   `json:"payment_ref" db:"payment_ref"`
	SoldAt        time.Time `json:"sold_at" db:"sold_at"`
}
