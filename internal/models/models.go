package models

import "time"

// CreateSessionRequest - модель для создания сеанса
type CreateSessionRequest struct {
	Title      string    `json:"title" binding:"required"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	Room       string    `json:"room" binding:"required"`
	PriceCents int64     `json:"price_cents" binding:"required,gt=0"`
	SeatCount  int       `json:"seat_count"`
}

// CreateSessionResponse - модель ответа при создании сеанса
type CreateSessionResponse struct {
	ID    string                  `json:"id"`
	Seats []ListSeatsResponseItem `json:"seats"`
}

// ListSessionsResponseItem - элемент списка сеансов
type ListSessionsResponseItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	Room       string    `json:"room"`
	PriceCents int64     `json:"price_cents"`
	SeatCount  int       `json:"seat_count"`
}

// ListSessionsResponse - список сеансов
type ListSessionsResponse []ListSessionsResponseItem

// ListSeatsResponseItem - элемент списка мест
type ListSeatsResponseItem struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Status string `json:"status"`
}

// ListSeatsResponse - список мест сеанса
type ListSeatsResponse []ListSeatsResponseItem

// CreateReservationRequest - модель для создания брони (удержания мест)
type CreateReservationRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	UserID    string   `json:"user_id" binding:"required"`
	SeatIDs   []string `json:"seat_ids" binding:"required,min=1"`
}

// CreateReservationResponse - модель ответа при создании брони
type CreateReservationResponse struct {
	ReservationID string    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ConfirmPaymentRequest - модель для подтверждения оплаты
type ConfirmPaymentRequest struct {
	PaymentRef *string `json:"payment_ref"`
}

// ConfirmPaymentResponse - модель ответа при подтверждении оплаты
type ConfirmPaymentResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// PurchaseResponseItem - элемент истории покупок пользователя
type PurchaseResponseItem struct {
	SaleID        string    `json:"sale_id"`
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	TotalCents    int64     `json:"total_cents"`
	PaymentRef    *string   `json:"payment_ref"`
	SoldAt        time.Time `json:"sold_at"`
}

// ListPurchasesResponse - история покупок
type ListPurchasesResponse []PurchaseResponseItem
