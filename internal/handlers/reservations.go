package handlers

import (
	"log/slog"
	"net/http"

	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

// Reservations handlers

// CreateReservation - POST /api/reservations
// Удержать места на 30 секунд
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	response, err := h.services.Reservations.Create(c.Request.Context(), &req, idempotencyKey)
	if err != nil {
		slog.Error("Failed to create reservation",
			"error", err,
			"session_id", req.SessionID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ConfirmPayment - POST /api/reservations/:id/confirm-payment
// Подтвердить оплату и превратить бронь в продажу
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	reservationID := c.Param("id")

	// Тело запроса опционально: пустое тело равнозначно {}
	var req models.ConfirmPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	response, err := h.services.Reservations.ConfirmPayment(c.Request.Context(), reservationID, &req, idempotencyKey)
	if err != nil {
		slog.Error("Failed to confirm payment",
			"error", err,
			"reservation_id", reservationID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
