package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

// Sessions handlers

// CreateSession - POST /api/sessions
// Создать сеанс с местами
func (h *Handlers) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Sessions.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListSessions - GET /api/sessions
// Поиск сеансов по названию
func (h *Handlers) ListSessions(c *gin.Context) {
	query := c.Query("query")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	response, err := h.services.Sessions.Search(c.Request.Context(), query, page, pageSize)
	if err != nil {
		slog.Error("Failed to list sessions", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListSessionSeats - GET /api/sessions/:id/seats
// Получить места сеанса со статусами
func (h *Handlers) ListSessionSeats(c *gin.Context) {
	sessionID := c.Param("id")

	response, err := h.services.Sessions.ListSeats(c.Request.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to list session seats",
			"error", err,
			"session_id", sessionID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
