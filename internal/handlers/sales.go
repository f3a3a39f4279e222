package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sales handlers

// ListUserPurchases - GET /api/users/:id/purchases
// История покупок пользователя
func (h *Handlers) ListUserPurchases(c *gin.Context) {
	userID := c.Param("id")

	response, err := h.services.Sales.ListByUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list purchases",
			"error", err,
			"user_id", userID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
