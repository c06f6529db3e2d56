package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/gin-gonic/gin"
)

//
// --- Notification Handlers ---
//

// GetMyNotifications is the handler for GET /notifications.
// Unread first, then newest first.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	list, err := h.Notifications.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkNotificationRead is the handler for PATCH /notifications/:id/read.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	err := h.Notifications.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
