package handlers

import (
	"net/http"

	"github.com/01moynul/agritech-golang/internal/content"
	"github.com/gin-gonic/gin"
)

// DailyTip handles GET /daily-tip.
func (h *Handlers) DailyTip(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tip": content.DailyTip(h.Now())})
}

// ListEvents handles GET /events.
func (h *Handlers) ListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.Events.Events(c.Request.Context())})
}
