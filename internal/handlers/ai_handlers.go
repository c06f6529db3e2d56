package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/01moynul/agritech-golang/internal/ai"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// ChatAI handles POST /ai/chat.
func (h *Handlers) ChatAI(c *gin.Context) {
	// 1. Get the caller (set by AuthMiddleware)
	sess := middleware.Session(c)

	// 2. Parse Input
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 3. Ask the assistant, telling it who is asking
	answer, tokens, err := h.Assistant.Chat(c.Request.Context(), input.Message, string(sess.Category))
	if errors.Is(err, ai.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI assistant is not available"})
		return
	}
	if err != nil {
		log.Printf("AI chat failed for %s: %v", sess.UserID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI Service unavailable"})
		return
	}

	log.Printf("AI chat for %s used %d tokens", sess.UserID, tokens)
	c.JSON(http.StatusOK, gin.H{"response": answer})
}
