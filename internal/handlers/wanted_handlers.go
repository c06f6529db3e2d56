package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WantedProductInput struct {
	Name             string                 `json:"product_name" binding:"required"`
	Category         models.ProductCategory `json:"category" binding:"required"`
	Quantity         float64                `json:"quantity"`
	Unit             models.Unit            `json:"unit" binding:"required"`
	Notes            string                 `json:"notes"`
	DeliveryLocation *string                `json:"delivery_location"`
	RequiredDateTime *string                `json:"required_date_time"`
}

var wantedTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseWantedTime(s string) (time.Time, bool) {
	for _, layout := range wantedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CreateWantedProduct handles POST /wanted-products.
func (h *Handlers) CreateWantedProduct(c *gin.Context) {
	var input WantedProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 1. --- Validate ---
	var msg string
	switch {
	case input.Quantity <= 0:
		msg = "Quantity must be positive"
	case utf8.RuneCountInString(input.Name) > maxNameLen:
		msg = "Product name must be under 100 characters"
	case utf8.RuneCountInString(input.Notes) > maxDescriptionLen:
		msg = "Notes must be under 500 characters"
	case !input.Category.ValidWanted():
		msg = "Invalid category"
	case !input.Unit.Valid():
		msg = "Invalid unit"
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	w := &models.WantedProduct{
		UserID:   middleware.UserID(c),
		Name:     strings.TrimSpace(input.Name),
		Category: input.Category,
		Quantity: input.Quantity,
		Unit:     input.Unit,
		Notes:    strings.TrimSpace(input.Notes),
	}
	if input.DeliveryLocation != nil {
		if loc := strings.TrimSpace(*input.DeliveryLocation); loc != "" {
			w.DeliveryLocation = &loc
		}
	}
	if input.RequiredDateTime != nil && strings.TrimSpace(*input.RequiredDateTime) != "" {
		t, ok := parseWantedTime(strings.TrimSpace(*input.RequiredDateTime))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid required_date_time format"})
			return
		}
		w.RequiredDateTime = &t
	}

	// 2. --- Save ---
	if err := h.Wanted.Create(c.Request.Context(), w); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListWantedProducts handles GET /wanted-products. Callers only see their
// own requests.
func (h *Handlers) ListWantedProducts(c *gin.Context) {
	items, err := h.Wanted.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// DeleteWantedProduct handles DELETE /wanted-products/:id for its owner.
func (h *Handlers) DeleteWantedProduct(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}
	err := h.Wanted.Delete(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wanted product not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wanted product deleted successfully"})
}
