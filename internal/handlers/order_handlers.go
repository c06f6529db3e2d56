package handlers

import (
	"log"
	"net/http"

	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/orders"
	"github.com/gin-gonic/gin"
)

type UpdateStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateDetailsInput carries exactly one of the two fields.
type UpdateDetailsInput struct {
	PickupTime   *string `json:"pickup_time"`
	TrackingLink *string `json:"tracking_link"`
}

// CreateOrder handles POST /orders.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.Orders.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Order %s placed by %s, total %.2f", order.ID, order.BuyerID, order.TotalPrice)
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:id for the buyer.
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.Orders.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListMyOrders handles GET /orders.
func (h *Handlers) ListMyOrders(c *gin.Context) {
	list, err := h.Orders.ListForBuyer(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListSellerOrders handles GET /seller/orders.
func (h *Handlers) ListSellerOrders(c *gin.Context) {
	list, err := h.Orders.ListForSeller(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateOrderStatus handles PUT /orders/:id/status.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderDetails handles PUT /orders/:id/details.
func (h *Handlers) UpdateOrderDetails(c *gin.Context) {
	var input UpdateDetailsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	upd, err := orders.ParseDetailsUpdate(input.PickupTime, input.TrackingLink)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.Orders.UpdateDetails(c.Request.Context(), middleware.UserID(c), c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
