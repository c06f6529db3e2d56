package handlers

import (
	"net/http"

	"github.com/01moynul/agritech-golang/internal/content"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/gin-gonic/gin"
)

//
// --- Farmer Dashboard ---
//

type FarmerDashboard struct {
	Message  string                 `json:"message"`
	Products int                    `json:"products"`
	Orders   repository.SellerStats `json:"orders"`
	Tip      string                 `json:"tip"`
}

// GetDashboard returns KPI data for the farmer dashboard.
// GET /dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	sess := middleware.Session(c)
	ctx := c.Request.Context()

	// 1. Listed products
	products, err := h.Products.CountBySeller(ctx, sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	// 2. Order stats
	stats, err := h.OrderRepo.SellerStats(ctx, sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, FarmerDashboard{
		Message:  "Welcome to the dashboard, " + sess.Email,
		Products: products,
		Orders:   stats,
		Tip:      content.DailyTip(h.Now()),
	})
}

//
// --- Investor Hub ---
//

type InvestorHub struct {
	Message string                      `json:"message"`
	Users   map[models.UserCategory]int `json:"users"`
	Market  repository.MarketTotals     `json:"market"`
}

// GetInvest returns marketplace totals for investors.
// GET /invest
func (h *Handlers) GetInvest(c *gin.Context) {
	sess := middleware.Session(c)
	ctx := c.Request.Context()

	users, err := h.Users.CountByCategory(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	market, err := h.OrderRepo.MarketTotals(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, InvestorHub{
		Message: "Welcome to the investment hub, " + sess.Email,
		Users:   users,
		Market:  market,
	})
}
