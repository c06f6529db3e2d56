package routes

import (
	"net/http"

	"github.com/01moynul/agritech-golang/internal/handlers"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// Options are the router settings that come from configuration.
type Options struct {
	CORSOrigin string
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
}

// CORSMiddleware allows the configured frontend origin to call the API.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 2. Allow the headers we actually use (session id and bearer tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Session-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 3. Handle the preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware(opts.CORSOrigin))

	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	// --- Public Routes ---
	router.GET("/ping", h.Ping)
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/verify-code", h.VerifyCode)
	router.POST("/reset-password", h.ResetPassword)
	router.POST("/login-otp", h.LoginOTP)
	router.POST("/verify-otp", h.VerifyOTP)

	// --- Protected Routes (Login Required) ---
	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware(h.Sessions, h.Tokens))
	{
		auth.POST("/logout", h.Logout)

		// Profile
		auth.GET("/user", h.GetUser)
		auth.PUT("/user", h.UpdateUser)
		auth.POST("/user/photo", h.UploadPhoto)
		auth.DELETE("/user/photo", h.DeletePhoto)
		auth.POST("/complete-profile", h.CompleteProfile)

		// Landing pages
		auth.GET("/dashboard", middleware.RequireCategory(models.UserFarmer), h.GetDashboard)
		auth.GET("/invest", middleware.RequireCategory(models.UserInvestor), h.GetInvest)

		// Products
		auth.POST("/products", h.CreateProduct)
		auth.POST("/products/upload-image", h.UploadProductImage)
		auth.GET("/products", h.ListProducts)
		auth.GET("/products/:id", h.GetProduct)
		auth.PUT("/products/:id", h.UpdateProduct)
		auth.DELETE("/products/:id", h.DeleteProduct)

		// Wanted products
		auth.POST("/wanted-products", h.CreateWantedProduct)
		auth.GET("/wanted-products", h.ListWantedProducts)
		auth.DELETE("/wanted-products/:id", h.DeleteWantedProduct)

		// Orders
		auth.POST("/orders", h.CreateOrder)
		auth.GET("/orders", h.ListMyOrders)
		auth.GET("/orders/:id", h.GetOrder)
		auth.PUT("/orders/:id/status", h.UpdateOrderStatus)
		auth.PUT("/orders/:id/details", h.UpdateOrderDetails)
		auth.GET("/seller/orders", h.ListSellerOrders)

		// Diagnosis
		auth.POST("/detect-disease", h.DetectDisease)
		auth.POST("/update-plant-name", h.UpdatePlantName)
		auth.POST("/feedback", h.SubmitFeedback)
		auth.GET("/scans", h.ListScans)

		// Content
		auth.GET("/daily-tip", h.DailyTip)
		auth.GET("/events", h.ListEvents)

		// Notifications
		auth.GET("/notifications", h.GetMyNotifications)
		auth.PATCH("/notifications/:id/read", h.MarkNotificationRead)

		// Assistant
		auth.POST("/ai/chat", h.ChatAI)
	}

	return router
}
