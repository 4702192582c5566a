package routes

import (
	"net/http"

	"github.com/dairydesk/dairydesk-golang/internal/handlers"
	"github.com/dairydesk/dairydesk-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware tells the browser it is safe for the local frontend to
// send credentialed requests to us.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Answer the browser's preflight OPTIONS request directly.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// CORS must run before everything else.
	router.Use(CORSMiddleware())

	// Uploaded product photos are served statically.
	router.Static("/uploads", "./uploads")

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)
		v1.POST("/auth/verify-email", h.VerifyEmail)
		v1.POST("/auth/resend-code", h.ResendVerificationCode)
		v1.POST("/auth/request-password-reset", h.RequestPasswordReset)
		v1.POST("/auth/reset-password", h.ResetPassword)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB, h.Sessions))
		{
			auth.POST("/logout", h.Logout)
			auth.PATCH("/profile/password", h.ChangePassword)

			// --- Product Routes ---
			auth.POST("/products", h.CreateProduct)
			auth.GET("/products", h.GetMyProducts)
			auth.PUT("/products/:id", h.UpdateProduct)
			auth.DELETE("/products/:id", h.DeleteProduct)

			// --- Customer Routes ---
			auth.POST("/customers", h.CreateCustomer)
			auth.GET("/customers", h.GetMyCustomers)
			auth.PUT("/customers/:id", h.UpdateCustomer)
			auth.DELETE("/customers/:id", h.DeleteCustomer)

			// --- Order Routes ---
			auth.POST("/orders", h.CreateOrder)
			auth.GET("/orders", h.GetMyOrders)
			auth.PUT("/orders/:id", h.UpdateOrder)
			auth.DELETE("/orders/:id", h.DeleteOrder)

			// --- Dashboard ---
			auth.GET("/dashboard/summary", h.GetDailySummary)
			auth.GET("/dashboard/stream", h.StreamDailySummary)

			// --- Photo Upload ---
			auth.POST("/upload", h.UploadPhoto)
		}
	}

	return router
}
