package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cosmocart/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/chat", handler.Chat)

		v1.GET("/products", handler.ListProducts)
		v1.GET("/products/:id", handler.GetProduct)
		v1.GET("/categories", handler.Categories)
		v1.GET("/subcategories", handler.SubCategories)

		auth := v1.Group("/auth")
		{
			auth.POST("/send-otp", handler.SendOTP)
			auth.POST("/verify-otp", handler.VerifyOTP)
		}

		v1.GET("/cart/:user_id", handler.GetCart)
		v1.POST("/cart", handler.SyncCart)

		v1.POST("/orders", handler.CreateOrder)
		v1.GET("/orders/:user_id", handler.ListOrders)
	}

	return router
}
