package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courier-gateway/app/controllers"
)

// SetupAPIRoutes wires the versioned API surface.
func SetupAPIRoutes(router *gin.Engine, orderController *controllers.OrderController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		// Storefront webhooks per brand
		brands := v1.Group("/brands")
		{
			brands.POST("/:webhookID/orders", orderController.CreateOrder)
		}

		// Order lifecycle
		orders := v1.Group("/orders")
		{
			orders.GET("/:orderID", orderController.GetOrder)
			orders.POST("/:orderID/confirm", orderController.ConfirmOrder)
			orders.POST("/:orderID/cancel", orderController.CancelOrder)
		}

		// Operational endpoints
		admin := v1.Group("/admin")
		{
			admin.POST("/brands", adminController.CreateBrand)
			admin.POST("/seed", adminController.SeedLocalities)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.POST("/match/preview", adminController.PreviewMatch)
			admin.GET("/stats", adminController.Stats)
		}

		v1.GET("/health", orderController.HealthCheck)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// SetupHealthRoutes registers the probes outside the versioned group.
func SetupHealthRoutes(router *gin.Engine, orderController *controllers.OrderController) {
	router.GET("/health", orderController.HealthCheck)
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
}
