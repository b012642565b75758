// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/interfaces/http/handlers"
	"github.com/your-org/procurement-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, cfg)
	SetupCatalogRoutes(rg, db, redisClient, cfg)
	SetupCartRoutes(rg, db, cfg)
	SetupOrderRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

// SetupCatalogRoutes sets up catalog related routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, redisClient, cfg)

	catalog := rg.Group("/catalog")
	catalog.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		catalog.GET("", catalogHandler.List)
		catalog.GET("/:id", catalogHandler.GetEntry)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(cfg)) // Carts are always user-owned
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:product_id/:contract_id", cartHandler.UpdateItem)
		cart.DELETE("/items/:product_id/:contract_id", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.ClearCart)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(db, cfg)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.POST("/confirm", orderHandler.Confirm)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PUT("/:id/receive", orderHandler.MarkReceived)
		orders.PUT("/:id/cancel", orderHandler.Cancel)
	}
}

// SetupAdminRoutes sets up contract administration routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	adminHandler := handlers.NewAdminHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg)) // Require authentication
	admin.Use(middleware.AdminMiddleware())   // Require admin privileges
	{
		// Supplier management
		suppliers := admin.Group("/suppliers")
		{
			suppliers.GET("", adminHandler.GetSuppliers)
			suppliers.POST("", adminHandler.CreateSupplier)
			suppliers.DELETE("/:id", adminHandler.DeactivateSupplier)
		}

		// Product management
		products := admin.Group("/products")
		{
			products.GET("", adminHandler.GetProducts)
			products.POST("", adminHandler.CreateProduct)
			products.DELETE("/:id", adminHandler.DeactivateProduct)
		}

		// Contract management
		contracts := admin.Group("/contracts")
		{
			contracts.GET("", adminHandler.GetContracts)
			contracts.POST("", adminHandler.CreateContract)
			contracts.GET("/:id", adminHandler.GetContract)
			contracts.POST("/:id/lines", adminHandler.AddContractLine)
			contracts.PUT("/:id/lines/:product_id", adminHandler.AdjustContractLine)
			contracts.DELETE("/:id", adminHandler.DeactivateContract)
		}
	}
}
