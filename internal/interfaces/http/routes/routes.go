// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/interfaces/http/handlers"
	"github.com/mybai/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group under the given router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	SetupAuthRoutes(rg, db, cfg)
	SetupCatalogRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, cfg)
	SetupOrderRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
}

// SetupCatalogRoutes sets up public catalog routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

	rg.GET("/productos", catalogHandler.ListProducts)
	rg.GET("/productos/:id", catalogHandler.GetProduct)
	rg.GET("/destacados", catalogHandler.ListFeatured)
	rg.GET("/categorias", catalogHandler.ListCategories)
	rg.GET("/marcas", catalogHandler.ListBrands)
}

// SetupCartRoutes sets up cart routes, all behind authentication
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	carrito := rg.Group("/carrito")
	carrito.Use(middleware.AuthMiddleware(cfg))
	{
		carrito.GET("", cartHandler.GetCart)
		carrito.POST("/agregar/:product_id", cartHandler.AddToCart)
		carrito.POST("/items/:id/disminuir", cartHandler.DecrementItem)
		carrito.DELETE("/items/:id", cartHandler.RemoveItem)
	}

	// Storefront add-to-cart endpoint, kept at its historical path
	rg.POST("/agregar_al_carrito/:product_id",
		middleware.AuthMiddleware(cfg), cartHandler.AddToCart)
}

// SetupOrderRoutes sets up checkout and order routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(db, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg)

	protected := rg.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/checkout", orderHandler.Checkout)
		protected.GET("/pedidos", orderHandler.ListOrders)
		protected.GET("/pedidos/:id", orderHandler.GetOrder)
		protected.GET("/pedidos/:id/factura", invoiceHandler.GenerateInvoice)
	}
}

// SetupAdminRoutes sets up admin-only management routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/productos", catalogHandler.CreateProduct)
		admin.PUT("/productos/:id", catalogHandler.UpdateProduct)
		admin.DELETE("/productos/:id", catalogHandler.DeleteProduct)
		admin.PUT("/productos/:id/stock", catalogHandler.SetStock)
		admin.PUT("/pedidos/:id/estado", orderHandler.UpdateStatus)
	}
}
