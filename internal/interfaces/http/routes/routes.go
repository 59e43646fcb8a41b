// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/cart"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/order"
	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/handlers"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/middleware"
	"github.com/com2pa/backend-ecommerce/internal/pkg/pdf"
)

// Services carries the constructed domain services the routes expose
type Services struct {
	Products  *product.Service
	Discounts *discount.Service
	Aliquots  *aliquot.Service
	Rates     *rate.Service
	Carts     *cart.Service
	Orders    *order.Service
	PDF       *pdf.Service
}

// Setup mounts the full API surface under /api/v1
func Setup(router *gin.Engine, svc *Services, cfg *config.Config) {
	v1 := router.Group("/api/v1")

	setupCatalogRoutes(v1, svc, cfg)
	setupCartRoutes(v1, svc, cfg)
	setupOrderRoutes(v1, svc, cfg)
	setupAdminRoutes(v1, svc, cfg)
}

// setupCatalogRoutes mounts the public reference-data endpoints
func setupCatalogRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(svc.Products)
	aliquotHandler := handlers.NewAliquotHandler(svc.Aliquots)
	rateHandler := handlers.NewRateHandler(svc.Rates, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	rg.GET("/aliquots", aliquotHandler.ListAliquots)

	rates := rg.Group("/rates")
	{
		rates.GET("", rateHandler.GetLatestRates)
		rates.GET("/:currency", rateHandler.GetLatestRate)
	}
}

// setupCartRoutes mounts the authenticated cart lifecycle endpoints
func setupCartRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(svc.Carts)

	carts := rg.Group("/cart")
	carts.Use(middleware.AuthMiddleware(cfg))
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("", cartHandler.AddItem)
		carts.PUT("/:productId", cartHandler.UpdateItem)
		carts.DELETE("/:productId", cartHandler.RemoveItem)
		carts.POST("/checkout/start", cartHandler.StartCheckout)
		carts.POST("/checkout/complete", cartHandler.CompleteCheckout)
	}
}

// setupOrderRoutes mounts the authenticated order endpoints
func setupOrderRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.PDF)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/invoice", orderHandler.GetInvoice)
		orders.GET("/invoice/:fiscalNumber", orderHandler.GetInvoiceByFiscalNumber)
	}
}

// setupAdminRoutes mounts the admin-only management endpoints
func setupAdminRoutes(rg *gin.RouterGroup, svc *Services, cfg *config.Config) {
	discountHandler := handlers.NewDiscountHandler(svc.Discounts)
	rateHandler := handlers.NewRateHandler(svc.Rates, cfg)
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.PDF)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/discounts", discountHandler.ListDiscounts)
		admin.POST("/discounts", discountHandler.CreateDiscount)
		admin.DELETE("/discounts/:id", discountHandler.DeleteDiscount)

		admin.POST("/rates", rateHandler.RecordRate)

		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.PUT("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)
	}
}
