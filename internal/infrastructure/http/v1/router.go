// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/domain/auth"
	"balcao/internal/infrastructure/http/v1/handlers"
	"balcao/internal/infrastructure/http/v1/middleware"
	"balcao/pkg/logger"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger         *logger.Logger
	TokenValidator middleware.TokenValidator

	Auth      *handlers.AuthHandler
	POS       *handlers.POSHandler
	Products  *handlers.ProductHandler
	Kits      *handlers.KitHandler
	Customers *handlers.CustomerHandler
	Suppliers *handlers.SupplierHandler
	Promos    *handlers.PromotionHandler
	Purchases *handlers.PurchaseHandler
	Finance   *handlers.FinanceHandler
	Backups   *handlers.BackupHandler
	Health    *handlers.HealthHandler
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(cfg.Logger),
		middleware.ErrorHandler(),
	)

	health := router.Group("/health")
	{
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
	}

	api := router.Group("/api/v1")
	api.POST("/auth/login", cfg.Auth.Login)

	protected := api.Group("", middleware.Auth(cfg.TokenValidator))

	protected.GET("/auth/me", cfg.Auth.Me)

	users := protected.Group("/users", middleware.RequireCapability(auth.CapManageUsers))
	{
		users.POST("", cfg.Auth.Register)
		users.GET("", cfg.Auth.List)
	}

	sales := protected.Group("/sales")
	{
		sales.POST("", middleware.RequireCapability(auth.CapSell), cfg.POS.Checkout)
		sales.POST("/:id/void", middleware.RequireCapability(auth.CapVoidSale), cfg.POS.Void)
		sales.POST("/:id/return", middleware.RequireCapability(auth.CapReturnItems), cfg.POS.Return)
		sales.GET("/:id", cfg.POS.Get)
		sales.GET("", cfg.POS.List)
	}

	products := protected.Group("/products")
	{
		products.GET("", cfg.Products.List)
		products.GET("/low-stock", cfg.Products.LowStock)
		products.GET("/barcode/:barcode", cfg.Products.GetByBarcode)
		products.GET("/:id", cfg.Products.Get)
		products.GET("/:id/movements", cfg.Products.Movements)
		products.GET("/:id/reconcile", cfg.Products.Reconcile)

		products.POST("", middleware.RequireCapability(auth.CapManageCatalog), cfg.Products.Create)
		products.PUT("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Products.Update)
		products.DELETE("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Products.Delete)
		products.POST("/:id/adjust-stock", middleware.RequireCapability(auth.CapAdjustStock), cfg.Products.AdjustStock)
	}

	kits := protected.Group("/kits")
	{
		kits.GET("", cfg.Kits.List)
		kits.GET("/barcode/:barcode", cfg.Kits.GetByBarcode)
		kits.GET("/:id", cfg.Kits.Get)
		kits.GET("/:id/availability", cfg.Kits.Availability)

		kits.POST("", middleware.RequireCapability(auth.CapManageCatalog), cfg.Kits.Create)
		kits.PUT("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Kits.Update)
		kits.DELETE("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Kits.Delete)
	}

	customers := protected.Group("/customers")
	{
		customers.GET("", cfg.Customers.List)
		customers.GET("/:id", cfg.Customers.Get)

		customers.POST("", middleware.RequireCapability(auth.CapManageCatalog), cfg.Customers.Create)
		customers.PUT("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Customers.Update)
		// Taking a fiado payment is a till action, same grant as selling.
		customers.POST("/:id/pay-debt", middleware.RequireCapability(auth.CapSell), cfg.Customers.PayDebt)
	}

	suppliers := protected.Group("/suppliers")
	{
		suppliers.GET("", cfg.Suppliers.List)
		suppliers.GET("/:id", cfg.Suppliers.Get)

		suppliers.POST("", middleware.RequireCapability(auth.CapManageCatalog), cfg.Suppliers.Create)
		suppliers.PUT("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Suppliers.Update)
	}

	promos := protected.Group("/promotions")
	{
		promos.GET("", cfg.Promos.List)
		promos.GET("/in-effect", cfg.Promos.InEffect)
		promos.GET("/:id", cfg.Promos.Get)

		promos.POST("", middleware.RequireCapability(auth.CapManageCatalog), cfg.Promos.Create)
		promos.POST("/campaign", middleware.RequireCapability(auth.CapManageCatalog), cfg.Promos.CreateCampaign)
		promos.PUT("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Promos.Update)
		promos.DELETE("/:id", middleware.RequireCapability(auth.CapManageCatalog), cfg.Promos.Delete)
	}

	purchases := protected.Group("/purchases")
	{
		purchases.GET("", cfg.Purchases.List)
		purchases.GET("/suggest-retail", cfg.Purchases.SuggestRetail)
		purchases.GET("/:id", cfg.Purchases.Get)

		purchases.POST("", middleware.RequireCapability(auth.CapEnterPurchase), cfg.Purchases.Commit)
		purchases.POST("/:id/cancel", middleware.RequireCapability(auth.CapCancelPurchase), cfg.Purchases.Cancel)
	}

	finance := protected.Group("/finance", middleware.RequireCapability(auth.CapManageFinance))
	{
		finance.POST("/income", cfg.Finance.AddIncome)
		finance.POST("/expense", cfg.Finance.AddExpense)
		finance.POST("/transactions/:id/settle", cfg.Finance.Settle)
		finance.GET("/transactions", cfg.Finance.List)
		finance.GET("/transactions/:id", cfg.Finance.Get)
		finance.GET("/summary", cfg.Finance.Summary)
		finance.GET("/valuation", cfg.Finance.Valuation)
	}

	backups := protected.Group("/backup", middleware.RequireCapability(auth.CapBackup))
	{
		backups.GET("/export", cfg.Backups.Export)
		backups.POST("/import", cfg.Backups.Import)
	}

	return router
}
