// Package main is the entry point for the balcao API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balcao/internal/config"
	"balcao/internal/domain/auth"
	"balcao/internal/domain/backup"
	"balcao/internal/domain/catalog/customer"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/catalog/supplier"
	"balcao/internal/domain/costing"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/inventory"
	"balcao/internal/domain/promotion"
	"balcao/internal/domain/purchase"
	"balcao/internal/domain/sale"
	"balcao/internal/infrastructure/cache"
	v1 "balcao/internal/infrastructure/http/v1"
	"balcao/internal/infrastructure/http/v1/handlers"
	"balcao/internal/infrastructure/receipt"
	"balcao/internal/infrastructure/storage/postgres"
	"balcao/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting balcao server")

	// --- Database ---
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txManager)
	customerRepo := postgres.NewCustomerRepo(txManager)
	supplierRepo := postgres.NewSupplierRepo(txManager)
	kitRepo := postgres.NewKitRepo(txManager)
	promotionRepo := postgres.NewPromotionRepo(txManager)
	inventoryRepo := postgres.NewInventoryRepo(txManager)
	costingRepo := postgres.NewCostingRepo(txManager)
	financeRepo := postgres.NewFinanceRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	purchaseRepo := postgres.NewPurchaseRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)

	// --- Promotion cache ---
	var promoCache promotion.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewPromotionCache(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warnw("redis unavailable, promotion cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			promoCache = redisCache
			log.Infow("promotion cache enabled", "addr", cfg.RedisAddr)
		}
	}

	// --- Services ---
	ledger := inventory.NewService(inventoryRepo, txManager)
	costs := costing.NewService(costingRepo, txManager)
	books := finance.NewService(financeRepo)
	promos := promotion.NewService(promotionRepo, promoCache, txManager)

	products := product.NewService(productRepo, ledger, txManager)
	customers := customer.NewService(customerRepo, books, txManager)
	suppliers := supplier.NewService(supplierRepo, txManager)
	kits := kit.NewService(kitRepo, inventoryRepo, txManager)

	printer := receipt.NewLogPrinter(log)
	sales := sale.NewService(saleRepo, productRepo, kitRepo, ledger, costs, customers, books, promos, printer, txManager, cfg.Store)
	purchases := purchase.NewService(purchaseRepo, productRepo, suppliers, ledger, costs, books, txManager, cfg.Store)

	backups := backup.NewService(postgres.NewBackupStore(txManager), txManager)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.JWTTokenTTL))
	authService := auth.NewService(userRepo, jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		TokenValidator: jwtService,

		Auth:      handlers.NewAuthHandler(authService),
		POS:       handlers.NewPOSHandler(sales),
		Products:  handlers.NewProductHandler(products, ledger),
		Kits:      handlers.NewKitHandler(kits),
		Customers: handlers.NewCustomerHandler(customers),
		Suppliers: handlers.NewSupplierHandler(suppliers),
		Promos:    handlers.NewPromotionHandler(promos, cfg.Store.Timezone),
		Purchases: handlers.NewPurchaseHandler(purchases),
		Finance:   handlers.NewFinanceHandler(books, costs),
		Backups:   handlers.NewBackupHandler(backups),
		Health:    handlers.NewHealthHandler(pool.Pool),
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
