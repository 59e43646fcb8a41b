// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/cart"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/order"
	"github.com/com2pa/backend-ecommerce/internal/domain/pricing"
	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/infrastructure/database/postgres"
	"github.com/com2pa/backend-ecommerce/internal/infrastructure/database/redis"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/routes"
	"github.com/com2pa/backend-ecommerce/internal/pkg/logger"
	"github.com/com2pa/backend-ecommerce/internal/pkg/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg)
	appLog.Infof("Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}

	redisConn, err := redis.NewConnection(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisConn.Close()

	migration := postgres.NewMigration(db, cfg)
	if err := migration.RunAutoMigrations(); err != nil {
		appLog.Fatalf("Database migration failed: %v", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		appLog.Warnf("Index creation failed: %v", err)
	}
	if err := migration.SeedInitialData(); err != nil {
		appLog.Warnf("Data seeding failed: %v", err)
	}

	redisClient := redisConn.GetClient()

	// Domain services
	productService := product.NewService(db)
	discountService := discount.NewService(db)
	aliquotService := aliquot.NewService(db)
	rateService := rate.NewService(db)
	cartService := cart.NewService(redisClient, productService, discountService, cfg, appLog)

	engine := pricing.NewEngine(
		cfg.Commerce.BaseCurrency,
		cfg.Commerce.LocalCurrency,
		cfg.Commerce.QuotedCurrencies,
	)
	sequencer := order.NewSequenceAllocator(db)
	orderService := order.NewService(
		db, redisClient, cartService, discountService, aliquotService,
		rateService, engine, sequencer, cfg, appLog,
	)
	pdfService := pdf.NewService(cfg)

	// Abandoned cart reaper, supervised by main
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := cart.NewReaper(cartService, cfg.Commerce.ReaperInterval, cfg.Commerce.ReaperBatchSize, appLog)
	go reaper.Run(reaperCtx)

	server := http.NewServer(cfg, db, redisClient, &routes.Services{
		Products:  productService,
		Discounts: discountService,
		Aliquots:  aliquotService,
		Rates:     rateService,
		Carts:     cartService,
		Orders:    orderService,
		PDF:       pdfService,
	}, appLog)

	go func() {
		if err := server.Start(); err != nil {
			appLog.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down gracefully...")

	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLog.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	appLog.Info("Server shutdown completed")
}
