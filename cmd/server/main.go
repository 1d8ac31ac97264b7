package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "pointmarket-backend/internal/api/http"
	"pointmarket-backend/internal/config"
	"pointmarket-backend/internal/logger"
	"pointmarket-backend/internal/repository"
	"pointmarket-backend/internal/repository/postgres"
	"pointmarket-backend/internal/repository/rediscache"
	"pointmarket-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Point Market Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	cache := newBalanceCache(cfg)

	// Initialize Services
	ledgerSvc := service.NewLedgerService(store, cache, cfg.Points.MinChargeAmount)
	purchaseSvc := service.NewPurchaseService(store, cache, cfg.Points.CommissionRatePercent)
	catalogSvc := service.NewCatalogService(store)
	subscriptionSvc := service.NewSubscriptionService(store, cache)

	router := httpapi.NewRouter(&httpapi.Services{
		Ledger:       ledgerSvc,
		Purchase:     purchaseSvc,
		Catalog:      catalogSvc,
		Subscription: subscriptionSvc,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// newBalanceCache returns nil when the cache is disabled; every service
// treats a nil cache as "read the database".
func newBalanceCache(cfg *config.Config) repository.BalanceCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("Balance cache enabled", "addr", cfg.Redis.Addr)
	return rediscache.New(client, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
}
