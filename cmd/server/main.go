package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/tradefolio/portfolio-service/internal/api"
	"github.com/tradefolio/portfolio-service/internal/config"
	"github.com/tradefolio/portfolio-service/internal/database"
	"github.com/tradefolio/portfolio-service/internal/kafka"
	"github.com/tradefolio/portfolio-service/internal/pricing"
	"github.com/tradefolio/portfolio-service/internal/redis"
)

func main() {
	// Load .env if present, then configuration from the environment
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis; the price cache is optional
	var priceCache pricing.PriceCache
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (continuing without price cache)", err)
	} else {
		defer redisClient.Close()
		priceCache = redisClient
		log.Println("Connected to Redis cache")
	}

	priceSource := pricing.NewCachedSource(db, priceCache, cfg.Pricing.CacheTTL)

	// Create Kafka producer
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	defer producer.Close()
	log.Printf("Kafka producer initialized (brokers: %v)", cfg.Kafka.Brokers)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start Kafka consumer for external price pushes
	priceConsumer := kafka.NewPriceConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.PricesTopic,
		cfg.Kafka.ConsumerGroup,
		db,
		priceSource,
	)
	go func() {
		log.Printf("Starting Kafka price consumer for topic: %s (group: %s-prices)",
			cfg.Kafka.PricesTopic, cfg.Kafka.ConsumerGroup)
		if err := priceConsumer.Start(ctx); err != nil {
			log.Printf("Kafka price consumer error: %v", err)
		}
	}()

	// Set up HTTP handler and routes
	handler := api.NewHandler(db, priceSource, producer, cfg.Auth)
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop the Kafka consumer
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := priceConsumer.Close(); err != nil {
		log.Printf("Error closing Kafka price consumer: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://./db/migrations", databaseURL)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err == migrate.ErrNoChange {
		log.Println("No migrations to apply; database is up to date.")
	}
	return nil
}
