package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lifesync-ledger/internal/api_gateway"
	"github.com/lifesync-ledger/internal/api_gateway/outbox_poller"
	"github.com/lifesync-ledger/internal/api_gateway/service"
	"github.com/lifesync-ledger/internal/config"
	"github.com/lifesync-ledger/internal/data/mongo"
	"github.com/lifesync-ledger/internal/data/postgres"
	redisstore "github.com/lifesync-ledger/internal/data/redis"
	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/logger"
	"github.com/lifesync-ledger/internal/platform/messaging/producers"
	"github.com/lifesync-ledger/internal/platform/metrics"
	"github.com/lifesync-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongoDB.EnsureIndexes(appCtx, &cfg.MongoDB); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for contact events relayed from the outbox
	eventProducer, err := producers.NewContactEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize contact event producer", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Initialize repositories
	contactRepo := mongo.NewContactRepository(log, mongoDB.Database(), cfg.MongoDB.ContactsCollection)
	outboxRepo := mongo.NewOutboxRepository(log, mongoDB.Database(), cfg.MongoDB.OutboxCollection)
	activityRepo := postgres.NewActivityRepository(log, postgresDB)
	idempotencyStore := redisstore.NewIdempotencyStore(log, redisClient, cfg.Redis.IdempotencyTTL)

	// Initialize services
	contactService := service.NewContactService(log, contactRepo, outboxRepo, mongoDB, contact.SummaryOptions{
		AppName:        cfg.Summary.AppName,
		CurrencySymbol: cfg.Summary.CurrencySymbol,
	}, appMetrics)
	activityService := service.NewActivityService(log, contactRepo, activityRepo)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(log, &cfg.Outbox, outboxRepo, eventProducer)
	poller := outbox_poller.NewPoller(log, &cfg.Outbox, outboxRepo, eventPublisher, appMetrics)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, contactService, activityService, idempotencyStore, appMetrics, registry)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	var wg sync.WaitGroup

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Cancel the application context and wait for the poller
	cancelAppCtx()
	wg.Wait()

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing contact event producer", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
