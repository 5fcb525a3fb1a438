/**
 * @description
 * This is the main entry point for the billing-service. It wires together
 * configuration, the PostgreSQL pool (running migrations on startup), the
 * optional Redis plan cache and RabbitMQ producer, the application
 * layers, and the HTTP router, then serves until a shutdown signal.
 */
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/transfa/billing-service/internal/api"
	"github.com/transfa/billing-service/internal/app"
	"github.com/transfa/billing-service/internal/config"
	"github.com/transfa/billing-service/internal/store"
	"github.com/transfa/billing-service/pkg/rabbitmq"
)

func main() {
	// A local .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "billing-service").
		Logger()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to parse database URL")
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer dbpool.Close()

	if err := store.RunMigrations(ctx, dbpool, cfg.MigrationsDir); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}
	logger.Info().Msg("database connection established")

	// Optional plan cache.
	var planCache app.PlanCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to parse redis URL")
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("unable to connect to redis")
		}
		defer redisClient.Close()
		planCache = store.NewRedisPlanCache(redisClient, "billing", time.Duration(cfg.PlanCacheTTLMinutes)*time.Minute)
		logger.Info().Msg("redis plan cache enabled")
	}

	// Optional billing event fan-out.
	var publisher app.EventPublisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.BillingEventExchange)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to connect to rabbitmq")
		}
		defer producer.Close()
		publisher = producer
		logger.Info().Str("exchange", cfg.BillingEventExchange).Msg("billing event publishing enabled")
	}

	repository := store.NewPostgresRepository(dbpool)
	catalog := app.NewCatalog(repository, planCache, logger)
	ledger := app.NewLedger(repository)
	manager := app.NewManager(repository, catalog, ledger, publisher, logger)
	service := app.NewService(repository, catalog, manager, ledger, logger)
	handler := api.NewHandler(service, logger)
	router := api.NewRouter(handler, cfg.JWKSURL)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-sigCh
	logger.Info().Msg("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
