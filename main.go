package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/internal/booking"
	"concierge/internal/booking/booking_api"
	bookingdb "concierge/internal/booking/db"
	"concierge/internal/config"
	"concierge/internal/kafka"
	"concierge/internal/logger"
	"concierge/internal/nlp"
	"concierge/internal/qr"
	"concierge/internal/sessionlock"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	switch cfg.Driver {
	case "postgres":
		var sqldb *sql.DB
		var err error
		maxRetries := 5

		for i := 0; i < maxRetries; i++ {
			log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
			sqldb, err = sql.Open("postgres", cfg.DSN)
			if err == nil {
				err = sqldb.Ping()
			}
			if err == nil {
				break
			}
			log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
			if i < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
		}
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
		}
		log.Info("DATABASE", "PostgreSQL connection successful")
		return bun.NewDB(sqldb, pgdialect.New())

	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite database: %v", err))
		}
		log.Info("DATABASE", fmt.Sprintf("SQLite database opened at %s", cfg.DSN))
		return bun.NewDB(sqldb, sqlitedialect.New())
	}
}

func buildLocker(cfg config.RedisConfig, log *logger.Logger) sessionlock.Locker {
	if cfg.Addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, using in-process session locks")
		return sessionlock.NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return sessionlock.NewRedisLocker(client)
}

func buildPublisher(cfg config.KafkaConfig, log *logger.Logger) booking.EventPublisher {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, lifecycle events will not be published")
		return kafka.NoopPublisher{}
	}

	if err := kafka.EnsureTopicsExist(cfg.Brokers); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	log.LogKafka("INIT", "concierge.booking.*", fmt.Sprintf("producer initialized for brokers %v", cfg.Brokers))
	return kafka.NewProducer(cfg.Brokers)
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Concierge booking-dialogue service")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()

	bunDB := openDatabase(cfg.Database, log)
	defer bunDB.Close()

	store := &bookingdb.DB{Bun: bunDB}
	if err := store.CreateSchema(context.Background()); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
	}
	log.LogDatabase("CREATE", "bookings", "schema ready")

	locker := buildLocker(cfg.Redis, log)
	publisher := buildPublisher(cfg.Kafka, log)

	engine := nlp.NewRuleEngine()
	extractor := nlp.NewExtractor(engine, nil)
	bookingService := booking.NewService(store, publisher, extractor, log)

	handler := booking_api.NewHandler(bookingService, locker, qr.NewGenerator(cfg.QR.Secret), log)

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	log.Info("ROUTER", "Session, message and booking routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "Concierge service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Concierge service shutdown complete")
	}
}
