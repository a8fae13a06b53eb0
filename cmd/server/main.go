package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/config"
	"github.com/segyhp/sponsorship-ledger/internal/events"
	"github.com/segyhp/sponsorship-ledger/internal/handler"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
	"github.com/segyhp/sponsorship-ledger/internal/repository"
	"github.com/segyhp/sponsorship-ledger/internal/service"
	"github.com/segyhp/sponsorship-ledger/pkg/clock"
	"github.com/segyhp/sponsorship-ledger/pkg/logger"
	"github.com/segyhp/sponsorship-ledger/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()
	zap.ReplaceGlobals(logr)

	if err := repository.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
		logr.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		logr.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := events.NewAsyncPublisher(
		events.NewSink(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen, logr),
		cfg.Business.EventBufferSize, logr, m,
	)
	publisher.Start(ctx)

	// Initialize repositories
	sponsorshipRepo := repository.NewSponsorshipRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transactor := repository.NewTransactor(db)

	// Initialize service
	sponsorshipService := service.NewSponsorshipService(
		sponsorshipRepo, paymentRepo, transactor, publisher, clock.NewReal(), cfg, m, logr,
	)
	sponsorshipHandler := handler.NewSponsorshipHandler(sponsorshipService, logr)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout, logr)

	// Setup routes
	router := setupRoutes(sponsorshipHandler, healthHandler, logr)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush events accepted before shutdown.
	publisher.Close()

	logr.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(sponsorshipHandler *handler.SponsorshipHandler, healthHandler *handler.HealthHandler, logr *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logr))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API routes
	sponsorshipHandler.RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

	return router
}
