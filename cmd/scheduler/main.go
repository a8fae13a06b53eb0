package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/config"
	"github.com/segyhp/sponsorship-ledger/internal/events"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
	"github.com/segyhp/sponsorship-ledger/internal/repository"
	"github.com/segyhp/sponsorship-ledger/internal/service"
	"github.com/segyhp/sponsorship-ledger/pkg/clock"
	"github.com/segyhp/sponsorship-ledger/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single expiry sweep and exit")
	flag.Parse()

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

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logr.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := events.NewAsyncPublisher(
		events.NewSink(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen, logr),
		cfg.Business.EventBufferSize, logr, m,
	)
	publisher.Start(ctx)
	defer publisher.Close()

	clk := clock.NewReal()
	sweeper := service.NewSweeper(
		repository.NewSponsorshipRepository(db),
		repository.NewTransactor(db),
		publisher, clk, cfg, m, logr,
	)

	if *once {
		runSweep(ctx, sweeper, clk, logr)
		return
	}

	if cfg.Scheduler.MetricsAddr != "" {
		go serveMetrics(cfg.Scheduler.MetricsAddr, logr)
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(logr)))),
	)

	if _, err := c.AddFunc(cfg.Scheduler.Spec, func() {
		runSweep(ctx, sweeper, clk, logr)
	}); err != nil {
		logr.Fatal("Failed to schedule expiry sweep", zap.String("spec", cfg.Scheduler.Spec), zap.Error(err))
	}

	c.Start()
	logr.Info("Scheduler started",
		zap.String("spec", cfg.Scheduler.Spec),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down scheduler...")
	// Wait for a sweep in progress to finish before closing the publisher.
	<-c.Stop().Done()
	logr.Info("Scheduler stopped")
}

func runSweep(ctx context.Context, sweeper *service.Sweeper, clk clock.Clock, logr *zap.Logger) {
	report, err := sweeper.SweepExpirations(ctx, clk.Now())
	if err != nil {
		logr.Error("Expiry sweep failed", zap.Error(err))
		return
	}
	for _, failure := range report.Failed {
		logr.Warn("Sponsorship not expired",
			zap.String("sponsorship_id", failure.SponsorshipID.String()),
			zap.Error(failure.Err),
		)
	}
}

func serveMetrics(addr string, logr *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Error("Metrics server stopped", zap.Error(err))
	}
}
