package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenant_portal_backend/internal/applications"
	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/reporting"
	"tenant_portal_backend/internal/events"
	apphttp "tenant_portal_backend/internal/http"
	"tenant_portal_backend/internal/http/router"
	"tenant_portal_backend/internal/notification"
	"tenant_portal_backend/internal/scheduler"
	"tenant_portal_backend/migrations"
	"tenant_portal_backend/platform/config"
	"tenant_portal_backend/platform/db"
	"tenant_portal_backend/platform/logger"
	"tenant_portal_backend/platform/retry"
	"tenant_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := retry.Do(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	presets, err := domain.LoadCriteriaPresets(cfg.GetCriteriaDefaultsPath())
	if err != nil {
		log.Error("failed to load criteria presets", "error", err, "path", cfg.GetCriteriaDefaultsPath())
		panic("failed to load criteria presets: " + err.Error())
	}

	funnelCache, closeCache := initFunnelCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	taskClient, closeScheduler := initTaskClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	var queue scheduler.TaskEnqueuer
	if taskClient != nil {
		queue = taskClient
	}
	notificationModule := notification.New(queue, log)
	notificationModule.RegisterHandlers(eventBus)

	applicationsModule, err := applications.NewModule(pool, eventBus, val, funnelCache, presets, log)
	if err != nil {
		log.Error("failed to initialize applications module", "error", err)
		panic("failed to initialize applications module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			applicationsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; applicant notifications and viewing requests disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initFunnelCache(cfg config.CacheConfig, log *logger.Logger) (*reporting.FunnelCache, func()) {
	rdb, err := reporting.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize funnel cache", "error", err)
		return nil, nil
	}
	if rdb == nil {
		log.Warn("REDIS_URL not configured; funnel cache disabled")
		return nil, nil
	}

	return reporting.NewFunnelCache(rdb, cfg.GetFunnelCacheTTL()), func() {
		_ = rdb.Close()
	}
}
