package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fanpost/kanva/internal"
	"github.com/fanpost/kanva/internal/handler"
	"github.com/fanpost/kanva/internal/identity"
	"github.com/fanpost/kanva/internal/jobs"
	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/middleware"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/sportsdata"
	"github.com/fanpost/kanva/internal/storage"
	"github.com/fanpost/kanva/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := internal.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	store := repository.NewStore(db)

	files, err := internal.NewStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	publisher, closePublisher, err := internal.NewPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	redisClient, err := internal.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	billingService := internal.NewBilling(cfg)
	if billingService == nil {
		logger.Warn("STRIPE_SECRET_KEY not set, billing is disabled")
	}

	// Initialize services
	services := internal.NewServices(cfg, store, files, billingService, publisher, logger)

	var sportsCache sportsdata.Cache = sportsdata.NopCache{}
	if redisClient != nil {
		sportsCache = sportsdata.NewRedisCache(redisClient)
	}
	gateway := sportsdata.NewGateway(sportsdata.Config{
		UnihockeyURL:   cfg.UnihockeyAPIURL,
		VolleyballURL:  cfg.VolleyballAPIURL,
		HandballURL:    cfg.HandballAPIURL,
		HandballAPIKey: cfg.HandballAPIKey,
		Timeout:        cfg.SportsAPITimeout,
		CacheTTL:       cfg.SportsCacheTTL,
	}, sportsCache, logger)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var w *worker.Worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		w, err = worker.New(store, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Register(jobs.NewSyncSubscriptionHandler(services.Subscriptions, logger))
		w.Register(jobs.NewPurgeUserFilesHandler(files, logger))
		w.Start(ctx)
	}

	// ==========================================================================
	// Middleware
	// ==========================================================================

	isSecure := cfg.Env != "development"
	verifier := identity.NewVerifier(cfg.JWTSecret,
		identity.WithIssuer(cfg.JWTIssuer),
		identity.WithAudience(cfg.JWTAudience),
	)
	authMw := middleware.NewAuthMiddleware(verifier, logger)

	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	} else {
		memLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		defer memLimiter.Close()
		limiter = memLimiter
	}
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)

	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD not set, /metrics is unprotected")
	}

	requireUser := middleware.Stack(authMw.WithIdentity, authMw.RequireIdentity, rateLimitMw.Limit)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	handler.NewHealthHandler(checks, logger).RegisterRoutes(mux)
	handler.NewWebhookHandler(billingService, services.Subscriptions, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Uploaded files, local provider only. R2 serves its own URLs.
	if cfg.StorageProvider == storage.ProviderLocal {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	handler.NewAccountHandler(services.Accounts, logger).RegisterRoutes(mux, requireUser)
	handler.NewTeamSlotHandler(services.Slots, logger).RegisterRoutes(mux, requireUser)
	handler.NewCreditHandler(services.Credits, logger).RegisterRoutes(mux, requireUser)
	handler.NewProfileHandler(services.Profiles, logger).RegisterRoutes(mux, requireUser)
	handler.NewTemplateHandler(services.Templates, logger).RegisterRoutes(mux, requireUser)
	handler.NewSportsHandler(gateway, logger).RegisterRoutes(mux, requireUser)
	handler.NewBillingHandler(services.Subscriptions, cfg.BaseURL, logger).RegisterRoutes(mux, requireUser)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	root := middleware.Stack(
		middleware.Recover(logger),
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		metrics.Middleware,
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
		middleware.NewCORSMiddleware(cfg.AllowedOrigins...).Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if w != nil {
		w.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
