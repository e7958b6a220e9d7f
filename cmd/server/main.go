package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/api"
	"proviai.com/provider-assistant/internal/client"
	"proviai.com/provider-assistant/internal/config"
	"proviai.com/provider-assistant/internal/core"
	"proviai.com/provider-assistant/internal/logger"
	"proviai.com/provider-assistant/internal/store"
	"proviai.com/provider-assistant/internal/telemetry"
	"proviai.com/provider-assistant/web"
)

const (
	serviceName          = "provider-assistant"
	sessionPurgeInterval = 10 * time.Minute
	wizardReapInterval   = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "provider-assistant: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, dotenv, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	if !dotenv {
		log.Debug("No .env file loaded, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	// Contact requests always live in SQLite; sessions may go to Redis.
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	var sessionStore store.SessionStore = dbStore
	var health api.Pinger = dbStore
	if cfg.SessionStore == "redis" {
		redisStore, err := store.NewRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		sessionStore = redisStore
		health = redisStore
		log.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	}

	transport := otelhttp.NewTransport(http.DefaultTransport)
	backend := client.New(cfg.BackendURL, cfg.RequestTimeout, transport, log.Named("backend"))
	geocoder := client.NewGeocoder(cfg.GeocodeURL, cfg.RequestTimeout, transport)
	locator := core.NewLocator(geocoder, cfg.Cities, log.Named("locator"))

	sessions := core.NewSessionService(sessionStore, backend, cfg.SessionTTL, log.Named("sessions"))
	wizardLog := log.Named("wizard")
	wizards := core.NewWizardRegistry(func(user store.User) *core.Wizard {
		return core.NewWizard(backend, locator, dbStore, user, wizardLog)
	}, cfg.WizardIdleTTL, wizardLog)
	defer wizards.Close()

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(api.Options{
		Sessions:      sessions,
		Wizards:       wizards,
		Providers:     backend,
		Contacts:      dbStore,
		Health:        health,
		Renderer:      renderer,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: !cfg.IsDevelopment(),
		Logger:        log.Named("http"),
	})
	router := api.NewRouter(apiHandler, log.Named("http"))

	go wizards.Run(ctx, wizardReapInterval)
	go purgeSessions(ctx, sessions, log)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", serverAddr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exiting gracefully")
	return nil
}

// purgeSessions deletes expired sessions until ctx is done.
func purgeSessions(ctx context.Context, sessions *core.SessionService, log *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				log.Warn("Failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("Purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
