package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harvey-AU/todo-service/internal/api"
	"github.com/Harvey-AU/todo-service/internal/config"
	"github.com/Harvey-AU/todo-service/internal/observability"
	"github.com/Harvey-AU/todo-service/internal/todo"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)
	logConfigWarnings(cfg)

	// Initialise Sentry for error tracking and performance monitoring
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     api.ServiceName + "@" + api.Version,
			TracesSampleRate: func() float64 {
				if cfg.IsProduction() {
					return 0.1 // 10% sampling in production
				}
				return 1.0 // 100% sampling in development
			}(),
			AttachStacktrace: true,
			Debug:            cfg.Env == "development",
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			log.Info().Str("environment", cfg.Env).Msg("Sentry initialised successfully")
			// Ensure Sentry flushes before application exits
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Warn().Msg("Sentry DSN not configured, error tracking disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Msg("Server error")
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}

	log.Info().Msg("Server stopped")
}

// run serves the API (and the metrics endpoint when enabled) until ctx is cancelled
func run(ctx context.Context, cfg *config.Config) error {
	encoder, err := api.ErrorEncoderFor(cfg.ErrorFormat)
	if err != nil {
		return err
	}
	api.SetErrorEncoder(encoder)

	store := todo.NewMemoryStore()

	obsProviders, err := observability.Init(ctx, cfg.ObservabilityConfig(api.ServiceName))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialise observability providers")
		obsProviders = nil
	}
	if obsProviders != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := obsProviders.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush telemetry providers cleanly")
			}
		}()

		if err := observability.RegisterStoreSize(obsProviders, store.Count); err != nil {
			log.Warn().Err(err).Msg("Failed to register store size gauge")
		}
	}

	servers := []*http.Server{{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, store, obsProviders),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if obsProviders != nil && obsProviders.MetricsHandler != nil && cfg.Observability.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.Observability.MetricsAddr,
			Handler:           obsProviders.MetricsHandler,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("Server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	log.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Env).
		Str("error_format", cfg.ErrorFormat).
		Bool("allow_reset", cfg.AllowReset).
		Msg("Starting server")

	return g.Wait()
}

// newRouter builds the API handler wrapped in the middleware stack
func newRouter(cfg *config.Config, store todo.Store, obsProviders *observability.Providers) http.Handler {
	apiHandler := api.NewHandler(store, api.NewGate(cfg.AuthConfig()), api.Options{
		Env:        cfg.Env,
		AllowReset: cfg.AllowReset,
	})

	mux := http.NewServeMux()
	apiHandler.SetupRoutes(mux)

	// Add middleware in reverse order (outermost first)
	var handler http.Handler = mux
	handler = api.RecoverMiddleware(handler)
	handler = api.LoggingMiddleware(handler)
	handler = api.RequestIDMiddleware(handler)
	handler = api.SecurityHeadersMiddleware(handler)
	handler = api.CORSMiddleware(handler)
	handler = observability.WrapHandler(handler, obsProviders)

	return handler
}

// logConfigWarnings reports what Load noticed, through the configured logger
func logConfigWarnings(cfg *config.Config) {
	if cfg.Source != "" {
		log.Info().Str("file", cfg.Source).Msg("Loaded config file")
	}
	for _, warning := range cfg.Warnings {
		log.Warn().Str("source", "config").Msg(warning)
	}
}

// setupLogging configures the logging system
func setupLogging(cfg *config.Config) {
	// Configure log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	// Use console writer in development
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("service", api.ServiceName).
			Logger()
	}
}
