package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"ipmentor/internal/api"
	"ipmentor/internal/config"
	"ipmentor/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	addrFlag := flag.String("addr", "", "listen address (host:port), overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		observability.NewLogger(observability.DefaultConfig()).
			Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	logger := observability.NewLogger(observability.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize Sentry if DSN is provided
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			Release:          envOr("APP_VERSION", "dev"),
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn("sentry initialization failed", "error", err)
		} else {
			logger.Info("sentry initialized",
				"environment", cfg.SentryEnvironment,
				"release", envOr("APP_VERSION", "dev"),
			)
			sentryEnabled = true
		}
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metricsCfg := observability.MetricsConfigFromEnv()
		metrics = observability.NewMetrics(metricsCfg)
		logger.Info("metrics enabled",
			"namespace", metricsCfg.Namespace,
			"version", metricsCfg.Version,
		)
	} else {
		logger.Info("metrics disabled")
	}

	rateCfg := api.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}
	if len(cfg.TrustedProxies) > 0 {
		proxies, err := api.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Error("invalid trusted proxies", "error", err)
			os.Exit(1)
		}
		rateCfg.Proxies = proxies
		logger.Info("trusted proxies configured", "count", len(proxies.CIDRs))
	}
	if rateCfg.Enabled() {
		logger.Info("rate limiting configured",
			"requests_per_second", rateCfg.RequestsPerSecond,
			"burst", rateCfg.Burst,
		)
	} else {
		logger.Info("rate limiting disabled")
	}

	mux := http.NewServeMux()
	srv := api.NewServer(mux, logger, metrics)
	srv.RegisterRoutes()

	// Order: metrics (outermost) -> requestID -> logging -> rateLimiting
	handler := api.ApplyMiddlewares(
		mux,
		observability.MetricsMiddleware(metrics),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(logger.Slog()),
		observability.RateLimitMetricsMiddleware(metrics, rateCfg.Enabled()),
		api.RateLimitMiddleware(rateCfg, logger.Slog()),
	)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("ipmentor listening", "addr", cfg.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", "error", closeErr)
		}
	} else {
		logger.Info("server stopped gracefully")
	}

	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
