package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imedsys/appointment-gateway/internal/api/router"
	"github.com/imedsys/appointment-gateway/internal/apilog"
	appconfig "github.com/imedsys/appointment-gateway/internal/config"
	"github.com/imedsys/appointment-gateway/internal/observability/metrics"
	"github.com/imedsys/appointment-gateway/internal/proxy"
	"github.com/imedsys/appointment-gateway/pkg/logging"
)

func main() {
	// Local development convenience; real deployments set env directly.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment-gateway API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.UpstreamURL == "" {
		logger.Error("UPSTREAM_URL is required")
		os.Exit(1)
	}
	if cfg.UpstreamAPIKey == "" {
		logger.Warn("API_KEY is not set; forwarding without upstream credentials")
	}

	// Metrics registry and proxy instrumentation
	registry := prometheus.NewRegistry()
	proxyMetrics := metrics.NewProxyMetrics(registry)

	// Initialize the forwarder and handlers
	forwarder := proxy.NewForwarder(cfg.UpstreamURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout, logger, proxyMetrics)

	// The debug console is on by default and switched off in deployments
	// that must not echo request bodies. Every forward is recorded into
	// the buffer so the console shows live traffic.
	var logHandler *apilog.Handler
	if cfg.DebugLogs {
		logBuffer := apilog.NewBuffer(cfg.LogBufferSize)
		logHandler = apilog.NewHandler(logBuffer, logger)
		forwarder.WithRecorder(logBuffer)
	}

	appointmentsHandler := proxy.NewHandler(forwarder, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Appointments:       appointmentsHandler,
		APILog:             logHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
