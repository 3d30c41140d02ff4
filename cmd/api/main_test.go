package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imedsys/appointment-gateway/internal/api/router"
	"github.com/imedsys/appointment-gateway/internal/apilog"
	appconfig "github.com/imedsys/appointment-gateway/internal/config"
	"github.com/imedsys/appointment-gateway/internal/observability/metrics"
	"github.com/imedsys/appointment-gateway/internal/proxy"
	"github.com/imedsys/appointment-gateway/pkg/logging"
)

// buildHandler mirrors the wiring in main so the composition is testable
// without binding a port.
func buildHandler(cfg *appconfig.Config) http.Handler {
	logger := logging.New(cfg.LogLevel)
	registry := prometheus.NewRegistry()
	forwarder := proxy.NewForwarder(cfg.UpstreamURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout, logger, metrics.NewProxyMetrics(registry))
	logBuffer := apilog.NewBuffer(cfg.LogBufferSize)
	forwarder.WithRecorder(logBuffer)

	return router.New(&router.Config{
		Logger:             logger,
		Appointments:       proxy.NewHandler(forwarder, logger),
		APILog:             apilog.NewHandler(logBuffer, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
}

func TestFullStackWiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer upstream.Close()

	cfg := &appconfig.Config{
		Port:               "8080",
		Env:                "test",
		LogLevel:           "error",
		UpstreamURL:        upstream.URL,
		UpstreamAPIKey:     "test-key",
		UpstreamTimeout:    5 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		LogBufferSize:      apilog.DefaultCapacity,
	}
	handler := buildHandler(cfg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/list", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}

func TestDebugConsoleSeesProxiedTraffic(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer upstream.Close()

	handler := buildHandler(&appconfig.Config{
		LogLevel:           "error",
		UpstreamURL:        upstream.URL,
		UpstreamAPIKey:     "test-key",
		UpstreamTimeout:    5 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		LogBufferSize:      apilog.DefaultCapacity,
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/list", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("list: expected 200, got %d", rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/logs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("debug logs: expected 200, got %d", rec.Code)
	}
	var snapshot struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	// One outgoing and one incoming entry per proxied call.
	if snapshot.Count != 6 {
		t.Fatalf("expected 6 console entries for 3 forwards, got %d", snapshot.Count)
	}
}
