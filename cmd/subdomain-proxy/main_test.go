package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"subdomain-proxy/internal/client"
	"subdomain-proxy/internal/config"
	"subdomain-proxy/internal/handler"
	"subdomain-proxy/internal/metrics"
	"subdomain-proxy/internal/service"
)

// newProxyEcho builds the public Echo the way the fx graph does. Requests use
// a host outside the owning domain, so no origin is ever dialled.
func newProxyEcho(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()

	e := newEcho(cfg, logger, m)
	oc := client.NewOriginClient(cfg, logger, m)
	handler.RegisterRoutes(e, handler.NewProxyHandler(service.NewProxyService(oc, cfg, logger, m), logger))
	return e
}

func testConfig(rateLimit bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BodyMaxBytes: 1 << 20,
			RateLimit: config.RateLimitConfig{
				Enabled:           rateLimit,
				RequestsPerSecond: 1,
			},
		},
		Proxy: config.ProxyConfig{OwnDomain: "example.com"},
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  5,
			IdleConnections: 1,
			MaxRedirects:    1,
			BodyMaxBytes:    1 << 20,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func get(e *echo.Echo, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.Host = "unrelated.org"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestNewEcho_RateLimitOnProxyRoute(t *testing.T) {
	e := newProxyEcho(t, testConfig(true))

	if got := get(e, "/catalog"); got != http.StatusInternalServerError {
		t.Fatalf("first request status = %d, want %d from the proxy handler", got, http.StatusInternalServerError)
	}
	if got := get(e, "/catalog"); got != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", got, http.StatusTooManyRequests)
	}
}

func TestNewEcho_RateLimitDisabled(t *testing.T) {
	e := newProxyEcho(t, testConfig(false))

	for i := 0; i < 3; i++ {
		if got := get(e, "/catalog"); got != http.StatusInternalServerError {
			t.Errorf("request %d status = %d, want %d", i+1, got, http.StatusInternalServerError)
		}
	}
}

func TestNewEcho_RobotsUnderRateLimit(t *testing.T) {
	e := newProxyEcho(t, testConfig(true))

	if got := get(e, "/robots.txt"); got != http.StatusOK {
		t.Errorf("robots status = %d, want %d", got, http.StatusOK)
	}
	if got := get(e, "/robots.txt"); got != http.StatusTooManyRequests {
		t.Errorf("second robots status = %d, want %d", got, http.StatusTooManyRequests)
	}
}
