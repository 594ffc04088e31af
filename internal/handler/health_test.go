package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/labstack/echo/v4"

	"subdomain-proxy/internal/config"
)

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHealthHandler(&config.Config{}, "test")
	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/proxy/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := &config.Config{
		Server: config.ServerConfig{
			RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 25},
		},
		Proxy: config.ProxyConfig{OwnDomain: "example.com"},
		Upstream: config.UpstreamConfig{
			TimeoutSeconds: 60,
			MaxRedirects:   5,
			BodyMaxBytes:   1 << 20,
		},
	}
	h := NewHealthHandler(cfg, "1.2.3")
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Version != "1.2.3" {
		t.Errorf("version = %q, want %q", body.Version, "1.2.3")
	}
	if body.OwnDomain != "example.com" {
		t.Errorf("own_domain = %q, want %q", body.OwnDomain, "example.com")
	}
	want := upstreamStatus{Scheme: "https", TimeoutSeconds: 60, MaxRedirects: 5, BodyMaxBytes: 1 << 20}
	if body.Upstream != want {
		t.Errorf("upstream = %+v, want %+v", body.Upstream, want)
	}
	if !slices.Contains(body.Rewrite.ContentTypes, "text/") {
		t.Errorf("rewrite.content_types = %v, want it to include text/", body.Rewrite.ContentTypes)
	}
	if !slices.Contains(body.Rewrite.Encodings, "zstd") {
		t.Errorf("rewrite.encodings = %v, want it to include zstd", body.Rewrite.Encodings)
	}
	if body.RateLimit != 25 {
		t.Errorf("rate_limit_rps = %v, want 25", body.RateLimit)
	}
}
