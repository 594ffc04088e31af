package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"subdomain-proxy/internal/config"
	"subdomain-proxy/internal/rewrite"
	"subdomain-proxy/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	OwnDomain string         `json:"own_domain"`
	Upstream  upstreamStatus `json:"upstream"`
	Rewrite   rewriteStatus  `json:"rewrite"`
	RateLimit float64        `json:"rate_limit_rps,omitempty"`
}

type upstreamStatus struct {
	Scheme         string `json:"scheme"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRedirects   int    `json:"max_redirects"`
	BodyMaxBytes   int64  `json:"body_max_bytes"`
}

type rewriteStatus struct {
	ContentTypes []string `json:"content_types"`
	Encodings    []string `json:"encodings"`
}

// Status reports the domain mapping and the limits the proxy runs with.
func (h *HealthHandler) Status(c echo.Context) error {
	resp := statusResponse{
		Status:    "ok",
		Version:   string(h.version),
		OwnDomain: h.cfg.Proxy.OwnDomain,
		Upstream: upstreamStatus{
			Scheme:         service.UpstreamScheme,
			TimeoutSeconds: h.cfg.Upstream.TimeoutSeconds,
			MaxRedirects:   h.cfg.Upstream.MaxRedirects,
			BodyMaxBytes:   h.cfg.Upstream.BodyMaxBytes,
		},
		Rewrite: rewriteStatus{
			ContentTypes: rewrite.RewritableTypes(),
			Encodings:    rewrite.SupportedCodings(),
		},
	}
	if h.cfg.Server.RateLimit.Enabled {
		resp.RateLimit = h.cfg.Server.RateLimit.RequestsPerSecond
	}
	return c.JSON(http.StatusOK, resp)
}
