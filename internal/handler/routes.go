package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subdomain-proxy/internal/config"
	"subdomain-proxy/internal/metrics"
)

// RegisterRoutes wires the proxy onto the public Echo instance. Every path
// except robots.txt belongs to the origin.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler) {
	e.Any("/robots.txt", Robots)
	e.Any("/", proxy.Handle)
	e.Any("/*", proxy.Handle)
}

// RegisterAdminRoutes wires health, status and metrics onto the admin Echo instance.
func RegisterAdminRoutes(admin *echo.Echo, health *HealthHandler, m *metrics.Metrics, cfg *config.Config) {
	admin.GET("/healthz", health.Healthz)
	admin.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled {
		admin.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
