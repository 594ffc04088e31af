package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"subdomain-proxy/internal/middleware"
	"subdomain-proxy/internal/model"
	"subdomain-proxy/internal/service"
)

// internalErrorBody is the only failure body a client ever sees.
const internalErrorBody = "Internal Server Error"

// queryPattern matches query strings of URLs embedded in error messages.
var queryPattern = regexp.MustCompile(`(https?://[^\s"?]+)\?[^\s"]*`)

// ProxyHandler forwards requests to the origin named by the subdomain label.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle proxies the request and writes the assembled response.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	host := strings.ToLower(req.Host)

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Host:     host,
		Path:     req.URL.EscapedPath(),
		RawQuery: req.URL.RawQuery,
		Fragment: req.URL.Fragment,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, host, err)
	}
	return h.assemble(c, resp)
}

// assemble copies the upstream status and headers, forces a permissive CORS
// origin and writes the body. Content-Length is recomputed when the body was rewritten.
func (h *ProxyHandler) assemble(c echo.Context, resp *model.ProxyResponse) error {
	header := c.Response().Header()
	for key, vals := range resp.Header {
		for _, v := range vals {
			header.Add(key, v)
		}
	}
	middleware.StripHopByHop(header)
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	if resp.Rewritten {
		header.Set(echo.HeaderContentLength, strconv.Itoa(len(resp.Body)))
	}

	c.Response().WriteHeader(resp.StatusCode)

	if c.Request().Method == http.MethodHead || len(resp.Body) == 0 || !bodyAllowed(resp.StatusCode) {
		return nil
	}
	if _, err := c.Response().Write(resp.Body); err != nil {
		// Headers are already sent; the client sees a truncated body.
		h.logger.Error("writing response body",
			"err", err,
			"host", c.Request().Host,
			"path", c.Request().URL.Path,
		)
	}
	return nil
}

// mapError logs the cause and answers with the uniform 500.
func (h *ProxyHandler) mapError(c echo.Context, host string, err error) error {
	attrs := []any{
		"err", sanitizeError(err),
		"host", host,
		"path", c.Request().URL.Path,
	}

	var fetchErr *service.FetchError
	switch {
	case errors.Is(err, service.ErrDomainResolution):
		h.logger.Error("target domain resolution failed", attrs...)
	case errors.As(err, &fetchErr):
		attrs = append(attrs, "target", fetchErr.Target, "reason", service.ErrorReason(err))
		h.logger.Error("upstream fetch failed", attrs...)
	default:
		h.logger.Error("proxy error", attrs...)
	}

	return c.String(http.StatusInternalServerError, internalErrorBody)
}

// bodyAllowed reports whether a response with the given status may carry a body.
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// sanitizeError redacts query strings from URLs that may appear in error messages.
func sanitizeError(err error) string {
	return queryPattern.ReplaceAllString(err.Error(), "${1}?[REDACTED]")
}
