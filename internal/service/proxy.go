// Package service implements the core proxy forwarding logic.
package service

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"subdomain-proxy/internal/client"
	"subdomain-proxy/internal/config"
	"subdomain-proxy/internal/metrics"
	"subdomain-proxy/internal/model"
	"subdomain-proxy/internal/rewrite"
)

// UpstreamScheme is fixed: the target label always names an HTTPS origin.
const UpstreamScheme = "https"

// ProxyService resolves the target origin, forwards the request and rewrites the body.
type ProxyService struct {
	client    *client.OriginClient
	ownDomain string
	bodyLimit int64
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewProxyService creates a ProxyService.
// The metrics parameter is optional; pass nil to disable rewrite and error metrics.
func NewProxyService(c *client.OriginClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	return &ProxyService{
		client:    c,
		ownDomain: cfg.Proxy.OwnDomain,
		bodyLimit: cfg.Upstream.BodyMaxBytes,
		logger:    logger.With("component", "proxy_service"),
		metrics:   m,
	}
}

// Forward mirrors pr against the origin named by its subdomain label and returns
// the buffered, possibly rewritten, response.
//
// Errors match ErrDomainResolution when the host is not under the owning domain
// (no upstream call is made) and ErrUpstreamFetch when the origin cannot be
// reached or its response cannot be read.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := TargetDomain(pr.Host, s.ownDomain)
	if err != nil {
		return nil, err
	}

	upstreamURL := buildUpstreamURL(target, pr.Path, pr.RawQuery, pr.Fragment)

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"host", pr.Host,
		"target", target,
		"path", pr.Path,
	)

	body, err := requestBody(pr.Body)
	if err != nil {
		return nil, s.fetchError(target, upstreamURL, fmt.Errorf("read request body: %w", err))
	}
	req, err := http.NewRequestWithContext(pr.Ctx, pr.Method, upstreamURL, body)
	if err != nil {
		return nil, s.fetchError(target, upstreamURL, fmt.Errorf("build upstream request: %w", err))
	}
	req.Header = pr.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.fetchError(target, upstreamURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := rewrite.ReadLimited(resp.Body, s.bodyLimit)
	if err != nil {
		return nil, s.fetchError(target, upstreamURL, fmt.Errorf("read upstream body: %w", err))
	}

	out := &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}

	if len(raw) == 0 || !rewrite.Rewritable(resp.Header.Get("Content-Type")) {
		s.recordRewrite(metrics.RewritePassthrough)
		return out, nil
	}

	codings := rewrite.Codings(resp.Header.Get("Content-Encoding"))
	if !rewrite.Supported(codings) {
		s.logger.Debug("body left as is: unsupported content encoding",
			"target", target,
			"content_encoding", resp.Header.Get("Content-Encoding"),
		)
		s.recordRewrite(metrics.RewriteUnsupportedEncoding)
		return out, nil
	}

	plain, err := rewrite.Decode(raw, codings, s.bodyLimit)
	if err != nil {
		return nil, s.fetchError(target, upstreamURL, err)
	}
	encoded, err := rewrite.Encode(rewrite.New(target, pr.Host).Rewrite(plain), codings)
	if err != nil {
		return nil, fmt.Errorf("re-encode rewritten body: %w", err)
	}

	out.Body = encoded
	out.Rewritten = true
	s.recordRewrite(metrics.RewriteRewritten)
	return out, nil
}

// buildUpstreamURL joins the origin and the inbound request target verbatim.
func buildUpstreamURL(target, path, rawQuery, fragment string) string {
	u := UpstreamScheme + "://" + target + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	if fragment != "" {
		u += "#" + fragment
	}
	return u
}

// requestBody buffers the inbound body, already capped by the body-limit
// middleware, so redirects that preserve the method (307, 308) can replay it.
// Absent bodies yield nil so the outbound request carries none.
func requestBody(body io.ReadCloser) (io.Reader, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	return bytes.NewReader(b), nil
}

func (s *ProxyService) fetchError(target, upstreamURL string, err error) error {
	if s.metrics != nil {
		s.metrics.UpstreamErrors.WithLabelValues(ErrorReason(err)).Inc()
	}
	return &FetchError{Target: target, URL: upstreamURL, Err: err}
}

func (s *ProxyService) recordRewrite(outcome string) {
	if s.metrics != nil {
		s.metrics.RewritesTotal.WithLabelValues(outcome).Inc()
	}
}
