package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"subdomain-proxy/internal/rewrite"
)

var (
	// ErrDomainResolution marks a host that does not carry the owning-domain suffix.
	ErrDomainResolution = errors.New("target domain could not be resolved")
	// ErrUpstreamFetch marks any failure contacting or reading from the origin.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)

// ResolutionError reports a host that is not a subdomain of the owning domain.
type ResolutionError struct {
	Host      string
	OwnDomain string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("host %q is not a subdomain of %q", e.Host, e.OwnDomain)
}

// Is makes errors.Is(err, ErrDomainResolution) hold.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrDomainResolution
}

// FetchError wraps a failed upstream call with the target it was made against.
type FetchError struct {
	Target string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstreamFetch) hold.
func (e *FetchError) Is(target error) bool {
	return target == ErrUpstreamFetch
}

// ErrorReason classifies an upstream failure into a bounded label for logs and metrics.
func ErrorReason(err error) string {
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, rewrite.ErrBodyTooLarge) {
		return "too_large"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "connection"
	}

	return "other"
}
