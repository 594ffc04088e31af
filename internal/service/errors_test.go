package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"subdomain-proxy/internal/rewrite"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestErrorReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", fmt.Errorf("upstream request: %w", context.Canceled), "canceled"},
		{"deadline", &url.Error{Op: "Get", URL: "https://shop/", Err: context.DeadlineExceeded}, "timeout"},
		{"net timeout", &url.Error{Op: "Get", URL: "https://shop/", Err: timeoutErr{}}, "timeout"},
		{"dns", &url.Error{Op: "Get", URL: "https://shop/", Err: &net.DNSError{Err: "no such host", Name: "shop"}}, "dns"},
		{"connection", &url.Error{Op: "Get", URL: "https://shop/", Err: errors.New("connection refused")}, "connection"},
		{"too large", fmt.Errorf("decode gzip: %w", rewrite.ErrBodyTooLarge), "too_large"},
		{"other", errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorReason(tt.err); got != tt.want {
				t.Errorf("ErrorReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Matching(t *testing.T) {
	cause := &net.DNSError{Err: "no such host", Name: "shop"}
	err := fmt.Errorf("forward: %w", &FetchError{Target: "shop", URL: "https://shop/", Err: cause})

	if !errors.Is(err, ErrUpstreamFetch) {
		t.Error("errors.Is(err, ErrUpstreamFetch) = false, want true")
	}
	if errors.Is(err, ErrDomainResolution) {
		t.Error("errors.Is(err, ErrDomainResolution) = true, want false")
	}
	var dnsErr *net.DNSError
	if !errors.As(err, &dnsErr) {
		t.Error("errors.As(err, *net.DNSError) = false, want the cause to unwrap")
	}
}
