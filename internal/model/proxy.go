// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents an inbound request to be mirrored against the target origin.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Host     string // inbound host, lower-cased, port included
	Path     string
	RawQuery string
	Fragment string
	Header   http.Header
	Body     io.ReadCloser
}

// ProxyResponse is the fully buffered upstream response after body rewriting.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Rewritten  bool
}

// UpstreamResponse is the raw origin response; Body is streamed and must be closed.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	FinalURL   string // URL after redirects were followed
}
