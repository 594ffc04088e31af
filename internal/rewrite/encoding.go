package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrUnsupportedEncoding is returned for content codings this package cannot decode.
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
	// ErrBodyTooLarge is returned when a body, raw or decoded, exceeds its limit.
	ErrBodyTooLarge = errors.New("body exceeds size limit")
)

// ReadLimited reads r to EOF and fails with ErrBodyTooLarge once more than
// limit bytes arrive. A limit of zero or less disables the check.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return b, nil
}

// Codings splits a Content-Encoding header value into its codings in the
// order they were applied. "identity" is dropped.
func Codings(contentEncoding string) []string {
	var out []string
	for _, c := range strings.Split(contentEncoding, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == "identity" {
			continue
		}
		if c == "x-gzip" {
			c = "gzip"
		}
		out = append(out, c)
	}
	return out
}

// supportedCodings are the content codings Decode and Encode handle.
var supportedCodings = []string{"gzip", "deflate", "br", "zstd"}

// SupportedCodings returns the content codings that can be rewritten.
func SupportedCodings() []string {
	return append([]string(nil), supportedCodings...)
}

// Supported reports whether every coding in the list can be decoded and re-encoded.
func Supported(codings []string) bool {
	for _, c := range codings {
		if !slices.Contains(supportedCodings, c) {
			return false
		}
	}
	return true
}

// Decode undoes the codings, last applied first. Every intermediate and the
// final output are held to limit bytes.
func Decode(body []byte, codings []string, limit int64) ([]byte, error) {
	for i := len(codings) - 1; i >= 0; i-- {
		var err error
		body, err = decodeOne(body, codings[i], limit)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", codings[i], err)
		}
	}
	return body, nil
}

// Encode applies the codings in order.
func Encode(body []byte, codings []string) ([]byte, error) {
	for _, c := range codings {
		var err error
		body, err = encodeOne(body, c)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c, err)
		}
	}
	return body, nil
}

func decodeOne(body []byte, coding string, limit int64) ([]byte, error) {
	switch coding {
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return ReadLimited(zr, limit)
	case "deflate":
		// "deflate" is zlib-wrapped per RFC 9110, but some servers send raw DEFLATE.
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			return ReadLimited(fr, limit)
		}
		defer zr.Close()
		return ReadLimited(zr, limit)
	case "br":
		return ReadLimited(brotli.NewReader(bytes.NewReader(body)), limit)
	case "zstd":
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if limit > 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(uint64(limit)))
		}
		dec, err := zstd.NewReader(bytes.NewReader(body), opts...)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := ReadLimited(dec, limit)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrBodyTooLarge, err)
		}
		return out, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, coding)
	}
}

func encodeOne(body []byte, coding string) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch coding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "deflate":
		w = zlib.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	case "zstd":
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(body, nil)
		return out, enc.Close()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, coding)
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
