// Package rewrite replaces origin domain references in textual response bodies
// with the inbound host.
package rewrite

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// rewritablePrefixes are the content types whose bodies are treated as text.
var rewritablePrefixes = []string{
	"text/",
	"application/javascript",
	"application/x-javascript",
}

// Rewritable reports whether a body with the given Content-Type is rewritten.
// The match is a case-insensitive prefix match; parameters such as charset are ignored.
func Rewritable(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return false
	}
	for _, p := range rewritablePrefixes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// RewritableTypes returns the content-type prefixes Rewritable accepts.
func RewritableTypes() []string {
	return append([]string(nil), rewritablePrefixes...)
}

// Rewriter replaces scheme-prefixed references to a target domain with the inbound host.
type Rewriter struct {
	pattern     *regexp.Regexp
	replacement string
}

// New creates a Rewriter mapping "//target", "http://target" and
// "https://target" to the same prefix followed by inboundHost.
func New(target, inboundHost string) *Rewriter {
	return &Rewriter{
		pattern:     regexp.MustCompile(`(//|https?://)` + regexp.QuoteMeta(target)),
		replacement: "${1}" + strings.ReplaceAll(inboundHost, "$", "$$"),
	}
}

// Rewrite decodes body as UTF-8, replaces every non-overlapping match and
// returns the UTF-8 encoding of the result. Invalid input bytes become U+FFFD.
func (rw *Rewriter) Rewrite(body []byte) []byte {
	return []byte(rw.pattern.ReplaceAllString(decodeUTF8(body), rw.replacement))
}

// decodeUTF8 mirrors a WHATWG utf-8 decoder: a leading BOM is dropped and
// ill-formed sequences are replaced rather than rejected.
func decodeUTF8(b []byte) string {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
