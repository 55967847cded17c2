package request

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var reScheme = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://`)

// targetURL is a URL with its query string split off.
type targetURL struct {
	base     string
	fragment string
	protocol string
}

// splitURL normalizes raw, defaulting to http, and separates the query string.
func splitURL(raw string) (targetURL, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return targetURL{}, "", ErrNoURL
	}

	if m := reScheme.FindStringSubmatch(raw); m != nil {
		scheme := strings.ToLower(m[1])
		if scheme != "http" && scheme != "https" {
			return targetURL{}, "", fmt.Errorf("%w: %s", ErrUnsupportedProtocol, scheme)
		}
		raw = scheme + raw[len(m[1]):]
	} else {
		raw = "http://" + raw
	}

	var fragment, query string
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw, fragment = raw[:i], raw[i:]
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw, query = raw[:i], raw[i+1:]
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return targetURL{}, "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Host == "" {
		return targetURL{}, "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	return targetURL{base: raw, fragment: fragment, protocol: parsed.Scheme}, query, nil
}

// parseQueryInto appends the pairs of an "&"-separated query string to dst in order.
func parseQueryInto(query string, dst *multimap[string]) {
	for _, piece := range strings.Split(query, "&") {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		dst.add(unescapeComponent(key), unescapeComponent(value))
	}
}

// encodePairs renders k=v pairs joined by "&" with both sides percent-encoded.
func encodePairs(m *multimap[string]) string {
	var sb strings.Builder
	_ = m.each(func(key, value string) error {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(escapeComponent(key))
		sb.WriteByte('=')
		sb.WriteString(escapeComponent(value))
		return nil
	})
	return sb.String()
}

// escapeComponent percent-encodes s as UTF-8, spaces included.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// unescapeComponent decodes percent escapes only; a literal '+' stays '+'.
func unescapeComponent(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
