package definitions

import "strings"

// Shorthand keys accepted under a definition's config block.
const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
)

var configHeaders = [...]struct{ key, header string }{
	{ConfigUserAgentKey, "User-Agent"},
	{ConfigAcceptKey, "Accept"},
	{ConfigAcceptLanguageKey, "Accept-Language"},
	{ConfigCacheControlKey, "Cache-Control"},
}

// ConfigString returns def.Config[key] trimmed, or fallback when the key is
// absent, blank or not a string.
func ConfigString(def Definition, key, fallback string) string {
	val, _ := def.Config[key].(string)
	if val = strings.TrimSpace(val); val != "" {
		return val
	}
	return fallback
}

// Headers merges the config shorthands with the explicit headers of def.
// Explicit headers win over a shorthand whatever their case, and blank names
// or values are dropped.
func Headers(def Definition) map[string]string {
	out := make(map[string]string, len(def.Headers)+len(configHeaders))
	for name, value := range def.Headers {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name != "" && value != "" {
			out[name] = value
		}
	}
	for _, h := range configHeaders {
		if hasHeader(out, h.header) {
			continue
		}
		if v := ConfigString(def, h.key, ""); v != "" {
			out[h.header] = v
		}
	}
	return out
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
