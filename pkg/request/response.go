package request

import (
	"fmt"
	"net/textproto"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/saintfish/chardet"
)

// Response is the immutable result of one exchange.
type Response struct {
	body       []byte
	text       string
	object     map[string]any
	array      []any
	html       bool
	header     map[string][]string
	statusCode int
	date       int64
	url        string
	charset    string
}

// Bytes returns a copy of the raw body.
func (r *Response) Bytes() []byte {
	return append([]byte(nil), r.body...)
}

// Text returns the body decoded with the request charset.
func (r *Response) Text() string { return r.text }

func (r *Response) IsJSONObject() bool { return r.object != nil }

// JSONObject returns a copy of the parsed object, or nil.
func (r *Response) JSONObject() map[string]any {
	if r.object == nil {
		return nil
	}
	return cloneJSON(r.object).(map[string]any)
}

func (r *Response) IsJSONArray() bool { return r.array != nil }

// JSONArray returns a copy of the parsed array, or nil.
func (r *Response) JSONArray() []any {
	if r.array == nil {
		return nil
	}
	return cloneJSON(r.array).([]any)
}

func (r *Response) IsHTML() bool { return r.html }

// Header returns a fresh copy of the header fields. The status line is held
// under the empty key.
func (r *Response) Header() map[string][]string {
	return copyHeader(r.header)
}

// HeaderValues returns the values for key. An exact match wins, otherwise the
// key is matched in canonical form and then case-insensitively.
func (r *Response) HeaderValues(key string) []string {
	if v, ok := r.header[key]; ok {
		return append([]string(nil), v...)
	}
	if key == "" {
		return nil
	}
	if v, ok := r.header[textproto.CanonicalMIMEHeaderKey(key)]; ok {
		return append([]string(nil), v...)
	}
	for k, v := range r.header {
		if k != "" && strings.EqualFold(k, key) {
			return append([]string(nil), v...)
		}
	}
	return nil
}

// StatusLine returns the raw status line, e.g. "HTTP/1.1 200 OK".
func (r *Response) StatusLine() string {
	if v := r.header[""]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r *Response) StatusCode() int { return r.statusCode }

// Date is the response date in milliseconds since the epoch, 0 if unknown.
func (r *Response) Date() int64 { return r.date }

// Time returns Date as a time.Time; the zero time when the date is unknown.
func (r *Response) Time() time.Time {
	if r.date == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.date)
}

// URL is the URL of the request that produced this response.
func (r *Response) URL() string { return r.url }

// Size is the raw body length in bytes.
func (r *Response) Size() int { return len(r.body) }

// DetectCharset guesses the charset of the raw body.
func (r *Response) DetectCharset() (string, error) {
	if len(r.body) == 0 {
		return "", fmt.Errorf("detect charset: empty body")
	}
	res, err := chardet.NewTextDetector().DetectBest(r.body)
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}
	return res.Charset, nil
}

// SaveBody writes the raw body to path.
func (r *Response) SaveBody(path string) error {
	if err := os.WriteFile(path, r.body, 0o644); err != nil {
		return ioFailure("save body", err)
	}
	return nil
}

// String renders the headers, status line first, followed by the body text.
func (r *Response) String() string {
	var sb strings.Builder
	if line := r.StatusLine(); line != "" {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	keys := make([]string, 0, len(r.header))
	for k := range r.header {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		values := r.header[k]
		if len(values) == 1 {
			fmt.Fprintf(&sb, "%s: %s\n", k, values[0])
			continue
		}
		fmt.Fprintf(&sb, "%s: %v\n", k, values)
	}
	sb.WriteString(r.text)
	return sb.String()
}
