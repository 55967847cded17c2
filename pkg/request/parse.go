package request

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// exchange is the metadata a completed connection reports.
type exchange interface {
	URL() string
	StatusCode() int
	Date() int64
	HeaderFields() map[string][]string
}

// readResponse consumes in fully, closes it and builds the Response.
func readResponse(in io.ReadCloser, meta exchange, charset string) (*Response, error) {
	body, err := io.ReadAll(in)
	closeErr := in.Close()
	if err != nil {
		return nil, ioFailure("read response", err)
	}
	if closeErr != nil {
		return nil, ioFailure("read response", closeErr)
	}
	return buildResponse(body, meta.HeaderFields(), meta.StatusCode(), meta.Date(), meta.URL(), charset), nil
}

// buildResponse runs the three independent probes over the decoded text.
func buildResponse(body []byte, headers map[string][]string, status int, date int64, url, charset string) *Response {
	text := decodeText(body, charset)
	obj, arr := probeJSON(text)

	return &Response{
		body:       body,
		text:       text,
		object:     obj,
		array:      arr,
		html:       probeHTML(text),
		header:     copyHeader(headers),
		statusCode: status,
		date:       date,
		url:        url,
		charset:    charset,
	}
}

// probeJSON tries an object first, then an array. At most one result is set.
func probeJSON(text string) (map[string]any, []any) {
	if obj, err := parseJSONObject(text); err == nil {
		return obj, nil
	}
	if arr, err := parseJSONArray(text); err == nil {
		return nil, arr
	}
	return nil, nil
}

// probeHTML reports whether a lenient parse of text yields any text content.
// Plain text and JSON bodies count as HTML under this rule.
func probeHTML(text string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Text()) != ""
}

func copyHeader(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
