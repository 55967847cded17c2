package domain

import "time"

// Domain contains core models shared by the runner, storage and publishers.

// Content kinds reported for a response body. A body can be both JSON and
// HTML under the lenient HTML probe; JSON wins when classifying.
const (
	ContentJSONObject = "json_object"
	ContentJSONArray  = "json_array"
	ContentHTML       = "html"
	ContentText       = "text"
	ContentEmpty      = "empty"
)

// Exchange summarizes one request/response pair produced by a definition.
type Exchange struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definition_id"`
	Method       string    `json:"method"`
	URL          string    `json:"url"`
	StatusCode   int       `json:"status_code"`
	ContentKind  string    `json:"content_kind"`
	Title        string    `json:"title,omitempty"`
	Bytes        int       `json:"bytes"`
	ResponseDate time.Time `json:"response_date,omitempty"`
	ExchangedAt  time.Time `json:"exchanged_at"`
	DurationMs   int64     `json:"duration_ms"`
}
