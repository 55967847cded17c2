package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/samvad-request/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	DefinitionID   string          `json:"definition_id"`
	DefinitionName string          `json:"definition_name"`
	Exchange       domain.Exchange `json:"exchange"`
	PublishedAt    time.Time       `json:"published_at"`
}

// NewEvent constructs an Event for the given definition + exchange.
func NewEvent(definitionID, definitionName string, ex domain.Exchange) Event {
	return Event{
		DefinitionID:   definitionID,
		DefinitionName: definitionName,
		Exchange:       ex,
		PublishedAt:    time.Now().UTC(),
	}
}

// eventAttribute is message metadata shared by the queue and topic sinks.
// Numeric attributes are marked so SQS and SNS filter policies can compare them.
type eventAttribute struct {
	name    string
	value   string
	numeric bool
}

func eventAttributes(evt Event) []eventAttribute {
	attrs := []eventAttribute{{name: "definition_id", value: evt.DefinitionID}}
	if evt.Exchange.ContentKind != "" {
		attrs = append(attrs, eventAttribute{name: "content_kind", value: evt.Exchange.ContentKind})
	}
	if evt.Exchange.StatusCode > 0 {
		attrs = append(attrs, eventAttribute{name: "status_code", value: strconv.Itoa(evt.Exchange.StatusCode), numeric: true})
	}
	return attrs
}

func (a eventAttribute) dataType() string {
	if a.numeric {
		return "Number"
	}
	return "String"
}
