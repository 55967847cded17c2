package runner

import (
	"context"

	"github.com/samvad-hq/samvad-request/internal/domain"
	"github.com/samvad-hq/samvad-request/pkg/publishers"
)

// ExchangeStore keeps the exchange history the runner compares against.
type ExchangeStore interface {
	Record(ex domain.Exchange) (string, error)
	Latest(definitionID string) (domain.Exchange, bool, error)
}

// EventPublisher publishes exchange events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
