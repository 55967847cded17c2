// Package storage keeps a local, expiring history of exchanges so a run can
// compare a definition's response against the previous one.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-request/internal/domain"
)

// Store records exchanges and answers lookups against the history.
type Store interface {
	// Record stores ex, assigning an ID when it has none, and returns the ID.
	Record(ex domain.Exchange) (string, error)
	// Latest returns the most recent exchange recorded for a definition.
	Latest(definitionID string) (domain.Exchange, bool, error)
	Close() error
}

// Options controls retention. Zero values fall back to a week of history
// swept every six hours.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.RecordTTL <= 0 {
		o.RecordTTL = 7 * 24 * time.Hour
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 6 * time.Hour
	}
	return o
}

// NewStore opens the backend named by typ: "bbolt" needs a file path, while
// "none" (or an empty type) keeps no history at all.
func NewStore(typ, path string, opts Options) (Store, error) {
	switch kind := strings.ToLower(strings.TrimSpace(typ)); kind {
	case "", "none", "disabled":
		return discardStore{}, nil
	case "bbolt":
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts.withDefaults())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", kind)
	}
}

// discardStore drops every exchange; IDs pass through untouched.
type discardStore struct{}

func (discardStore) Record(ex domain.Exchange) (string, error) { return ex.ID, nil }

func (discardStore) Latest(string) (domain.Exchange, bool, error) {
	return domain.Exchange{}, false, nil
}

func (discardStore) Close() error { return nil }
