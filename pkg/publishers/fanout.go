package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each exchange event to every configured sink. A failing
// sink does not stop delivery to the others.
type Fanout struct {
	publishers []Publisher
	log        Logger
}

// NewFanout drops nil entries from pubs. log may be nil.
func NewFanout(pubs []Publisher, log Logger) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp, log: ensureLogger(log)}
}

// Publish returns how many sinks accepted evt, with every sink failure joined.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.Publish(ctx, evt); err != nil {
			f.log.WarnObj("exchange event not delivered", "publish_error", map[string]any{
				"publisher_id":   p.ID(),
				"publisher_type": p.Type(),
				"definition_id":  evt.DefinitionID,
				"error":          err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		delivered++
	}
	f.log.DebugObj("exchange event fanned out", "publish_result", map[string]any{
		"definition_id": evt.DefinitionID,
		"delivered":     delivered,
		"sinks":         len(f.publishers),
	})
	return delivered, errors.Join(errs...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases every sink that holds resources.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return CloseAll(f.publishers)
}
