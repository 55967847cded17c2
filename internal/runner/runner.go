package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-request/internal/domain"
	"github.com/samvad-hq/samvad-request/internal/logger"
	"github.com/samvad-hq/samvad-request/pkg/definitions"
	"github.com/samvad-hq/samvad-request/pkg/publishers"
	"github.com/samvad-hq/samvad-request/pkg/request"
	"golang.org/x/time/rate"
)

// Options configures how definitions are turned into requests.
type Options struct {
	// Request is passed to definitions.Build for every definition. A nil
	// Logger is replaced by the service logger.
	Request request.Options
	// SaveBodiesDir receives the raw body of definitions with save_body set.
	// Empty disables saving.
	SaveBodiesDir string
	// RatePerSecond caps how many definitions start per second across a run.
	// Zero or less means no cap beyond each definition's own delay.
	RatePerSecond float64
}

// Service executes request definitions and reports each exchange.
type Service struct {
	store     ExchangeStore
	publisher EventPublisher
	log       logger.Logger
	opts      Options
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewService wires a runner with its history store and event publisher.
// Either may be nil.
func NewService(store ExchangeStore, pub EventPublisher, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NopLogger()
	}
	if opts.Request.Logger == nil {
		opts.Request.Logger = log
	}
	svc := &Service{
		store:     store,
		publisher: pub,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
	if opts.RatePerSecond > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return svc
}

// Run executes defs in order, pausing for each definition's delay. It stops
// early when ctx is cancelled and returns every failure joined together.
func (s *Service) Run(ctx context.Context, defs []definitions.Definition) error {
	if s == nil {
		return fmt.Errorf("runner service is not initialized")
	}
	if len(defs) == 0 {
		return fmt.Errorf("no request definitions to run")
	}

	var errs []error
	for i, def := range defs {
		if err := s.pace(ctx); err != nil {
			errs = append(errs, err)
			break
		}

		if _, err := s.RunOne(ctx, def); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("request definition failed", "definition_error", map[string]any{
				"definition_id": def.ID,
				"error":         err.Error(),
			})
		}

		if delay := def.RequestDelay(); delay > 0 && i < len(defs)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				errs = append(errs, ctx.Err())
				return errors.Join(errs...)
			case <-timer.C:
			}
		}
	}
	return errors.Join(errs...)
}

// pace blocks until the limiter admits another definition. Without a
// limiter it only reports cancellation.
func (s *Service) pace(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}

// RunOne sends a single definition, records the exchange and publishes it.
// The exchange is returned even when a later step (status expectation,
// saving, recording or publishing) fails.
func (s *Service) RunOne(ctx context.Context, def definitions.Definition) (domain.Exchange, error) {
	req, err := definitions.Build(def, s.opts.Request)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("build request %s: %w", def.ID, err)
	}

	start := s.now()
	resp, err := req.Send(ctx)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("send request %s: %w", def.ID, err)
	}

	ex := domain.Exchange{
		DefinitionID: def.ID,
		Method:       string(req.Method()),
		URL:          req.FullURL(),
		StatusCode:   resp.StatusCode(),
		ContentKind:  Classify(resp),
		Bytes:        resp.Size(),
		ResponseDate: resp.Time(),
		ExchangedAt:  start.UTC(),
		DurationMs:   s.now().Sub(start).Milliseconds(),
	}
	if ex.ContentKind == domain.ContentHTML {
		ex.Title = resp.Meta().Title
	}

	var errs []error
	if def.ExpectStatus > 0 && ex.StatusCode != def.ExpectStatus {
		errs = append(errs, fmt.Errorf("request %s: expected status %d, got %d", def.ID, def.ExpectStatus, ex.StatusCode))
	}
	s.compareWithLatest(ex)

	if def.SaveBody && s.opts.SaveBodiesDir != "" {
		if err := s.saveBody(def, ex.ContentKind, resp); err != nil {
			errs = append(errs, err)
		}
	}

	if s.store != nil {
		id, err := s.store.Record(ex)
		if err != nil {
			errs = append(errs, fmt.Errorf("record exchange %s: %w", def.ID, err))
		} else {
			ex.ID = id
		}
	}

	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, publishers.NewEvent(def.ID, def.Name, ex)); err != nil {
			errs = append(errs, fmt.Errorf("publish exchange %s: %w", def.ID, err))
		}
	}

	s.log.InfoObj("request definition completed", "exchange", ex)
	return ex, errors.Join(errs...)
}

// compareWithLatest logs when a definition's status differs from its last run.
func (s *Service) compareWithLatest(ex domain.Exchange) {
	if s.store == nil {
		return
	}
	prev, found, err := s.store.Latest(ex.DefinitionID)
	if err != nil {
		s.log.WarnObj("history lookup failed", "history_error", map[string]any{
			"definition_id": ex.DefinitionID,
			"error":         err.Error(),
		})
		return
	}
	if found && prev.StatusCode != ex.StatusCode {
		s.log.WarnObj("status changed since last run", "status_change", map[string]any{
			"definition_id": ex.DefinitionID,
			"previous":      prev.StatusCode,
			"current":       ex.StatusCode,
			"previous_at":   prev.ExchangedAt,
		})
	}
}

func (s *Service) saveBody(def definitions.Definition, kind string, resp *request.Response) error {
	if err := os.MkdirAll(s.opts.SaveBodiesDir, 0o755); err != nil {
		return fmt.Errorf("create bodies directory: %w", err)
	}
	path := filepath.Join(s.opts.SaveBodiesDir, def.ID+bodyExtension(kind))
	if err := resp.SaveBody(path); err != nil {
		return fmt.Errorf("save body %s: %w", def.ID, err)
	}
	return nil
}

// Classify names the content kind of a response. JSON wins, and a body only
// counts as html when it carries markup; the response's own HTML flag also
// accepts plain text.
func Classify(resp *request.Response) string {
	switch {
	case resp == nil || resp.Size() == 0:
		return domain.ContentEmpty
	case resp.IsJSONObject():
		return domain.ContentJSONObject
	case resp.IsJSONArray():
		return domain.ContentJSONArray
	case hasMarkup(resp.Text()):
		return domain.ContentHTML
	default:
		return domain.ContentText
	}
}

// hasMarkup reports whether text opens with a tag, comment or doctype, or
// holds elements other than the html/head/body the parser always adds.
func hasMarkup(text string) bool {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "<") {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return false
	}
	return doc.Find("*").Not("html, head, body").Length() > 0
}

func bodyExtension(kind string) string {
	switch kind {
	case domain.ContentJSONObject, domain.ContentJSONArray:
		return ".json"
	case domain.ContentHTML:
		return ".html"
	default:
		return ".txt"
	}
}
