package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-request/internal/config"
	"github.com/samvad-hq/samvad-request/internal/logger"
	"github.com/samvad-hq/samvad-request/internal/runner"
	"github.com/samvad-hq/samvad-request/internal/storage"
	"github.com/samvad-hq/samvad-request/pkg/definitions"
	"github.com/samvad-hq/samvad-request/pkg/publishers"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

// Runner is the requester runtime. It loads request definitions, executes
// them once or on an interval, and owns the history store and publishers.
type Runner struct {
	cfg         *config.Config
	defs        *definitions.Registry
	fanout      *publishers.Fanout
	service     *runner.Service
	runInterval time.Duration
	log         logger.Logger
	store       storage.Store
}

// NewRunner builds a runner runtime from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defs, err := definitions.LoadRegistry(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load requests registry: %w", err)
	}
	defList := defs.All()
	defIDs := make([]string, 0, len(defList))
	for _, d := range defList {
		defIDs = append(defIDs, d.ID)
	}
	log.InfoObj("requests registry loaded", "requests_meta", map[string]any{
		"count": len(defIDs),
		"ids":   defIDs,
	})

	pubClients, err := buildPublishers(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	fanout := publishers.NewFanout(pubClients, log)

	storeOpts := storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	service := runner.NewService(store, fanout, log, runner.Options{
		Request: request.Options{
			Charset:   cfg.DefaultCharset,
			Logger:    log,
			Timeout:   cfg.RequestTimeout,
			UserAgent: cfg.UserAgent,
		},
		SaveBodiesDir: cfg.SaveBodiesDirectory,
		RatePerSecond: cfg.RatePerSecond,
	})

	return &Runner{
		cfg:         cfg,
		defs:        defs,
		fanout:      fanout,
		service:     service,
		runInterval: cfg.RunInterval,
		log:         log,
		store:       store,
	}, nil
}

// buildPublishers is optional: an empty publishers file setting disables
// event publishing.
func buildPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) ([]publishers.Publisher, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		log.WarnObj("no publishers file configured; events will not be published", "publishers_file", cfg.PublishersFile)
		return nil, nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return pubClients, nil
}

// Run executes all definitions once, then repeats on the configured interval
// until the context is cancelled. A zero interval runs exactly once.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()
	defs := r.defs.All()

	r.log.InfoObj("runner loop starting", "runner_state", map[string]any{
		"requests_count":   len(defs),
		"publishers_count": r.fanout.Size(),
		"run_interval":     r.runInterval.String(),
	})

	if r.runInterval <= 0 {
		return r.runOnce(ctx, defs)
	}

	if err := r.runOnce(ctx, defs); err != nil {
		r.log.ErrorObj("initial run failed", "error", err)
	}

	ticker := time.NewTicker(r.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx, defs); err != nil {
				r.log.ErrorObj("scheduled run failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pass over every definition.
func (r *Runner) runOnce(ctx context.Context, defs []definitions.Definition) error {
	start := time.Now()
	r.log.InfoObj("run started", "run_meta", map[string]any{
		"requests_count": len(defs),
		"started_at":     start.UTC(),
	})
	if err := r.service.Run(ctx, defs); err != nil {
		return err
	}
	r.log.InfoObj("run completed", "run_meta", map[string]any{
		"requests_count": len(defs),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and publishers, logging any errors encountered.
func (r *Runner) close() {
	if r == nil {
		return
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err)
	}
}
