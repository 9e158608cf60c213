package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/relay/internal/config"
	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/llm/factory"
	"github.com/newthinker/relay/internal/logger"
	"github.com/newthinker/relay/internal/metrics"
	"github.com/newthinker/relay/internal/storage/archive"
	"github.com/newthinker/relay/internal/storage/history"
)

// Outcome carries the result of an asynchronous completion after
// bookkeeping has run.
type Outcome struct {
	Record *core.Record
	Err    error
}

// App is the main gateway orchestrator. It owns the vendor provider and
// runs the bookkeeping every completion goes through: history, metrics
// and the optional transcript archive.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider llm.Provider
	history  history.Store
	archive  *archive.Transcripts
	metrics  *metrics.Registry
}

// New creates the App from configuration. The transcript archive is
// only wired when enabled.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	provider, err := factory.New(cfg.LLM, factory.Policy(cfg.Retry), logger.Component(log, "llm"))
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   log,
		provider: provider,
		history:  history.NewMemoryStore(cfg.History.MaxEntries),
		metrics:  metrics.NewRegistry(),
	}

	if cfg.Archive.Enabled {
		store, err := newArchiveStorage(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("creating archive: %w", err)
		}
		a.archive = archive.NewTranscripts(store)
	}

	return a, nil
}

func newArchiveStorage(cfg config.ArchiveConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// Vendor returns the configured vendor name.
func (a *App) Vendor() core.Vendor {
	return core.Vendor(a.provider.Name())
}

// History exposes the completion history store.
func (a *App) History() history.Store {
	return a.history
}

// Metrics exposes the metrics registry.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Complete serves a completion synchronously and records it.
func (a *App) Complete(ctx context.Context, req llm.CompletionRequest) (*core.Record, error) {
	start := time.Now()
	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		a.metrics.RecordCompletion(a.provider.Name(), "error", 0, time.Since(start).Seconds())
		return nil, err
	}

	return a.record(ctx, req, resp, time.Since(start)), nil
}

// CompleteAsync serves a completion off the calling goroutine. Exactly
// one Outcome is delivered on the returned channel, after bookkeeping.
func (a *App) CompleteAsync(ctx context.Context, req llm.CompletionRequest) <-chan Outcome {
	out := make(chan Outcome, 1)
	start := time.Now()
	results := a.provider.CompleteAsync(ctx, req)

	go func() {
		defer close(out)
		res := <-results
		if res.Err != nil {
			a.metrics.RecordCompletion(a.provider.Name(), "error", 0, time.Since(start).Seconds())
			out <- Outcome{Err: res.Err}
			return
		}
		out <- Outcome{Record: a.record(ctx, req, res.Response, time.Since(start))}
	}()

	return out
}

// record persists the completion and updates metrics. Bookkeeping
// failures are logged, never surfaced to the caller.
func (a *App) record(ctx context.Context, req llm.CompletionRequest, resp *llm.CompletionResponse, elapsed time.Duration) *core.Record {
	rec := core.Record{
		ID:           "cmpl_" + uuid.NewString(),
		Vendor:       a.Vendor(),
		Model:        resp.Model,
		Prompt:       req.Prompt,
		Text:         resp.Text,
		FinishReason: resp.FinishReason,
		Usage: core.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Attempts:  resp.Attempts,
		CreatedAt: time.Now().UTC(),
	}

	a.metrics.RecordCompletion(a.provider.Name(), "ok", resp.Attempts, elapsed.Seconds())
	a.metrics.RecordTokens(a.provider.Name(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if err := a.history.Save(ctx, rec); err != nil {
		a.logger.Warn("saving history failed", zap.Error(err))
	}

	if a.archive != nil {
		if path, err := a.archive.Put(ctx, rec); err != nil {
			a.logger.Warn("archiving transcript failed",
				zap.String("id", rec.ID), zap.Error(err))
		} else {
			a.logger.Debug("transcript archived", zap.String("path", path))
		}
	}

	return &rec
}
