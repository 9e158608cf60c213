package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/relay/internal/config"
	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/metrics"
	"github.com/newthinker/relay/internal/storage/archive"
	"github.com/newthinker/relay/internal/storage/history"
)

type fakeProvider struct {
	resp *llm.CompletionResponse
	err  error
}

func (f *fakeProvider) Name() string { return "openai" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeProvider) CompleteAsync(ctx context.Context, req llm.CompletionRequest) <-chan llm.Result {
	out := make(chan llm.Result, 1)
	resp, err := f.Complete(ctx, req)
	out <- llm.Result{Response: resp, Err: err}
	close(out)
	return out
}

func newTestApp(provider llm.Provider) *App {
	return &App{
		cfg:      config.Defaults(),
		logger:   zap.NewNop(),
		provider: provider,
		history:  history.NewMemoryStore(100),
		metrics:  metrics.NewRegistry(),
	}
}

func okResponse() *llm.CompletionResponse {
	return &llm.CompletionResponse{
		Text:         "Bar Baz",
		Model:        "text-davinci-003",
		FinishReason: "length",
		Usage:        llm.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
		Attempts:     1,
	}
}

func TestApp_Complete_RecordsHistory(t *testing.T) {
	a := newTestApp(&fakeProvider{resp: okResponse()})

	rec, err := a.Complete(context.Background(), llm.CompletionRequest{Prompt: "foo"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if rec.Text != "Bar Baz" {
		t.Errorf("expected Bar Baz, got %q", rec.Text)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Error("expected record to be stamped")
	}
	if rec.Vendor != core.VendorOpenAI {
		t.Errorf("expected openai vendor, got %s", rec.Vendor)
	}

	saved, err := a.history.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("expected record in history: %v", err)
	}
	if saved.Prompt != "foo" {
		t.Errorf("expected prompt foo, got %q", saved.Prompt)
	}
}

func TestApp_Complete_ProviderErrorPropagatesUnchanged(t *testing.T) {
	sentinel := errors.New("boom")
	a := newTestApp(&fakeProvider{err: sentinel})

	_, err := a.Complete(context.Background(), llm.CompletionRequest{Prompt: "foo"})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected provider error unchanged, got %v", err)
	}

	count, _ := a.history.Count(context.Background(), history.ListFilter{})
	if count != 0 {
		t.Errorf("expected no history on failure, got %d", count)
	}
}

func TestApp_CompleteAsync_DeliversOneOutcome(t *testing.T) {
	a := newTestApp(&fakeProvider{resp: okResponse()})

	out := a.CompleteAsync(context.Background(), llm.CompletionRequest{Prompt: "foo"})

	select {
	case res := <-out:
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		if res.Record.Text != "Bar Baz" {
			t.Errorf("expected Bar Baz, got %q", res.Record.Text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}

	// Channel closes after the single delivery.
	if _, ok := <-out; ok {
		t.Error("expected channel to be closed")
	}
}

func TestApp_CompleteAsync_ErrorOutcome(t *testing.T) {
	sentinel := errors.New("boom")
	a := newTestApp(&fakeProvider{err: sentinel})

	res := <-a.CompleteAsync(context.Background(), llm.CompletionRequest{Prompt: "foo"})
	if !errors.Is(res.Err, sentinel) {
		t.Errorf("expected provider error unchanged, got %v", res.Err)
	}
}

func TestNew_UnknownArchiveType(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Provider = "ollama"
	cfg.Archive.Enabled = true
	cfg.Archive.Type = "tape"

	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Error("expected error for unknown archive type")
	}
}

func TestNew_LocalFSArchive(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Provider = "ollama"
	cfg.Archive.Enabled = true
	cfg.Archive.Type = "localfs"
	cfg.Archive.Path = t.TempDir()

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.archive == nil {
		t.Error("expected archive to be wired")
	}
}

func TestApp_Complete_ArchivesTranscript(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Provider = "ollama"
	cfg.Archive.Enabled = true
	cfg.Archive.Type = "localfs"
	cfg.Archive.Path = t.TempDir()

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.provider = &fakeProvider{resp: okResponse()}

	rec, err := a.Complete(context.Background(), llm.CompletionRequest{Prompt: "foo"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := a.archive.Get(context.Background(), archive.Path(*rec))
	if err != nil {
		t.Fatalf("expected archived transcript: %v", err)
	}
	if got.Text != "Bar Baz" {
		t.Errorf("expected archived text Bar Baz, got %q", got.Text)
	}
}
