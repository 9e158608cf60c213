// internal/llm/claude/claude.go
package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/retry"
	"go.uber.org/zap"
)

// Transport is the slice of the Anthropic client the adapter calls.
// *anthropic.MessageService satisfies it.
type Transport interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Provider implements the completion interface for Claude/Anthropic.
// The vendor only ships a messages API, so a completion prompt is sent
// as a single user message.
type Provider struct {
	transport Transport
	model     string
	maxTokens int
	policy    retry.Policy
	log       *zap.Logger
}

// Config holds the Claude adapter settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Retry     retry.Policy
	Logger    *zap.Logger
}

// New creates a new Claude provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("claude api_key required"))
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0))

	return &Provider{
		transport: &client.Messages,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		policy:    cfg.Retry,
		log:       log.Named("claude"),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "claude"
}

// Complete sends the prompt to the Claude API with bounded retry.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = int64(p.maxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	var resp *anthropic.Message
	attempts := 0
	err := p.policy.Do(ctx, IsTransient, func(ctx context.Context) error {
		attempts++
		var callErr error
		resp, callErr = p.transport.New(ctx, params)
		if callErr != nil && IsTransient(callErr) {
			p.log.Warn("transient completion error",
				zap.Int("attempt", attempts),
				zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Content) == 0 || resp.Content[0].Type != "text" {
		return nil, core.ErrEmptyCompletion
	}

	return &llm.CompletionResponse{
		Text:         resp.Content[0].Text,
		Model:        p.model,
		FinishReason: string(resp.StopReason),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
		Attempts: attempts,
	}, nil
}

// CompleteAsync runs Complete off the calling goroutine.
func (p *Provider) CompleteAsync(ctx context.Context, req llm.CompletionRequest) <-chan llm.Result {
	out := make(chan llm.Result, 1)
	go func() {
		defer close(out)
		resp, err := p.Complete(ctx, req)
		out <- llm.Result{Response: resp, Err: err}
	}()
	return out
}

// IsTransient reports whether an Anthropic API error warrants a retry.
func IsTransient(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429, apiErr.StatusCode == 408:
			return true
		case apiErr.StatusCode >= 500:
			return true
		}
	}
	return false
}
