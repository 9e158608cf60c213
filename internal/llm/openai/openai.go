// internal/llm/openai/openai.go
package openai

import (
	"context"
	"errors"

	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/retry"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Transport performs the vendor completion call. The real client from
// sashabaranov/go-openai satisfies it; tests substitute a fake. The
// adapter only reads this reference, it never manages its lifecycle.
type Transport interface {
	CreateCompletion(ctx context.Context, request openai.CompletionRequest) (openai.CompletionResponse, error)
}

// Provider implements the completion interface for the OpenAI text
// completion API.
type Provider struct {
	transport Transport
	cfg       Config
	policy    retry.Policy
	log       *zap.Logger
}

// New creates a new OpenAI provider. Validation invariants: the
// Model/ModelName aliases must agree, ModelKwargs must not shadow a
// named parameter, and an API credential must be present (config field
// or OPENAI_API_KEY).
func New(cfg Config) (*Provider, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	var client *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		client = openai.NewClientWithConfig(cc)
	} else {
		client = openai.NewClient(cfg.APIKey)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Provider{
		transport: client,
		cfg:       cfg,
		policy:    cfg.Retry,
		log:       log.Named("openai"),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// ModelName returns the resolved model name, whichever alias configured it.
func (p *Provider) ModelName() string {
	return p.cfg.Model
}

// ModelKwargs returns a copy of the extra vendor parameters.
func (p *Provider) ModelKwargs() map[string]any {
	out := make(map[string]any, len(p.cfg.ModelKwargs))
	for k, v := range p.cfg.ModelKwargs {
		out[k] = v
	}
	return out
}

// Complete sends a completion request, retrying transient vendor errors
// up to the policy bound, and returns the first choice's text.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var resp openai.CompletionResponse
	attempts := 0

	err := p.policy.Do(ctx, IsTransient, func(ctx context.Context) error {
		attempts++
		var callErr error
		resp, callErr = p.transport.CreateCompletion(ctx, p.buildRequest(req))
		if callErr != nil && IsTransient(callErr) {
			p.log.Warn("transient completion error",
				zap.Int("attempt", attempts),
				zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		// Transient exhaustion and non-transient failures alike surface
		// the vendor error unchanged so callers can inspect it.
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, core.ErrEmptyCompletion
	}
	first := resp.Choices[0]

	out := &llm.CompletionResponse{
		Text:         first.Text,
		Model:        resp.Model,
		FinishReason: first.FinishReason,
		Attempts:     attempts,
	}
	// The vendor omits the usage block on some responses.
	if resp.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// CompleteAsync runs Complete on its own goroutine and delivers one
// Result. Each call owns its retry counter; no adapter state is shared
// across in-flight calls.
func (p *Provider) CompleteAsync(ctx context.Context, req llm.CompletionRequest) <-chan llm.Result {
	out := make(chan llm.Result, 1)
	go func() {
		defer close(out)
		resp, err := p.Complete(ctx, req)
		out <- llm.Result{Response: resp, Err: err}
	}()
	return out
}

// buildRequest merges configured parameters, request overrides and
// ModelKwargs into the vendor request.
func (p *Provider) buildRequest(req llm.CompletionRequest) openai.CompletionRequest {
	out := openai.CompletionRequest{
		Model:            p.cfg.Model,
		Prompt:           req.Prompt,
		MaxTokens:        p.cfg.MaxTokens,
		Temperature:      float32(p.cfg.Temperature),
		TopP:             float32(p.cfg.TopP),
		N:                p.cfg.N,
		BestOf:           p.cfg.BestOf,
		FrequencyPenalty: float32(p.cfg.FrequencyPenalty),
		PresencePenalty:  float32(p.cfg.PresencePenalty),
	}

	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		out.Temperature = float32(req.Temperature)
	}
	if len(req.Stop) > 0 {
		out.Stop = req.Stop
	}

	// The wire format is typed, so extras apply where the vendor request
	// can represent them.
	for key, value := range p.cfg.ModelKwargs {
		switch key {
		case "suffix":
			out.Suffix, _ = asString(value)
		case "user":
			out.User, _ = asString(value)
		case "echo":
			out.Echo, _ = value.(bool)
		case "logprobs":
			out.LogProbs, _ = asInt(value)
		case "seed":
			if seed, ok := asInt(value); ok {
				out.Seed = &seed
			}
		case "stop":
			if stops, ok := value.([]string); ok {
				out.Stop = stops
			}
		}
	}

	return out
}

// IsTransient reports whether a vendor error is eligible for retry:
// rate limits, server-side failures, and request-level transport errors.
// Auth and validation failures are not.
func IsTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		// HTTPStatusCode 0 means the SDK could not attach a status;
		// treat it like a server-side fault.
		return apiErr.HTTPStatusCode == 0 ||
			apiErr.HTTPStatusCode == 429 ||
			apiErr.HTTPStatusCode >= 500
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}

	return false
}
