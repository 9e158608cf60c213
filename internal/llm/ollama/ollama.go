// internal/llm/ollama/ollama.go
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/retry"
	"go.uber.org/zap"
)

// Provider implements the completion interface for Ollama.
type Provider struct {
	endpoint string
	model    string
	client   *http.Client
	policy   retry.Policy
	log      *zap.Logger
}

// Config holds the Ollama adapter settings.
type Config struct {
	Endpoint string
	Model    string
	Retry    retry.Policy
	Logger   *zap.Logger
}

// New creates a new Ollama provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "qwen2.5:32b"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client: &http.Client{
			Timeout: 5 * time.Minute, // LLM inference can be slow
		},
		policy: cfg.Retry,
		log:    log.Named("ollama"),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ollama"
}

// generateRequest represents the request to the Ollama generate API.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse represents the response from the Ollama generate API.
type generateResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// statusError marks a non-2xx vendor reply so the retry predicate can
// tell server faults from decode failures.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama API returned status %d", e.code)
}

// Complete sends a completion request to the Ollama API with bounded retry.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: req.Prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  maxTokens,
			Temperature: req.Temperature,
			Stop:        req.Stop,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var out generateResponse
	attempts := 0
	err = p.policy.Do(ctx, IsTransient, func(ctx context.Context) error {
		attempts++
		callErr := p.do(ctx, body, &out)
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

	return &llm.CompletionResponse{
		Text:         out.Response,
		Model:        out.Model,
		FinishReason: out.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
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

func (p *Provider) do(ctx context.Context, body []byte, out *generateResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// IsTransient reports whether an Ollama call failed in a retryable way:
// server-side status or a network-level error.
func IsTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
