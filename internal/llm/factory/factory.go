// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/relay/internal/config"
	"github.com/newthinker/relay/internal/llm"
	"github.com/newthinker/relay/internal/llm/claude"
	"github.com/newthinker/relay/internal/llm/ollama"
	"github.com/newthinker/relay/internal/llm/openai"
	"github.com/newthinker/relay/internal/retry"
	"go.uber.org/zap"
)

// Policy converts the retry section of the configuration into the
// policy the adapters consume.
func Policy(cfg config.RetryConfig) retry.Policy {
	if cfg.MaxAttempts == 0 {
		return retry.Default()
	}
	return retry.Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.Multiplier,
	}
}

// New creates a completion provider based on configuration.
func New(cfg config.LLMConfig, policy retry.Policy, log *zap.Logger) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(claude.Config{
			APIKey:    cfg.Claude.APIKey,
			Model:     cfg.Claude.Model,
			MaxTokens: cfg.Claude.MaxTokens,
			Retry:     policy,
			Logger:    log,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			ModelKwargs: cfg.OpenAI.ModelKwargs,
			Retry:       policy,
			Logger:      log,
		})
	case "ollama":
		return ollama.New(ollama.Config{
			Endpoint: cfg.Ollama.Endpoint,
			Model:    cfg.Ollama.Model,
			Retry:    policy,
			Logger:   log,
		})
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
