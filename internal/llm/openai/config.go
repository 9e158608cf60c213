// internal/llm/openai/config.go
package openai

import (
	"fmt"
	"os"

	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/retry"
	"go.uber.org/zap"
)

// Config holds the named parameters of the OpenAI completion adapter.
// Anything the vendor accepts beyond these goes in ModelKwargs and is
// forwarded to the transport as-is.
type Config struct {
	Model     string // canonical model field
	ModelName string // alias for Model; both resolve to the same stored name

	APIKey  string // falls back to OPENAI_API_KEY
	BaseURL string // for OpenAI-compatible endpoints

	Temperature      float64
	MaxTokens        int
	TopP             float64
	N                int
	BestOf           int
	FrequencyPenalty float64
	PresencePenalty  float64

	ModelKwargs map[string]any

	Retry  retry.Policy
	Logger *zap.Logger
}

const defaultModel = "gpt-3.5-turbo-instruct"

// paramFields is the allow-list of recognized parameter keys, by wire
// name. A ModelKwargs key colliding with one of these fails validation,
// and NewFromParams uses it to separate named fields from extras.
var paramFields = map[string]struct{}{
	"model":             {},
	"model_name":        {},
	"api_key":           {},
	"base_url":          {},
	"temperature":       {},
	"max_tokens":        {},
	"top_p":             {},
	"n":                 {},
	"best_of":           {},
	"frequency_penalty": {},
	"presence_penalty":  {},
	"model_kwargs":      {},
}

// resolveModel collapses the Model/ModelName alias pair.
func (c Config) resolveModel() (string, error) {
	switch {
	case c.Model != "" && c.ModelName != "" && c.Model != c.ModelName:
		return "", core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("model %q and model_name %q conflict", c.Model, c.ModelName))
	case c.Model != "":
		return c.Model, nil
	case c.ModelName != "":
		return c.ModelName, nil
	default:
		return defaultModel, nil
	}
}

// validate checks construction invariants and resolves defaults.
func (c Config) validate() (Config, error) {
	model, err := c.resolveModel()
	if err != nil {
		return c, err
	}
	c.Model = model
	c.ModelName = model

	for key := range c.ModelKwargs {
		if _, named := paramFields[key]; named {
			return c, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("model_kwargs key %q duplicates a named parameter", key))
		}
	}

	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.APIKey == "" {
		return c, core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("api_key not set and OPENAI_API_KEY empty"))
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.Default()
	}
	return c, nil
}

// NewFromParams builds a provider from a loose parameter map, the shape
// configuration files and request payloads arrive in. Recognized keys
// populate Config fields; an unrecognized key is advisory only: it is
// logged and transferred into ModelKwargs, and construction proceeds.
// A recognized key carrying a value of the wrong type fails construction.
func NewFromParams(params map[string]any, log *zap.Logger) (*Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cfg := Config{Logger: log}
	kwargs := map[string]any{}

	for key, value := range params {
		if _, named := paramFields[key]; !named {
			log.Warn(fmt.Sprintf("%s is not default parameter, transferring to model_kwargs", key),
				zap.String("param", key))
			kwargs[key] = value
			continue
		}

		ok := true
		switch key {
		case "model":
			cfg.Model, ok = asString(value)
		case "model_name":
			cfg.ModelName, ok = asString(value)
		case "api_key":
			cfg.APIKey, ok = asString(value)
		case "base_url":
			cfg.BaseURL, ok = asString(value)
		case "temperature":
			cfg.Temperature, ok = asFloat(value)
		case "max_tokens":
			cfg.MaxTokens, ok = asInt(value)
		case "top_p":
			cfg.TopP, ok = asFloat(value)
		case "n":
			cfg.N, ok = asInt(value)
		case "best_of":
			cfg.BestOf, ok = asInt(value)
		case "frequency_penalty":
			cfg.FrequencyPenalty, ok = asFloat(value)
		case "presence_penalty":
			cfg.PresencePenalty, ok = asFloat(value)
		case "model_kwargs":
			var m map[string]any
			if m, ok = value.(map[string]any); ok {
				for k, v := range m {
					kwargs[k] = v
				}
			}
		}
		if !ok {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("param %q has unusable type %T", key, value))
		}
	}

	if len(kwargs) > 0 {
		cfg.ModelKwargs = kwargs
	}
	return New(cfg)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
