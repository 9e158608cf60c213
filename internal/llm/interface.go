package llm

import "context"

// Provider defines the interface for completion providers
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// CompleteAsync runs the same request off the calling goroutine and
	// delivers exactly one Result on the returned channel.
	CompleteAsync(ctx context.Context, req CompletionRequest) <-chan Result
}

// CompletionRequest holds the request parameters
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// CompletionResponse holds the response from the provider
type CompletionResponse struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
	Attempts     int // Transport calls made, including retries
}

// Usage tracks token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result carries the outcome of an asynchronous completion.
type Result struct {
	Response *CompletionResponse
	Err      error
}
