package core

import "time"

// Vendor identifies the upstream completion vendor
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorClaude Vendor = "claude"
	VendorOllama Vendor = "ollama"
)

// Usage tracks token consumption for a single completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Record represents one served completion, as stored in history
// and archived as a transcript
type Record struct {
	ID           string    `json:"id"`
	Vendor       Vendor    `json:"vendor"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt"`
	Text         string    `json:"text"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        Usage     `json:"usage"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsValid checks if the record has required fields
func (r Record) IsValid() bool {
	return r.ID != "" && r.Vendor != "" && !r.CreatedAt.IsZero()
}
