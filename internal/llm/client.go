package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is a single-turn completion request.
type Request struct {
	// Tool, when set, forces the model to answer by calling it.
	Tool        *Tool
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Tool describes a function the model must populate.
type Tool struct {
	Parameters  map[string]any
	Name        string
	Description string
}

// Response contains the model's reply.
type Response struct {
	Content string
	// ToolArguments holds the raw arguments of the forced tool call, if any.
	ToolArguments json.RawMessage
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
