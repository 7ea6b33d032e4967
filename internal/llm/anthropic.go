package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/concierge/internal/common"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicClient implements the Client interface for Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required: %w", common.ErrAIUnavailable)
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
	}, nil
}

// Complete sends a messages request. A forced tool call is read back from the tool_use block.
func (c *anthropicClient) Complete(ctx context.Context, r Request) (Response, error) {
	requestBody := map[string]any{
		"model":      c.model,
		"max_tokens": pickInt(r.MaxTokens, c.maxTokens),
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": r.Prompt,
			},
		},
	}
	if r.System != "" {
		requestBody["system"] = r.System
	}
	if temp := pick(r.Temperature, c.temperature); temp > 0 {
		requestBody["temperature"] = temp
	}
	if r.Tool != nil {
		requestBody["tools"] = []map[string]any{{
			"name":         r.Tool.Name,
			"description":  r.Tool.Description,
			"input_schema": r.Tool.Parameters,
		}}
		requestBody["tool_choice"] = map[string]string{"type": "tool", "name": r.Tool.Name}
	}

	body, err := postJSON(ctx, c.httpClient, "anthropic", c.baseURL+"/messages", requestBody, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return Response{}, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, common.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}

	if len(response.Content) == 0 {
		return Response{}, common.Permanent(fmt.Errorf("no content in response"))
	}

	var out Response
	var text strings.Builder
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if r.Tool != nil && block.Name == r.Tool.Name && out.ToolArguments == nil {
				out.ToolArguments = block.Input
			}
		}
	}
	out.Content = text.String()
	return out, nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
