package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/concierge/internal/common"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIClient implements the Client interface for OpenAI-compatible chat completion gateways.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI-compatible API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: %w", common.ErrAIUnavailable)
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
	}, nil
}

// Complete sends a chat completion request, forcing the tool call when one is given.
func (c *openAIClient) Complete(ctx context.Context, r Request) (Response, error) {
	messages := make([]map[string]string, 0, 2)
	if r.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": r.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": r.Prompt})

	requestBody := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	if temp := pick(r.Temperature, c.temperature); temp > 0 {
		requestBody["temperature"] = temp
	}
	if maxTokens := pickInt(r.MaxTokens, c.maxTokens); maxTokens > 0 {
		requestBody["max_tokens"] = maxTokens
	}
	if r.Tool != nil {
		requestBody["tools"] = []map[string]any{{
			"type": "function",
			"function": map[string]any{
				"name":        r.Tool.Name,
				"description": r.Tool.Description,
				"parameters":  r.Tool.Parameters,
			},
		}}
		requestBody["tool_choice"] = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": r.Tool.Name},
		}
	}

	body, err := postJSON(ctx, c.httpClient, "openai", c.baseURL+"/chat/completions", requestBody, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return Response{}, err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, common.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}

	if len(response.Choices) == 0 {
		return Response{}, common.Permanent(fmt.Errorf("no completion choices returned"))
	}

	msg := response.Choices[0].Message
	out := Response{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		if r.Tool != nil && call.Function.Name == r.Tool.Name {
			out.ToolArguments = json.RawMessage(call.Function.Arguments)
			break
		}
	}
	return out, nil
}

// openAIResponse represents the chat completion response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON posts a JSON body and returns the reply body of a 2xx response.
// Transport failures are retryable; error replies are classified by status.
func postJSON(ctx context.Context, client *http.Client, provider, url string, payload any, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(provider, resp.StatusCode, body)
	}
	return body, nil
}

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func pickInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
