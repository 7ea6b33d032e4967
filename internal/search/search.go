// Package search is a client for a Firecrawl-compatible web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/concierge/internal/model"
)

const (
	defaultBaseURL         = "https://api.firecrawl.dev"
	defaultResultsPerQuery = 5
)

// Config holds search client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	ResultsPerQuery int
	Timeout         time.Duration
}

// Client issues search queries.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	limit      int
}

// New creates a search client. A client without an API key is valid and
// returns no results.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = defaultResultsPerQuery
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		limit:      limit,
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SearchAll runs every query concurrently and flattens the hits in query order.
// A failed query contributes no results and never aborts the others.
func (c *Client) SearchAll(ctx context.Context, queries []string) []model.SearchResult {
	if !c.Enabled() {
		c.logger.Info("web search skipped: no API key configured")
		return nil
	}

	perQuery := make([][]model.SearchResult, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			results, err := c.Search(ctx, q)
			if err != nil {
				c.logger.Warn("search query failed",
					"query", q,
					"error", err)
				return nil
			}
			perQuery[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var flat []model.SearchResult
	for _, results := range perQuery {
		flat = append(flat, results...)
	}
	return flat
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Data    []model.SearchResult `json:"data"`
	Success bool                 `json:"success"`
}

// Search runs a single query.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	body, err := json.Marshal(searchRequest{Query: query, Limit: c.limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (status %d)", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return parsed.Data, nil
}
