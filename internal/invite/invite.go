// Package invite calls the external partner-invite endpoint.
package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/concierge/internal/common"
)

// Request is the invite payload.
type Request struct {
	CompanyName  string `json:"company_name"`
	Category     string `json:"category"`
	ContactEmail string `json:"contact_email"`
	Website      string `json:"website,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Source       string `json:"source"`
}

type response struct {
	InviteLink string `json:"invite_link"`
	Error      string `json:"error"`
	Success    bool   `json:"success"`
}

// Client posts invites.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

// New creates an invite client for url.
func New(url, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
		apiKey:     apiKey,
	}
}

// Send creates an invite and returns its link.
func (c *Client) Send(ctx context.Context, r Request) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("%w: invite endpoint", common.ErrMissingConfig)
	}
	if r.Source == "" {
		r.Source = "ai_partner_discovery"
	}

	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal invite: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("invite request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read invite response: %w", err)
	}

	var parsed response
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Error != "" {
			return "", fmt.Errorf("invite endpoint returned %d: %s", resp.StatusCode, parsed.Error)
		}
		return "", fmt.Errorf("invite endpoint returned %d", resp.StatusCode)
	}
	if !parsed.Success {
		if parsed.Error != "" {
			return "", errors.New(parsed.Error)
		}
		return "", errors.New("invite was not created")
	}
	return parsed.InviteLink, nil
}
