package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/service"
)

// Gateway wraps a provider client with client-side rate limiting and retries.
type Gateway struct {
	client    Client
	logger    *slog.Logger
	limiter   *rate.Limiter
	provider  string
	retryOpts service.RetryOptions
}

var _ Client = (*Gateway)(nil)

// NewClient creates a gateway for the configured provider.
// A missing API key is reported as common.ErrAIUnavailable.
func NewClient(cfg Config, logger *slog.Logger) (*Gateway, error) {
	var client Client
	var err error

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "openai", "":
		provider = "openai"
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q: %w", cfg.Provider, common.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return newGateway(client, provider, cfg, logger), nil
}

func newGateway(client Client, provider string, cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Gateway{
		client:    client,
		logger:    logger,
		provider:  provider,
		retryOpts: retryOpts,
		limiter:   newRequestLimiter(cfg.RateLimit),
	}
}

// Complete waits for a rate-limit token, then calls the provider with retries.
// Errors keep their cause, so errors.Is(err, common.ErrRateLimit) and
// errors.Is(err, common.ErrQuotaExhausted) hold for the matching gateway replies.
func (g *Gateway) Complete(ctx context.Context, req Request) (Response, error) {
	if err := waitForSlot(ctx, g.limiter); err != nil {
		return Response{}, err
	}

	var resp Response
	err := common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = g.client.Complete(ctx, req)
		if callErr != nil {
			g.logger.Warn("LLM request attempt failed",
				"provider", g.provider,
				"error", callErr)
		}
		return callErr
	}, g.retryOpts)
	if err != nil {
		return Response{}, fmt.Errorf("%s completion failed: %w", g.provider, err)
	}
	return resp, nil
}
