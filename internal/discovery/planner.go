package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

const plannerSystemPrompt = `You are a sourcing specialist for an ultra-luxury concierge service.
Generate exactly 3 highly specific web search queries that would surface real companies able to serve the client's requirements.
Respond with ONLY a JSON array of strings.`

// QueryPlanner turns a request into at most six search queries.
type QueryPlanner struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewQueryPlanner creates a planner. A nil client disables AI-generated queries.
func NewQueryPlanner(client llm.Client, logger *slog.Logger) *QueryPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryPlanner{llm: client, logger: logger}
}

// Plan merges template queries with AI-generated ones, deduplicated and capped.
// AI failures only shrink the result.
func (p *QueryPlanner) Plan(ctx context.Context, req model.DiscoveryRequest) ([]string, error) {
	if strings.TrimSpace(req.Requirements) == "" {
		return nil, common.Validationf("requirements are required")
	}

	queries := templateQueries(req)
	queries = append(queries, p.aiQueries(ctx, req)...)
	return dedupe(queries, maxQueries), nil
}

// templateQueries returns the category's phrases with the first region appended.
func templateQueries(req model.DiscoveryRequest) []string {
	phrases := queryTemplates[model.Category(req.Category)]
	region := ""
	if len(req.Regions) > 0 {
		region = strings.TrimSpace(req.Regions[0])
	}

	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		if region != "" {
			phrase = phrase + " " + region
		}
		out = append(out, phrase)
	}
	return out
}

func (p *QueryPlanner) aiQueries(ctx context.Context, req model.DiscoveryRequest) []string {
	if p.llm == nil {
		return nil
	}

	resp, err := p.llm.Complete(ctx, llm.Request{
		System:      plannerSystemPrompt,
		Prompt:      describeRequest(req),
		Temperature: 0.7,
	})
	if err != nil {
		p.logger.Warn("AI query generation failed", "error", err)
		return nil
	}

	queries, err := llm.ExtractStringArray(resp.Content)
	if err != nil {
		p.logger.Warn("AI query generation returned no usable list", "error", err)
		return nil
	}
	if len(queries) > aiQueryCount {
		queries = queries[:aiQueryCount]
	}
	return queries
}

func describeRequest(req model.DiscoveryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requirements: %s\n", req.Requirements)
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if len(req.Regions) > 0 {
		fmt.Fprintf(&b, "Regions: %s\n", strings.Join(req.Regions, ", "))
	}
	return b.String()
}

// dedupe keeps the first occurrence of each non-empty query, up to limit.
func dedupe(queries []string, limit int) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, min(len(queries), limit))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
