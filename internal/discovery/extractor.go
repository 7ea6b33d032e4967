package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

const extractorSystemPrompt = `You are a partner acquisition analyst for an ultra-luxury concierge service.
From the web search results and the client's requirements, identify real companies that could become service partners.
Only suggest companies that appear in the results or that you are confident exist. Keep descriptions under 100 characters and match reasons under 50 characters.
Assign priority "high" only to companies that fit the requirements closely.`

// suggestionTool is the function the model must populate.
var suggestionTool = &llm.Tool{
	Name:        suggestionToolName,
	Description: "Return prospective luxury service partners that match the requirements.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type":     "array",
				"maxItems": maxSuggestions,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"company_name": map[string]any{"type": "string"},
						"category":     map[string]any{"type": "string", "enum": categoryNames()},
						"subcategory":  map[string]any{"type": "string"},
						"description":  map[string]any{"type": "string", "description": "At most 100 characters"},
						"website":      map[string]any{"type": "string"},
						"coverage_regions": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"priority":     map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
						"match_reason": map[string]any{"type": "string", "description": "At most 50 characters"},
					},
					"required": []string{"company_name", "category", "description", "priority", "match_reason"},
				},
			},
		},
		"required": []string{"suggestions"},
	},
}

func categoryNames() []string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return names
}

// CandidateExtractor asks the model for structured partner suggestions.
type CandidateExtractor struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewCandidateExtractor creates an extractor.
func NewCandidateExtractor(client llm.Client, logger *slog.Logger) *CandidateExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateExtractor{llm: client, logger: logger}
}

// Extract returns up to ten validated suggestions. Gateway errors are returned
// as-is; a reply that cannot be parsed yields an empty list.
func (e *CandidateExtractor) Extract(ctx context.Context, req model.DiscoveryRequest, results []model.SearchResult) ([]model.CandidateSuggestion, error) {
	resp, err := e.llm.Complete(ctx, llm.Request{
		System:      extractorSystemPrompt,
		Prompt:      buildExtractionPrompt(req, results),
		Tool:        suggestionTool,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("candidate extraction: %w", err)
	}

	raw := resp.ToolArguments
	if len(raw) == 0 {
		var fallback json.RawMessage
		if err := llm.ExtractJSONObject(resp.Content, &fallback); err == nil {
			raw = fallback
		}
	}

	return e.parseSuggestions(raw), nil
}

func buildExtractionPrompt(req model.DiscoveryRequest, results []model.SearchResult) string {
	var b strings.Builder
	b.WriteString(describeRequest(req))

	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	if len(results) == 0 {
		b.WriteString("\nNo web search results are available; rely on your own knowledge of established companies.\n")
		return b.String()
	}

	b.WriteString("\nWeb search results:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n%s\n", i+1, r.Title, r.URL, truncateRunes(r.Snippet(), maxSnippetLength))
	}
	return b.String()
}

// rawSuggestion mirrors the tool schema; fields are checked before use.
type rawSuggestion struct {
	CompanyName     string   `json:"company_name"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Description     string   `json:"description"`
	Website         string   `json:"website"`
	CoverageRegions []string `json:"coverage_regions"`
	Priority        string   `json:"priority"`
	MatchReason     string   `json:"match_reason"`
}

func (e *CandidateExtractor) parseSuggestions(raw json.RawMessage) []model.CandidateSuggestion {
	var envelope struct {
		Suggestions []json.RawMessage `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.logger.Warn("unparseable suggestion payload", "error", err)
		return []model.CandidateSuggestion{}
	}

	out := make([]model.CandidateSuggestion, 0, min(len(envelope.Suggestions), maxSuggestions))
	for i, item := range envelope.Suggestions {
		if len(out) == maxSuggestions {
			break
		}
		var rs rawSuggestion
		if err := json.Unmarshal(item, &rs); err != nil {
			e.logger.Warn("dropping malformed suggestion", "index", i, "error", err)
			continue
		}
		s, ok := normalize(rs)
		if !ok {
			e.logger.Warn("dropping invalid suggestion",
				"index", i,
				"company", rs.CompanyName,
				"category", rs.Category,
				"priority", rs.Priority)
			continue
		}
		out = append(out, s)
	}
	return out
}

// normalize validates a suggestion and fills the derived fields.
func normalize(rs rawSuggestion) (model.CandidateSuggestion, bool) {
	name := strings.TrimSpace(rs.CompanyName)
	category := model.Category(strings.ToLower(strings.TrimSpace(rs.Category)))
	priority := model.Priority(strings.ToLower(strings.TrimSpace(rs.Priority)))
	if name == "" || !category.IsValid() || !priority.IsValid() {
		return model.CandidateSuggestion{}, false
	}

	s := model.CandidateSuggestion{
		CompanyName:     name,
		Category:        category,
		Subcategory:     strings.TrimSpace(rs.Subcategory),
		Description:     strings.TrimSpace(rs.Description),
		Website:         strings.TrimSpace(rs.Website),
		CoverageRegions: rs.CoverageRegions,
		Priority:        priority,
		MatchReason:     strings.TrimSpace(rs.MatchReason),
		MatchScore:      priority.MatchScore(),
	}
	if email, ok := InferEmail(s.Website, s.CompanyName); ok {
		s.ValidatedEmail = email
	}
	return s, true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
