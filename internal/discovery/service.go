package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

// WebSearcher runs search queries; failed queries contribute nothing.
type WebSearcher interface {
	SearchAll(ctx context.Context, queries []string) []model.SearchResult
}

// Store is the persistence the service needs.
type Store interface {
	SettingsStore
	InsertPipelineLog(ctx context.Context, l *model.PipelineLog) error
}

// Deps are the collaborators of a Service. Leave LLM nil when no model is
// configured; Search and Inviter may be nil too.
type Deps struct {
	LLM     llm.Client
	Search  WebSearcher
	Inviter Inviter
	Store   Store
	Logger  *slog.Logger
}

// Config tunes the service.
type Config struct {
	CacheTTL        time.Duration
	MemoryCacheSize int
}

// Result is the discovery response body.
type Result struct {
	Suggestions         []model.CandidateSuggestion `json:"suggestions"`
	SearchQueries       []string                    `json:"searchQueries"`
	AutoOutreachResults []model.OutreachResult      `json:"autoOutreachResults,omitempty"`
	Message             string                      `json:"message"`
	WebResultsCount     int                         `json:"webResultsCount"`
	ProcessingTime      int64                       `json:"processingTime"`
	Cached              bool                        `json:"cached,omitempty"`
}

// Service runs the discovery pipeline.
type Service struct {
	llm       llm.Client
	search    WebSearcher
	store     Store
	planner   *QueryPlanner
	extractor *CandidateExtractor
	outreach  *OutreachDispatcher
	cache     *ResultCache
	logger    *slog.Logger
}

// NewService wires a discovery service.
func NewService(deps Deps, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("pipeline", model.PipelineDiscovery)

	var settings SettingsStore
	if deps.Store != nil {
		settings = deps.Store
	}

	return &Service{
		llm:       deps.LLM,
		search:    deps.Search,
		store:     deps.Store,
		planner:   NewQueryPlanner(deps.LLM, logger),
		extractor: NewCandidateExtractor(deps.LLM, logger),
		outreach:  NewOutreachDispatcher(deps.Inviter, logger),
		cache:     NewResultCache(settings, cfg.CacheTTL, cfg.MemoryCacheSize, logger),
		logger:    logger,
	}
}

// Discover runs one discovery request.
func (s *Service) Discover(ctx context.Context, req model.DiscoveryRequest) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Requirements) == "" {
		return nil, common.Validationf("requirements are required")
	}

	key := CacheKey(req)
	if !req.AutoOutreach {
		if snap, ok := s.cache.Get(ctx, key); ok {
			result := &Result{
				Suggestions:     snap.Suggestions,
				SearchQueries:   snap.SearchQueries,
				WebResultsCount: snap.WebResultsCount,
				Message:         snap.Message,
				ProcessingTime:  time.Since(start).Milliseconds(),
				Cached:          true,
			}
			s.logger.Info("discovery served from cache", "key", key)
			s.finish(ctx, req, "cache_hit", result, nil)
			return result, nil
		}
	}

	if s.llm == nil {
		s.finish(ctx, req, "failed", nil, common.ErrAIUnavailable)
		return nil, common.ErrAIUnavailable
	}

	queries, err := s.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	var results []model.SearchResult
	if s.search != nil && len(queries) > 0 {
		results = s.search.SearchAll(ctx, queries)
	}

	suggestions, err := s.extractor.Extract(ctx, req, results)
	if err != nil {
		s.finish(ctx, req, "failed", nil, err)
		return nil, err
	}

	result := &Result{
		Suggestions:     suggestions,
		SearchQueries:   queries,
		WebResultsCount: len(results),
		Message:         fmt.Sprintf("Found %d potential partners from %d web results", len(suggestions), len(results)),
	}

	s.cache.Put(ctx, key, Snapshot{
		Suggestions:     result.Suggestions,
		SearchQueries:   result.SearchQueries,
		WebResultsCount: result.WebResultsCount,
		Message:         result.Message,
	})

	if req.AutoOutreach {
		result.AutoOutreachResults = s.outreach.Dispatch(ctx, suggestions)
	}

	result.ProcessingTime = time.Since(start).Milliseconds()
	s.logger.Info("discovery completed",
		"queries", len(queries),
		"web_results", len(results),
		"suggestions", len(suggestions),
		"outreach", len(result.AutoOutreachResults),
		"duration_ms", result.ProcessingTime)
	s.finish(ctx, req, "completed", result, nil)
	return result, nil
}

// finish records the run. Log failures never affect the response.
func (s *Service) finish(ctx context.Context, req model.DiscoveryRequest, outcome string, result *Result, runErr error) {
	runsTotal.WithLabelValues(outcome).Inc()
	if s.store == nil {
		return
	}

	details := map[string]any{
		"category":      req.Category,
		"regions":       req.Regions,
		"auto_outreach": req.AutoOutreach,
	}
	var duration int64
	if result != nil {
		details["suggestions"] = len(result.Suggestions)
		details["web_results"] = result.WebResultsCount
		details["queries"] = result.SearchQueries
		details["cached"] = result.Cached
		invited := 0
		for _, o := range result.AutoOutreachResults {
			if o.Success {
				invited++
			}
		}
		details["invited"] = invited
		duration = result.ProcessingTime
	}
	if runErr != nil {
		details["error"] = runErr.Error()
	}

	raw, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("failed to encode discovery log", "error", err)
		return
	}

	if err := s.store.InsertPipelineLog(context.WithoutCancel(ctx), &model.PipelineLog{
		Pipeline:   model.PipelineDiscovery,
		Subject:    truncateRunes(req.Requirements, 200),
		Outcome:    outcome,
		DurationMS: duration,
		Details:    raw,
	}); err != nil {
		s.logger.Warn("failed to write discovery log", "error", err)
	}
}

// Wait blocks until background cache writes have finished.
func (s *Service) Wait() {
	s.cache.Wait()
}
