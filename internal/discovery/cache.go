package discovery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/model"
)

const cacheWriteTimeout = 10 * time.Second

// SettingsStore is the key/value table the cache persists into.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (*model.DiscoveryCacheEntry, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error
}

// Fingerprint derives the cache fingerprint of a request. Long, similar
// requirement strings can collide after truncation.
func Fingerprint(req model.DiscoveryRequest) string {
	category := req.Category
	if category == "" {
		category = "all"
	}
	raw := req.Requirements + "_" + category + "_" + strings.Join(req.Regions, ",")
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	if len(encoded) > fingerprintLength {
		encoded = encoded[:fingerprintLength]
	}
	return encoded
}

// CacheKey returns the settings key for a request.
func CacheKey(req model.DiscoveryRequest) string {
	return cacheKeyPrefix + Fingerprint(req)
}

// Snapshot is the part of a discovery result worth replaying. Outreach results are
// never cached.
type Snapshot struct {
	Suggestions     []model.CandidateSuggestion `json:"suggestions"`
	SearchQueries   []string                    `json:"searchQueries"`
	Message         string                      `json:"message"`
	WebResultsCount int                         `json:"webResultsCount"`
}

type memoryEntry struct {
	storedAt time.Time
	payload  Snapshot
}

// ResultCache is a two-tier cache: an in-process expirable LRU in front of the
// settings table. Entries are misses once they are ttl old.
type ResultCache struct {
	store  SettingsStore
	memory *expirable.LRU[string, memoryEntry]
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
	ttl    time.Duration
}

// NewResultCache creates a cache. memorySize <= 0 disables the memory tier;
// a nil store disables the persistent tier.
func NewResultCache(store SettingsStore, ttl time.Duration, memorySize int, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &ResultCache{
		store:  store,
		logger: logger,
		now:    time.Now,
		ttl:    ttl,
	}
	if memorySize > 0 {
		c.memory = expirable.NewLRU[string, memoryEntry](memorySize, nil, ttl)
	}
	return c
}

// Get returns a fresh payload for key. Read failures are logged and reported as misses.
func (c *ResultCache) Get(ctx context.Context, key string) (Snapshot, bool) {
	if c.memory != nil {
		if e, ok := c.memory.Get(key); ok && c.now().Sub(e.storedAt) < c.ttl {
			cacheLookupsTotal.WithLabelValues("memory", "hit").Inc()
			return e.payload, true
		}
		cacheLookupsTotal.WithLabelValues("memory", "miss").Inc()
	}

	if c.store == nil {
		return Snapshot{}, false
	}

	entry, err := c.store.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.logger.Warn("discovery cache read failed", "key", key, "error", err)
		}
		cacheLookupsTotal.WithLabelValues("settings", "miss").Inc()
		return Snapshot{}, false
	}
	if entry.IsStale(c.now(), c.ttl) {
		cacheLookupsTotal.WithLabelValues("settings", "stale").Inc()
		return Snapshot{}, false
	}

	var payload Snapshot
	if err := json.Unmarshal(entry.Value, &payload); err != nil {
		c.logger.Warn("discovery cache entry unreadable", "key", key, "error", err)
		cacheLookupsTotal.WithLabelValues("settings", "miss").Inc()
		return Snapshot{}, false
	}

	cacheLookupsTotal.WithLabelValues("settings", "hit").Inc()
	if c.memory != nil {
		c.memory.Add(key, memoryEntry{storedAt: entry.UpdatedAt, payload: payload})
	}
	return payload, true
}

// Put stores payload in the background. The write outlives ctx's cancellation
// and its failure is only logged.
func (c *ResultCache) Put(ctx context.Context, key string, payload Snapshot) {
	if c.memory != nil {
		c.memory.Add(key, memoryEntry{storedAt: c.now(), payload: payload})
	}
	if c.store == nil {
		return
	}

	value, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("discovery cache encode failed", "key", key, "error", err)
		return
	}

	writeCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(writeCtx, cacheWriteTimeout)
		defer cancel()
		if err := c.store.UpsertSetting(ctx, key, value); err != nil {
			c.logger.Warn("discovery cache write failed", "key", key, "error", err)
		}
	}()
}

// Wait blocks until background writes have finished.
func (c *ResultCache) Wait() {
	c.wg.Wait()
}
