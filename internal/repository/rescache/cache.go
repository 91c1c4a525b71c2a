// Package rescache caches ranked retrieval responses in a key-value store.
// Entries are keyed by a digest of the operation, query text and normalized
// options, so identical requests short-circuit both the embedding call and
// the corpus scan until the TTL expires.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/db"
	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/corpus"
	"github.com/curricula-cloud/currdex/internal/domain/retrieval"
)

var cacheKeyPrefix = domain.KeyPrefix + "res_cache:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores serialized retrieval results with a TTL.
// A non-positive TTL disables the cache: Get always misses, Put is a no-op.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns cached results for (op, text, opts). Any storage or decode
// failure degrades to a miss.
func (c *Cache) Get(ctx context.Context, op, text string, opts retrieval.Options) ([]retrieval.Result, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}

	key := c.cacheKey(op, text, opts)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	results, err := decodeResults(data)
	if err != nil {
		c.logger.Warn("Failed to decode cached response", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return results, true
}

// Put stores results for (op, text, opts). Failures are logged, not returned:
// a broken cache must not fail the search.
func (c *Cache) Put(ctx context.Context, op, text string, opts retrieval.Options, results []retrieval.Result) {
	if c == nil || c.ttl <= 0 {
		return
	}

	data, err := encodeResults(results)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.Error(err))
		return
	}

	key := c.cacheKey(op, text, opts)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) cacheKey(op, text string, opts retrieval.Options) string {
	h := sha256.Sum256([]byte(op + "\n" + text + "\n" + opts.Fingerprint()))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

// resultDTO is the cache wire form of one ranked result. Vectors are not
// cached: responses never carry them and they dominate the payload size.
type resultDTO struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Domain       string     `json:"domain,omitempty"`
	Credibility  int        `json:"credibility_score"`
	Published    *time.Time `json:"publication_date,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Foundational bool       `json:"foundational,omitempty"`
	Score        float64    `json:"score"`
	Rank         int        `json:"rank"`
}

func encodeResults(results []retrieval.Result) ([]byte, error) {
	dtos := make([]resultDTO, len(results))
	for i := range results {
		entry := results[i].Entry()
		dtos[i] = resultDTO{
			ID:           entry.ID(),
			Content:      entry.Content(),
			Domain:       entry.Domain(),
			Credibility:  entry.CredibilityScore(),
			Published:    entry.PublicationDate(),
			Tags:         entry.Tags(),
			Foundational: entry.IsFoundational(),
			Score:        results[i].Score(),
			Rank:         results[i].Rank(),
		}
	}

	data, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return data, nil
}

func decodeResults(data []byte) ([]retrieval.Result, error) {
	var dtos []resultDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}

	results := make([]retrieval.Result, len(dtos))
	for i, d := range dtos {
		entry := corpus.Reconstruct(
			d.ID, d.Content, d.Domain, d.Credibility,
			d.Published, d.Tags, d.Foundational, nil,
		)
		results[i] = retrieval.NewResult(entry, d.Score, d.Rank)
	}
	return results, nil
}
