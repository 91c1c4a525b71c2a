package currdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	postgresDSN string

	embedder Embedder

	embedCacheTTL    time.Duration
	responseCacheTTL time.Duration

	maxBatchSize     int
	embedConcurrency int
	excludeUndated   bool

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance holding the
// corpus.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres configures the Postgres connection for competitor programs.
// Without it the competitor and benchmark-against-stored-programs surface
// returns an error on use.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.postgresDSN = dsn
	})
}

// WithEmbedder sets the text embedding provider. Required for search,
// ingestion and benchmarking; deletes and stats work without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCacheTTL configures both caches. embedding is the vector cache TTL:
// zero means cache without expiry, negative disables the cache. response is
// the result cache TTL: zero or negative disables it (the default).
func WithCacheTTL(embedding, response time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedCacheTTL = embedding
		c.responseCacheTTL = response
	})
}

// WithMaxBatchSize sets the maximum number of documents per ingestion batch.
// Default: 100.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithEmbedConcurrency bounds the embedding fan-out during benchmark runs.
// Default: 8.
func WithEmbedConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedConcurrency = n
	})
}

// WithExcludeUndated excludes corpus entries without a publication date from
// every search. Individual searches can only tighten this, not relax it.
func WithExcludeUndated() Option {
	return optionFunc(func(c *clientConfig) {
		c.excludeUndated = true
	})
}

// WithLogger enables structured logging for engine operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
