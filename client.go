package currdex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/db"
	dbRedis "github.com/curricula-cloud/currdex/internal/db/redis"
	"github.com/curricula-cloud/currdex/internal/domain"
	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
	"github.com/curricula-cloud/currdex/internal/metrics"
	competitorrepo "github.com/curricula-cloud/currdex/internal/repository/competitor"
	corpusrepo "github.com/curricula-cloud/currdex/internal/repository/corpus"
	"github.com/curricula-cloud/currdex/internal/repository/embcache"
	"github.com/curricula-cloud/currdex/internal/repository/rescache"
	benchmarkuc "github.com/curricula-cloud/currdex/internal/usecase/benchmark"
	competitoruc "github.com/curricula-cloud/currdex/internal/usecase/competitor"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
	healthuc "github.com/curricula-cloud/currdex/internal/usecase/health"
	retrievaluc "github.com/curricula-cloud/currdex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type retrievalUseCase interface {
	Search(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error)
	SearchRanked(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error)
	MultiSearch(ctx context.Context, variants []string, opts domret.Options) ([]domret.Result, error)
}

type benchmarkUseCase interface {
	ExtractTopics(units []dombench.Unit) []string
	Compare(
		ctx context.Context, programID string,
		topics []string, units []dombench.Unit, competitors []dombench.Program,
	) (dombench.Report, error)
}

type corpusUseCase interface {
	Ingest(ctx context.Context, drafts []corpusuc.Draft) []dombatch.Result
	Delete(ctx context.Context, ids []string) (int, error)
	DeleteDomain(ctx context.Context, dom string) (int, error)
	Stats(ctx context.Context) (corpusuc.Stats, error)
}

type competitorUseCase interface {
	Import(
		ctx context.Context, institution, programName, level string,
		topics []dombench.CompetitorTopic, structure dombench.Structure,
	) (dombench.Program, error)
	List(ctx context.Context) ([]dombench.Program, error)
	Get(ctx context.Context, id string) (dombench.Program, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Client is the currdex embedded engine entry point.
type Client struct {
	store db.Store
	sqlDB *sql.DB

	retrievalSvc  retrievalUseCase
	benchmarkSvc  benchmarkUseCase
	corpusSvc     corpusUseCase
	competitorSvc competitorUseCase
	healthSvc     healthUseCase

	excludeUndated bool
}

// New creates a currdex Client and connects to the backing stores.
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("currdex: redis address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("currdex: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("currdex: redis not ready: %w", err)
	}

	var sqlDB *sql.DB
	var compStore competitoruc.CompetitorStore = noopCompetitorStore{}
	if cfg.postgresDSN != "" {
		sqlDB, err = sql.Open("postgres", cfg.postgresDSN)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("currdex: open postgres: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			store.Close()
			_ = sqlDB.Close()
			return nil, fmt.Errorf("currdex: postgres not ready: %w", err)
		}
		repo := competitorrepo.New(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			store.Close()
			_ = sqlDB.Close()
			return nil, fmt.Errorf("currdex: ensure competitor schema: %w", err)
		}
		compStore = repo
	}

	return wireClient(store, sqlDB, compStore, cfg), nil
}

func wireClient(
	store db.Store, sqlDB *sql.DB,
	compStore competitoruc.CompetitorStore, cfg *clientConfig,
) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Embedder: noop unless configured (deletes and stats keep working,
	// anything that vectorizes returns an error).
	var domEmb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
		if cfg.embedCacheTTL >= 0 {
			domEmb = embcache.New(domEmb, store, cfg.embedCacheTTL, metrics.EmbeddingCacheTotal, logger)
		}
	}

	corpusRepo := corpusrepo.New(store)

	var resCache retrievaluc.ResponseCache
	if cfg.responseCacheTTL > 0 {
		resCache = rescache.New(store, cfg.responseCacheTTL, metrics.ResponseCacheTotal, logger)
	}

	corpusSvc := corpusuc.New(corpusRepo, asBatchEmbedder(domEmb))
	if cfg.maxBatchSize > 0 {
		corpusSvc = corpusSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	// Pass nil interface (not typed nil pointer!) when postgres is absent.
	var dbPinger healthuc.DBPinger
	if sqlDB != nil {
		dbPinger = sqlDB
	}
	var embChecker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(HealthChecker); ok {
		embChecker = hc
	}

	return &Client{
		store:          store,
		sqlDB:          sqlDB,
		retrievalSvc:   retrievaluc.New(corpusRepo, domEmb, resCache, logger),
		benchmarkSvc:   benchmarkuc.New(domEmb, logger, cfg.embedConcurrency),
		corpusSvc:      corpusSvc,
		competitorSvc:  competitoruc.New(compStore),
		healthSvc:      healthuc.New(store, dbPinger, embChecker),
		excludeUndated: cfg.excludeUndated,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.sqlDB != nil {
		_ = c.sqlDB.Close()
	}
}

// Ping checks corpus store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Retrieval returns the semantic search service.
func (c *Client) Retrieval() *RetrievalService {
	return &RetrievalService{svc: c.retrievalSvc, excludeUndated: c.excludeUndated}
}

// Benchmark returns the curriculum benchmarking service.
func (c *Client) Benchmark() *BenchmarkService {
	return &BenchmarkService{bench: c.benchmarkSvc, competitors: c.competitorSvc}
}

// Corpus returns the corpus management service.
func (c *Client) Corpus() *CorpusService {
	return &CorpusService{svc: c.corpusSvc}
}

// Competitors returns the competitor program service.
func (c *Client) Competitors() *CompetitorService {
	return &CompetitorService{svc: c.competitorSvc}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// BatchEmbed delegates to the provider's batch endpoint when it has one,
// otherwise embeds one text at a time.
func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// asBatchEmbedder narrows a domain.Embedder to the batch contract, falling
// back to sequential embedding when it lacks one.
func asBatchEmbedder(e domain.Embedder) corpusuc.Embedder {
	if be, ok := e.(domain.BatchEmbedder); ok {
		return be
	}
	return batchFallbackEmbedder{inner: e}
}

type batchFallbackEmbedder struct {
	inner domain.Embedder
}

func (f batchFallbackEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, f.inner, texts)
}

// noopEmbedder returns an error on use (no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"currdex: embedder not configured (use WithEmbedder)",
	)
}

func (noopEmbedder) BatchEmbed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, errors.New(
		"currdex: embedder not configured (use WithEmbedder)",
	)
}

// noopCompetitorStore returns an error on use (postgres not configured).
type noopCompetitorStore struct{}

var errNoPostgres = errors.New("currdex: postgres not configured (use WithPostgres for competitor programs)")

func (noopCompetitorStore) Insert(_ context.Context, _ dombench.Program) error {
	return errNoPostgres
}

func (noopCompetitorStore) List(_ context.Context) ([]dombench.Program, error) {
	return nil, errNoPostgres
}

func (noopCompetitorStore) GetByID(_ context.Context, _ string) (dombench.Program, error) {
	return dombench.Program{}, errNoPostgres
}

func (noopCompetitorStore) DeleteByID(_ context.Context, _ string) error {
	return errNoPostgres
}

func (noopCompetitorStore) Count(_ context.Context) (int, error) {
	return 0, errNoPostgres
}
