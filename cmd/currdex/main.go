package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/config"
	"github.com/curricula-cloud/currdex/internal/db"
	dbRedis "github.com/curricula-cloud/currdex/internal/db/redis"
	"github.com/curricula-cloud/currdex/internal/domain"
	logpkg "github.com/curricula-cloud/currdex/internal/logger"
	"github.com/curricula-cloud/currdex/internal/metrics"
	competitorrepo "github.com/curricula-cloud/currdex/internal/repository/competitor"
	corpusrepo "github.com/curricula-cloud/currdex/internal/repository/corpus"
	"github.com/curricula-cloud/currdex/internal/repository/embcache"
	"github.com/curricula-cloud/currdex/internal/repository/rescache"
	chiTransport "github.com/curricula-cloud/currdex/internal/transport/chi"
	openaiEmb "github.com/curricula-cloud/currdex/internal/transport/openai"
	benchmarkuc "github.com/curricula-cloud/currdex/internal/usecase/benchmark"
	competitoruc "github.com/curricula-cloud/currdex/internal/usecase/competitor"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
	embeddinguc "github.com/curricula-cloud/currdex/internal/usecase/embedding"
	healthuc "github.com/curricula-cloud/currdex/internal/usecase/health"
	retrievaluc "github.com/curricula-cloud/currdex/internal/usecase/retrieval"
	"github.com/curricula-cloud/currdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting currdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create corpus store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Corpus store not ready", zap.Error(err))
	}
	logger.Info("Connected to corpus store")

	// Competitor programs live in Postgres
	sqlDB, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to open Postgres", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Fatal("Postgres not ready", zap.Error(err))
	}

	compRepo := competitorrepo.New(sqlDB)
	if err := compRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure competitor schema", zap.Error(err))
	}
	logger.Info("Connected to Postgres")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()

	// Build embedder chains. Queries and documents carry different
	// instruction prefixes, so each side gets its own chain.
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, store, logger)
	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Create repositories (domain-native, no adapters)
	corpusRepo := corpusrepo.New(store)
	resCache := rescache.New(
		store,
		time.Duration(cfg.Retrieval.ResponseCacheTTLSec)*time.Second,
		metrics.ResponseCacheTotal,
		logger,
	)

	// Create use case services
	retrievalSvc := retrievaluc.New(corpusRepo, queryEmbedder, resCache, logger)
	benchmarkSvc := benchmarkuc.New(queryEmbedder, logger, cfg.Benchmark.EmbedConcurrency)
	corpusSvc := corpusuc.New(corpusRepo, docEmbedder)
	competitorSvc := competitoruc.New(compRepo)

	// Health service
	healthSvc := healthuc.New(store, sqlDB, newEmbeddingHealthChecker(queryEmbedder))

	// Create chi server
	server := chiTransport.NewServer(
		retrievalSvc, benchmarkSvc, corpusSvc, competitorSvc, healthSvc, logger,
	).WithExcludeUndated(cfg.Retrieval.ExcludeUndated)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// embedderChain is the combined contract every decorator in the chain
// satisfies. Ingestion consumes the batch side, search the single side.
type embedderChain interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) embedderChain {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder embedderChain = base
	if store != nil {
		embedder = embcache.New(
			base, store,
			time.Duration(cfg.CacheTTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Instrumented (metrics + debug logging)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
