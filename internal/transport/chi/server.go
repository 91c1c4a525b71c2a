package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/domain"
	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
	benchmarkuc "github.com/curricula-cloud/currdex/internal/usecase/benchmark"
	competitoruc "github.com/curricula-cloud/currdex/internal/usecase/competitor"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
	healthuc "github.com/curricula-cloud/currdex/internal/usecase/health"
	retrievaluc "github.com/curricula-cloud/currdex/internal/usecase/retrieval"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the HTTP API over the engine's use case services.
type Server struct {
	retrieval      *retrievaluc.Service
	benchmark      *benchmarkuc.Service
	corpus         *corpusuc.Service
	competitors    *competitoruc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	errorHandlers  []errorHandler
	excludeUndated bool
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieval *retrievaluc.Service,
	benchmark *benchmarkuc.Service,
	corpus *corpusuc.Service,
	competitors *competitoruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval:   retrieval,
		benchmark:   benchmark,
		corpus:      corpus,
		competitors: competitors,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidEntry, http.StatusBadRequest, codeInvalidEntry),
		sentinelHandler(domain.ErrInvalidProgram, http.StatusBadRequest, codeInvalidProgram),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// WithExcludeUndated sets the server-wide admission policy for entries
// without a publication date. Requests can tighten it but not relax it.
func (s *Server) WithExcludeUndated(exclude bool) *Server {
	s.excludeUndated = exclude
	return s
}

// Routes mounts every API route on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/multi", s.MultiSearch)
		r.Post("/benchmark", s.Benchmark)

		r.Route("/corpus", func(r chi.Router) {
			r.Post("/documents", s.IngestDocuments)
			r.Delete("/documents", s.DeleteDocuments)
			r.Get("/stats", s.CorpusStats)
		})

		r.Route("/competitors", func(r chi.Router) {
			r.Post("/", s.ImportCompetitor)
			r.Get("/", s.ListCompetitors)
			r.Get("/{id}", s.GetCompetitor)
			r.Delete("/{id}", s.DeleteCompetitor)
		})
	})
}

// Search handles POST /api/v1/search. With ranked=true the composite
// credibility-aware ranking replaces plain similarity ordering.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	opts, err := optionsFromDTO(req.Options, s.excludeUndated)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	var results []domret.Result
	if req.Ranked {
		results, err = s.retrieval.SearchRanked(ctx, req.Query, opts)
	} else {
		results, err = s.retrieval.Search(ctx, req.Query, opts)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFromResults(results))
}

// MultiSearch handles POST /api/v1/search/multi.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	var req multiSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	opts, err := optionsFromDTO(req.Options, s.excludeUndated)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retrieval.MultiSearch(ctx, req.Variants, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFromResults(results))
}

// Benchmark handles POST /api/v1/benchmark. Omitted competitor_ids means
// every stored program.
func (s *Server) Benchmark(w http.ResponseWriter, r *http.Request) {
	var req benchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.ProgramID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "program_id is required")
		return
	}
	if len(req.Units) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "units are required")
		return
	}

	competitors, err := s.loadCompetitors(r.Context(), req.CompetitorIDs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	units := unitsFromDTO(req.Units)
	topics := s.benchmark.ExtractTopics(units)

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.benchmark.Compare(ctx, req.ProgramID, topics, units, competitors)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reportToDTO(report))
}

func (s *Server) loadCompetitors(ctx context.Context, ids []string) ([]dombench.Program, error) {
	if len(ids) == 0 {
		return s.competitors.List(ctx)
	}
	programs := make([]dombench.Program, 0, len(ids))
	for _, id := range ids {
		p, err := s.competitors.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// IngestDocuments handles POST /api/v1/corpus/documents.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > corpusuc.MaxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", corpusuc.MaxBatchSize))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.corpus.Ingest(ctx, draftsFromDTO(req.Documents))

	succeeded, failed := 0, 0
	items := make([]batchResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultToDTO(res)
		if res.Status() == dombatch.StatusOK {
			succeeded++
		} else {
			failed++
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ingestResponse{
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// DeleteDocuments handles DELETE /api/v1/corpus/documents. The body selects
// either explicit ids or a whole domain, never both.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req corpusDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.IDs) > 0 && req.Domain != "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "provide either ids or domain, not both")
		return
	}
	if len(req.IDs) == 0 && req.Domain == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "ids or domain is required")
		return
	}

	var (
		deleted int
		err     error
	)
	if req.Domain != "" {
		deleted, err = s.corpus.DeleteDomain(r.Context(), req.Domain)
	} else {
		deleted, err = s.corpus.Delete(r.Context(), req.IDs)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, corpusDeleteResponse{Deleted: deleted})
}

// CorpusStats handles GET /api/v1/corpus/stats.
func (s *Server) CorpusStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.corpus.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	programs, err := s.competitors.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	domains := stats.Domains
	if domains == nil {
		domains = []string{}
	}

	writeJSON(w, http.StatusOK, corpusStatsResponse{
		EntryCount:         stats.EntryCount,
		Domains:            domains,
		CompetitorPrograms: programs,
	})
}

// ImportCompetitor handles POST /api/v1/competitors.
func (s *Server) ImportCompetitor(w http.ResponseWriter, r *http.Request) {
	var req importCompetitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	program, err := s.competitors.Import(
		r.Context(), req.Institution, req.ProgramName, req.Level,
		req.Topics, structureFromDTO(req.Structure),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/competitors/"+program.ID())
	writeJSON(w, http.StatusCreated, competitorToDTO(&program))
}

// ListCompetitors handles GET /api/v1/competitors.
func (s *Server) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	programs, err := s.competitors.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]competitorResponse, len(programs))
	for i := range programs {
		items[i] = competitorToDTO(&programs[i])
	}

	writeJSON(w, http.StatusOK, competitorListResponse{Items: items, Total: len(items)})
}

// GetCompetitor handles GET /api/v1/competitors/{id}.
func (s *Server) GetCompetitor(w http.ResponseWriter, r *http.Request) {
	program, err := s.competitors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, competitorToDTO(&program))
}

// DeleteCompetitor handles DELETE /api/v1/competitors/{id}.
func (s *Server) DeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	if err := s.competitors.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorPayload{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals. Specific sentinels win over the coarse operation ones.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidQuery,
		domain.ErrInvalidEntry,
		domain.ErrInvalidProgram,
		domain.ErrRetrievalFailed,
		domain.ErrBenchmarkFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func batchErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidEntry):
		return codeInvalidEntry
	case errors.Is(err, domain.ErrRateLimited):
		return codeRateLimited
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return codeEmbeddingProviderError
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return codeVectorDimMismatch
	default:
		return codeInternalError
	}
}
