// Package retrieval implements semantic search over the embedded corpus:
// single-query, multi-variant and composite-ranked retrieval.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/corpus"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
	"github.com/curricula-cloud/currdex/internal/domain/scoring"
	"github.com/curricula-cloud/currdex/internal/metrics"
)

// Response cache operation labels. Distinct ops never share cache entries.
const (
	opSearch = "search"
	opMulti  = "multi"
	opRanked = "ranked"
)

// multiCandidateFactor oversizes per-variant fetches so cross-variant
// dedup can still fill the requested limit.
const multiCandidateFactor = 2

// Service ranks the embedded corpus against natural-language queries.
// Stateless aside from the optional pass-through response cache.
type Service struct {
	repo   CorpusReader
	embed  Embedder
	cache  ResponseCache
	logger *zap.Logger
	now    func() time.Time
}

// New creates a retrieval service. cache may be nil to disable response
// caching; results are identical either way.
func New(repo CorpusReader, embed Embedder, cache ResponseCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, cache: cache, logger: logger, now: time.Now}
}

// Search embeds the query and returns corpus entries ranked against it:
// credibility descending, then similarity, reweighted by recency when
// recencyWeight > 0.
func (s *Service) Search(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, opSearch, query, opts); ok {
			return cached, nil
		}
	}

	start := time.Now()
	results, err := s.searchOnce(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	s.observe(opSearch, start, len(results))

	if s.cache != nil {
		s.cache.Put(ctx, opSearch, query, opts, results)
	}
	return results, nil
}

// MultiSearch runs one search per query variant concurrently and merges the
// result sets. Dedup is by entry id, first occurrence in variant order wins.
// Any variant failure fails the whole call.
func (s *Service) MultiSearch(ctx context.Context, variants []string, opts domret.Options) ([]domret.Result, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: at least one query variant is required", domain.ErrInvalidQuery)
	}
	for _, v := range variants {
		if err := validateQuery(v); err != nil {
			return nil, err
		}
	}

	cacheText := strings.Join(variants, "\n")
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, opMulti, cacheText, opts); ok {
			return cached, nil
		}
	}

	start := time.Now()

	// Each variant fetches extra candidates so dedup can still fill the limit.
	perVariant := make([][]domret.Result, len(variants))
	variantOpts := opts.WithLimit(multiCandidateFactor * opts.Limit())

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			rs, err := s.searchOnce(gctx, v, variantOpts)
			if err != nil {
				return fmt.Errorf("variant %d: %w", i, err)
			}
			perVariant[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]domret.Result, 0, len(variants)*opts.Limit())
	seen := make(map[string]struct{})
	for _, rs := range perVariant {
		for _, r := range rs {
			entry := r.Entry()
			if _, dup := seen[entry.ID()]; dup {
				continue
			}
			seen[entry.ID()] = struct{}{}
			merged = append(merged, r)
		}
	}

	// Stable sort keeps variant processing order among equal scores.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score() > merged[j].Score()
	})
	if len(merged) > opts.Limit() {
		merged = merged[:opts.Limit()]
	}
	results := make([]domret.Result, len(merged))
	for i := range merged {
		results[i] = domret.NewResult(merged[i].Entry(), merged[i].Score(), i+1)
	}
	s.observe(opMulti, start, len(results))

	if s.cache != nil {
		s.cache.Put(ctx, opMulti, cacheText, opts, results)
	}
	return results, nil
}

// SearchRanked is Search with the final score replaced by the
// similarity/credibility/recency composite and the ordering driven by it.
// recencyWeight is ignored here: the two blend modes are never mixed.
func (s *Service) SearchRanked(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, opRanked, query, opts); ok {
			return cached, nil
		}
	}

	start := time.Now()
	cands, err := s.score(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	for i := range cands {
		c := &cands[i]
		cred := float64(c.entry.CredibilityScore()) / 100
		c.score = scoring.Composite(c.similarity, cred, c.recency)
	}
	orderByScore(cands)
	results := toResults(cands, opts.Limit())
	s.observe(opRanked, start, len(results))

	if s.cache != nil {
		s.cache.Put(ctx, opRanked, query, opts, results)
	}
	return results, nil
}

// searchOnce runs the single-query pipeline on a validated query: embed,
// score, order, truncate. No cache or metrics; callers own those.
func (s *Service) searchOnce(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error) {
	cands, err := s.score(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	orderByAuthority(cands)
	if w := opts.RecencyWeight(); w > 0 {
		for i := range cands {
			cands[i].score = scoring.RecencyBlend(cands[i].similarity, cands[i].recency, w)
		}
		orderByScore(cands)
	}
	return toResults(cands, opts.Limit()), nil
}

// candidate is a scored corpus entry prior to final ordering.
type candidate struct {
	entry      corpus.Entry
	similarity float64
	recency    float64
	score      float64
}

// score embeds the query and scores every filtered corpus entry against it,
// applying the similarity floor and recency admission. A dimension mismatch
// on a single entry is logged and skipped; the batch continues.
func (s *Service) score(ctx context.Context, query string, opts domret.Options) ([]candidate, error) {
	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalFailed, err)
	}
	domain.UsageFromContext(ctx).AddTokens(embRes.TotalTokens)

	entries, err := s.repo.Query(ctx, corpus.Filter{
		Domains:        opts.Domains(),
		MinCredibility: opts.MinCredibility(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load corpus: %w", domain.ErrRetrievalFailed, err)
	}

	now := s.now()
	cands := make([]candidate, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		sim, err := scoring.Cosine(embRes.Embedding, e.Vector())
		if err != nil {
			s.logger.Warn("skipping entry with mismatched vector dimensions",
				zap.String("entry_id", e.ID()),
				zap.Error(err))
			continue
		}
		if sim < opts.MinSimilarity() {
			continue
		}
		rec := scoring.Recency(e.PublicationDate(), now)
		if !admitRecency(e, rec, opts) {
			continue
		}
		cands = append(cands, candidate{entry: *e, similarity: sim, recency: rec, score: sim})
	}
	return cands, nil
}

// admitRecency applies the recency admission rule: foundational entries
// always pass, undated entries pass unless excluded by policy, dated entries
// pass while inside the recency horizon.
func admitRecency(e *corpus.Entry, recency float64, opts domret.Options) bool {
	if e.IsFoundational() {
		return true
	}
	if e.PublicationDate() == nil {
		return !opts.ExcludeUndated()
	}
	return recency > 0
}

// orderByAuthority sorts by credibility desc, then similarity desc, then id
// asc. Among near-equal matches more credible sources surface first.
func orderByAuthority(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		if a.entry.CredibilityScore() != b.entry.CredibilityScore() {
			return a.entry.CredibilityScore() > b.entry.CredibilityScore()
		}
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		return a.entry.ID() < b.entry.ID()
	})
}

// orderByScore sorts by final score desc with id asc as the tie-break.
func orderByScore(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].entry.ID() < cands[j].entry.ID()
	})
}

func toResults(cands []candidate, limit int) []domret.Result {
	if len(cands) > limit {
		cands = cands[:limit]
	}
	results := make([]domret.Result, len(cands))
	for i := range cands {
		results[i] = domret.NewResult(cands[i].entry, cands[i].score, i+1)
	}
	return results
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(query) > domret.MaxQueryLength {
		return fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidQuery, domret.MaxQueryLength)
	}
	return nil
}

func (s *Service) observe(op string, start time.Time, resultCount int) {
	metrics.RetrievalDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.RetrievalResults.WithLabelValues(op).Observe(float64(resultCount))
}
