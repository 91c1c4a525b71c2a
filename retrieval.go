package currdex

import (
	"context"
	"fmt"

	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
)

// RetrievalService executes semantic searches against the corpus.
type RetrievalService struct {
	svc            retrievalUseCase
	excludeUndated bool
}

// Search returns corpus entries similar to the query, ordered by
// credibility, then similarity.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts *SearchOptions,
) ([]SearchResult, error) {
	o, err := s.toInternalOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results, err := s.svc.Search(ctx, query, o)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResults(results), nil
}

// SearchRanked returns corpus entries ordered by the composite score
// blending similarity, credibility and recency.
func (s *RetrievalService) SearchRanked(
	ctx context.Context, query string, opts *SearchOptions,
) ([]SearchResult, error) {
	o, err := s.toInternalOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("search ranked: %w", err)
	}
	results, err := s.svc.SearchRanked(ctx, query, o)
	if err != nil {
		return nil, fmt.Errorf("search ranked: %w", err)
	}
	return fromResults(results), nil
}

// MultiSearch runs every query variant and merges the results, dropping
// duplicate entries and re-sorting by score.
func (s *RetrievalService) MultiSearch(
	ctx context.Context, variants []string, opts *SearchOptions,
) ([]SearchResult, error) {
	o, err := s.toInternalOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("multi search: %w", err)
	}
	results, err := s.svc.MultiSearch(ctx, variants, o)
	if err != nil {
		return nil, fmt.Errorf("multi search: %w", err)
	}
	return fromResults(results), nil
}

func (s *RetrievalService) toInternalOptions(opts *SearchOptions) (domret.Options, error) {
	p := domret.Params{ExcludeUndated: s.excludeUndated}
	if opts != nil {
		p = domret.Params{
			Domains:        opts.Domains,
			MinCredibility: opts.MinCredibility,
			MinSimilarity:  opts.MinSimilarity,
			Limit:          opts.Limit,
			RecencyWeight:  opts.RecencyWeight,
			ExcludeUndated: opts.ExcludeUndated || s.excludeUndated,
		}
	}
	return domret.NewOptions(p)
}

func fromResults(results []domret.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i := range results {
		out[i] = fromResult(&results[i])
	}
	return out
}

func fromResult(r *domret.Result) SearchResult {
	entry := r.Entry()
	return SearchResult{
		ID:               entry.ID(),
		Content:          entry.Content(),
		Domain:           entry.Domain(),
		CredibilityScore: entry.CredibilityScore(),
		PublicationDate:  entry.PublicationDate(),
		Tags:             entry.Tags(),
		Foundational:     entry.IsFoundational(),
		Score:            r.Score(),
		Rank:             r.Rank(),
	}
}
