package currdex

import (
	"context"
	"fmt"

	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
)

// CorpusService manages the embedded corpus.
type CorpusService struct {
	svc corpusUseCase
}

// Ingest vectorizes and stores documents, reporting one outcome per
// document. A bad document fails alone; the rest of the batch proceeds.
func (s *CorpusService) Ingest(ctx context.Context, docs []CorpusDocument) []BatchResult {
	drafts := make([]corpusuc.Draft, len(docs))
	for i, d := range docs {
		drafts[i] = corpusuc.Draft{
			ID:               d.ID,
			Content:          d.Content,
			Domain:           d.Domain,
			CredibilityScore: d.CredibilityScore,
			PublicationDate:  d.PublicationDate,
			Tags:             d.Tags,
			Foundational:     d.Foundational,
		}
	}
	return fromBatchResults(s.svc.Ingest(ctx, drafts))
}

// Delete removes documents by id and reports how many existed.
func (s *CorpusService) Delete(ctx context.Context, ids []string) (int, error) {
	n, err := s.svc.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// DeleteDomain removes every document of one knowledge domain.
func (s *CorpusService) DeleteDomain(ctx context.Context, domain string) (int, error) {
	n, err := s.svc.DeleteDomain(ctx, domain)
	if err != nil {
		return 0, fmt.Errorf("delete domain: %w", err)
	}
	return n, nil
}

// Stats returns corpus size and the set of stored domains.
func (s *CorpusService) Stats(ctx context.Context) (CorpusStats, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("stats: %w", err)
	}
	return CorpusStats{
		EntryCount: stats.EntryCount,
		Domains:    stats.Domains,
	}, nil
}

func fromBatchResults(results []dombatch.Result) []BatchResult {
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{
			ID:  r.ID(),
			OK:  r.Status() == dombatch.StatusOK,
			Err: r.Err(),
		}
	}
	return out
}
