// Package corpus manages the embedded corpus lifecycle: ingestion with batch
// vectorization, deletion by id or domain, and stats. Every corpus write
// goes through here; the retrieval engine only reads.
package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/curricula-cloud/currdex/internal/domain"
	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	domcorpus "github.com/curricula-cloud/currdex/internal/domain/corpus"
)

// MaxBatchSize is the maximum number of drafts per ingestion request.
const MaxBatchSize = 100

// Draft is one unvalidated ingestion item. Validation happens inside Ingest
// so a bad draft fails alone instead of rejecting the whole batch.
type Draft struct {
	ID               string
	Content          string
	Domain           string
	CredibilityScore int
	PublicationDate  *time.Time
	Tags             []string
	Foundational     bool
}

// Stats summarizes the stored corpus.
type Stats struct {
	EntryCount int
	Domains    []string
}

// Service handles corpus mutations with per-item error reporting.
type Service struct {
	store        CorpusStore
	embed        Embedder
	maxBatchSize int
}

// New creates a corpus service.
func New(store CorpusStore, embed Embedder) *Service {
	return &Service{store: store, embed: embed, maxBatchSize: MaxBatchSize}
}

// WithMaxBatchSize configures the maximum ingestion batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Ingest validates, vectorizes and stores drafts, reporting one outcome per
// draft. Validation failures are per-item; an embedding or storage failure
// fails every draft that passed validation, since the batch shares one
// provider call and one pipelined write.
func (s *Service) Ingest(ctx context.Context, drafts []Draft) []dombatch.Result {
	results := make([]dombatch.Result, len(drafts))

	if len(drafts) > s.maxBatchSize {
		for i, d := range drafts {
			results[i] = dombatch.NewError(
				d.ID,
				fmt.Errorf("%w: batch size exceeds %d", domain.ErrInvalidEntry, s.maxBatchSize),
			)
		}
		return results
	}

	valid := make([]domcorpus.Entry, 0, len(drafts))
	validIdx := make([]int, 0, len(drafts))
	for i, d := range drafts {
		entry, err := domcorpus.New(
			d.ID, d.Content, d.Domain, d.CredibilityScore,
			d.PublicationDate, d.Tags, d.Foundational,
		)
		if err != nil {
			results[i] = dombatch.NewError(d.ID, fmt.Errorf("%w: %w", domain.ErrInvalidEntry, err))
			continue
		}
		valid = append(valid, entry)
		validIdx = append(validIdx, i)
	}
	if len(valid) == 0 {
		return results
	}

	texts := make([]string, len(valid))
	for i := range valid {
		texts[i] = valid[i].Content()
	}
	embRes, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		s.failValidated(results, drafts, validIdx, fmt.Errorf("vectorize: %w", err))
		return results
	}
	domain.UsageFromContext(ctx).AddTokens(embRes.TotalTokens)

	if len(embRes.Embeddings) != len(valid) {
		s.failValidated(results, drafts, validIdx, fmt.Errorf(
			"vectorize: expected %d embeddings, got %d: %w",
			len(valid), len(embRes.Embeddings), domain.ErrEmbeddingProviderError,
		))
		return results
	}

	entries := make([]domcorpus.Entry, len(valid))
	for i := range valid {
		entries[i] = valid[i].WithVector(embRes.Embeddings[i])
	}
	if err := s.store.Insert(ctx, entries); err != nil {
		s.failValidated(results, drafts, validIdx, fmt.Errorf("store entries: %w", err))
		return results
	}

	for _, i := range validIdx {
		results[i] = dombatch.NewOK(drafts[i].ID)
	}
	return results
}

func (s *Service) failValidated(results []dombatch.Result, drafts []Draft, validIdx []int, err error) {
	for _, i := range validIdx {
		results[i] = dombatch.NewError(drafts[i].ID, err)
	}
}

// Delete removes entries by id and reports how many existed.
func (s *Service) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return deleted, nil
}

// DeleteDomain removes every entry tagged with the given domain.
func (s *Service) DeleteDomain(ctx context.Context, dom string) (int, error) {
	if dom == "" {
		return 0, fmt.Errorf("%w: domain is required", domain.ErrInvalidQuery)
	}
	deleted, err := s.store.DeleteByDomain(ctx, dom)
	if err != nil {
		return 0, fmt.Errorf("delete domain %s: %w", dom, err)
	}
	return deleted, nil
}

// Stats reports corpus size and the distinct domains present.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count entries: %w", err)
	}
	domains, err := s.store.Domains(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list domains: %w", err)
	}
	return Stats{EntryCount: count, Domains: domains}, nil
}
