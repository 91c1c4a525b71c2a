package corpus

import (
	"context"

	"github.com/curricula-cloud/currdex/internal/domain"
	domcorpus "github.com/curricula-cloud/currdex/internal/domain/corpus"
)

// CorpusStore writes and maintains corpus entries.
type CorpusStore interface {
	Insert(ctx context.Context, entries []domcorpus.Entry) error
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
	DeleteByDomain(ctx context.Context, dom string) (int, error)
	Count(ctx context.Context) (int, error)
	Domains(ctx context.Context) ([]string, error)
}

// Embedder vectorizes draft contents in batch.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
