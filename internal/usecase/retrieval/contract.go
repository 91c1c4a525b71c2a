package retrieval

import (
	"context"

	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/corpus"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
)

// CorpusReader loads filtered corpus entries for scoring. The retrieval
// engine never writes to the corpus.
type CorpusReader interface {
	Query(ctx context.Context, f corpus.Filter) ([]corpus.Entry, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResponseCache stores finished result lists keyed by operation, query text
// and options. Absence of a hit never changes results, only latency.
type ResponseCache interface {
	Get(ctx context.Context, op, text string, opts domret.Options) ([]domret.Result, bool)
	Put(ctx context.Context, op, text string, opts domret.Options, results []domret.Result)
}
