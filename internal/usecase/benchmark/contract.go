package benchmark

import (
	"context"

	"github.com/curricula-cloud/currdex/internal/domain"
)

// Embedder vectorizes topic text for pairwise comparison.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
