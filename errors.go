package currdex

import "github.com/curricula-cloud/currdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrAlreadyExists          = domain.ErrAlreadyExists
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrInvalidEntry           = domain.ErrInvalidEntry
	ErrInvalidProgram         = domain.ErrInvalidProgram
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRetrievalFailed        = domain.ErrRetrievalFailed
	ErrBenchmarkFailed        = domain.ErrBenchmarkFailed
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
