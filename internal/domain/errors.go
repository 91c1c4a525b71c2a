package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidQuery signals malformed retrieval options, rejected before any external call.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidEntry signals a corpus entry that fails validation.
	ErrInvalidEntry = errors.New("invalid corpus entry")
	// ErrInvalidProgram signals a competitor program that fails validation.
	ErrInvalidProgram = errors.New("invalid competitor program")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRetrievalFailed signals that a search could not complete; the cause is wrapped.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrBenchmarkFailed signals that a curriculum comparison could not complete; the cause is wrapped.
	ErrBenchmarkFailed = errors.New("benchmark failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimensionError wraps ErrVectorDimMismatch with both lengths.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %d vs %d", ErrVectorDimMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionError creates a dimension mismatch error carrying both vector lengths.
func NewDimensionError(want, got int) error {
	return &DimensionError{Want: want, Got: got}
}
