package rescache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/db"
	"github.com/curricula-cloud/currdex/internal/domain/corpus"
	"github.com/curricula-cloud/currdex/internal/domain/retrieval"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setTTLFn != nil {
		return m.setTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCache(t *testing.T) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(ms, 5*time.Minute, nil, zap.NewNop()), ms
}

func testResults(t *testing.T) []retrieval.Result {
	t.Helper()
	published := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := corpus.Reconstruct("res-a", "Intro to neural networks", "cs", 90, &published, []string{"ml"}, false, nil)
	b := corpus.Reconstruct("res-b", "Linear models survey", "cs", 75, nil, nil, true, nil)
	return []retrieval.Result{
		retrieval.NewResult(a, 0.91, 1),
		retrieval.NewResult(b, 0.84, 2),
	}
}

func defaultOptions(t *testing.T) retrieval.Options {
	t.Helper()
	opts, err := retrieval.NewOptions(retrieval.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return opts
}
