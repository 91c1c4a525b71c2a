package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/curricula-cloud/currdex/internal/domain"
	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	domcorpus "github.com/curricula-cloud/currdex/internal/domain/corpus"
)

// --- Mocks ---

type mockStore struct {
	inserted      []domcorpus.Entry
	insertErr     error
	deleteCount   int
	deleteErr     error
	deletedIDs    []string
	deletedDomain string
	count         int
	countErr      error
	domains       []string
	domainsErr    error
}

func (m *mockStore) Insert(_ context.Context, entries []domcorpus.Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, entries...)
	return nil
}

func (m *mockStore) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	m.deletedIDs = ids
	return m.deleteCount, m.deleteErr
}

func (m *mockStore) DeleteByDomain(_ context.Context, dom string) (int, error) {
	m.deletedDomain = dom
	return m.deleteCount, m.deleteErr
}

func (m *mockStore) Count(_ context.Context) (int, error) { return m.count, m.countErr }

func (m *mockStore) Domains(_ context.Context) ([]string, error) { return m.domains, m.domainsErr }

type mockBatchEmbedder struct {
	embeddings [][]float32
	tokens     int
	err        error
	calls      int
	lastTexts  []string
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	m.lastTexts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := m.embeddings
	if embeddings == nil {
		embeddings = make([][]float32, len(texts))
		for i := range embeddings {
			embeddings[i] = []float32{float32(i), 1}
		}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: m.tokens}, nil
}

// --- Fixtures ---

func validDraft(id string) Draft {
	return Draft{
		ID:               id,
		Content:          "lecture notes on " + id,
		Domain:           "computer-science",
		CredibilityScore: 70,
	}
}

func assertAllOK(t *testing.T, results []dombatch.Result) {
	t.Helper()
	for i, r := range results {
		if r.Status() != dombatch.StatusOK {
			t.Fatalf("result %d (%s): expected ok, got %s: %v", i, r.ID(), r.Status(), r.Err())
		}
	}
}

// --- Ingest ---

func TestIngest_VectorizesAndStores(t *testing.T) {
	store := &mockStore{}
	embed := &mockBatchEmbedder{tokens: 9}
	svc := New(store, embed)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	results := svc.Ingest(ctx, []Draft{validDraft("sicp"), validDraft("taocp")})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	assertAllOK(t, results)
	if results[0].ID() != "sicp" || results[1].ID() != "taocp" {
		t.Errorf("result ids out of order: %s, %s", results[0].ID(), results[1].ID())
	}
	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 stored entries, got %d", len(store.inserted))
	}
	for i := range store.inserted {
		if len(store.inserted[i].Vector()) == 0 {
			t.Errorf("entry %d stored without a vector", i)
		}
	}
	if embed.calls != 1 {
		t.Errorf("expected a single batch embed call, got %d", embed.calls)
	}
	if usage.TotalTokens() != 9 {
		t.Errorf("expected 9 tokens recorded, got %d", usage.TotalTokens())
	}
}

func TestIngest_InvalidDraftFailsAlone(t *testing.T) {
	store := &mockStore{}
	embed := &mockBatchEmbedder{}
	svc := New(store, embed)

	bad := validDraft("empty-content")
	bad.Content = ""
	results := svc.Ingest(context.Background(), []Draft{validDraft("a"), bad, validDraft("b")})

	if results[0].Status() != dombatch.StatusOK || results[2].Status() != dombatch.StatusOK {
		t.Errorf("valid drafts must succeed: %v / %v", results[0].Err(), results[2].Err())
	}
	if results[1].Status() != dombatch.StatusError {
		t.Fatal("expected the invalid draft to fail")
	}
	if !errors.Is(results[1].Err(), domain.ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", results[1].Err())
	}
	if len(embed.lastTexts) != 2 {
		t.Errorf("expected only valid contents to be embedded, got %d", len(embed.lastTexts))
	}
	if len(store.inserted) != 2 {
		t.Errorf("expected 2 stored entries, got %d", len(store.inserted))
	}
}

func TestIngest_EmbedFailureFailsAllValidated(t *testing.T) {
	store := &mockStore{}
	embed := &mockBatchEmbedder{err: domain.ErrRateLimited}
	svc := New(store, embed)

	bad := validDraft("bad")
	bad.CredibilityScore = 200
	results := svc.Ingest(context.Background(), []Draft{validDraft("a"), bad})

	if !errors.Is(results[0].Err(), domain.ErrRateLimited) {
		t.Errorf("expected rate limit error on validated draft, got %v", results[0].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrInvalidEntry) {
		t.Errorf("invalid draft must keep its validation error, got %v", results[1].Err())
	}
	if len(store.inserted) != 0 {
		t.Errorf("nothing should be stored after embed failure, got %d", len(store.inserted))
	}
}

func TestIngest_EmbeddingCountMismatch(t *testing.T) {
	store := &mockStore{}
	embed := &mockBatchEmbedder{embeddings: [][]float32{{1, 0}}}
	svc := New(store, embed)

	results := svc.Ingest(context.Background(), []Draft{validDraft("a"), validDraft("b")})
	for i, r := range results {
		if !errors.Is(r.Err(), domain.ErrEmbeddingProviderError) {
			t.Errorf("result %d: expected provider error, got %v", i, r.Err())
		}
	}
	if len(store.inserted) != 0 {
		t.Errorf("nothing should be stored on a count mismatch, got %d", len(store.inserted))
	}
}

func TestIngest_StoreFailureFailsAllValidated(t *testing.T) {
	store := &mockStore{insertErr: errors.New("connection reset")}
	svc := New(store, &mockBatchEmbedder{})

	results := svc.Ingest(context.Background(), []Draft{validDraft("a")})
	if results[0].Status() != dombatch.StatusError {
		t.Fatal("expected store failure to surface per item")
	}
}

func TestIngest_BatchSizeExceeded(t *testing.T) {
	embed := &mockBatchEmbedder{}
	svc := New(&mockStore{}, embed).WithMaxBatchSize(2)

	results := svc.Ingest(context.Background(), []Draft{validDraft("a"), validDraft("b"), validDraft("c")})
	for i, r := range results {
		if !errors.Is(r.Err(), domain.ErrInvalidEntry) {
			t.Errorf("result %d: expected ErrInvalidEntry, got %v", i, r.Err())
		}
	}
	if embed.calls != 0 {
		t.Errorf("oversized batch must not reach the embedder, got %d calls", embed.calls)
	}
}

func TestIngest_Empty(t *testing.T) {
	embed := &mockBatchEmbedder{}
	svc := New(&mockStore{}, embed)

	results := svc.Ingest(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if embed.calls != 0 {
		t.Errorf("empty batch must not reach the embedder")
	}
}

// --- Delete / DeleteDomain / Stats ---

func TestDelete(t *testing.T) {
	store := &mockStore{deleteCount: 2}
	svc := New(store, &mockBatchEmbedder{})

	deleted, err := svc.Delete(context.Background(), []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if len(store.deletedIDs) != 3 {
		t.Errorf("expected all ids forwarded, got %v", store.deletedIDs)
	}
}

func TestDelete_EmptyIDsSkipsStore(t *testing.T) {
	store := &mockStore{}
	svc := New(store, &mockBatchEmbedder{})

	deleted, err := svc.Delete(context.Background(), nil)
	if err != nil || deleted != 0 {
		t.Fatalf("expected 0, nil for empty ids, got %d, %v", deleted, err)
	}
	if store.deletedIDs != nil {
		t.Error("store must not be called for empty ids")
	}
}

func TestDeleteDomain(t *testing.T) {
	store := &mockStore{deleteCount: 4}
	svc := New(store, &mockBatchEmbedder{})

	deleted, err := svc.DeleteDomain(context.Background(), "mathematics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 4 || store.deletedDomain != "mathematics" {
		t.Errorf("expected 4 deleted from mathematics, got %d from %q", deleted, store.deletedDomain)
	}
}

func TestDeleteDomain_Empty(t *testing.T) {
	svc := New(&mockStore{}, &mockBatchEmbedder{})

	_, err := svc.DeleteDomain(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestStats(t *testing.T) {
	store := &mockStore{count: 42, domains: []string{"computer-science", "mathematics"}}
	svc := New(store, &mockBatchEmbedder{})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.EntryCount != 42 {
		t.Errorf("expected 42 entries, got %d", stats.EntryCount)
	}
	if len(stats.Domains) != 2 {
		t.Errorf("expected 2 domains, got %v", stats.Domains)
	}
}

func TestStats_CountError(t *testing.T) {
	store := &mockStore{countErr: errors.New("scan failed")}
	svc := New(store, &mockBatchEmbedder{})

	if _, err := svc.Stats(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}
