package retrieval

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/corpus"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
)

// --- Mocks ---

// Mocks are mutex-guarded because MultiSearch calls them from goroutines.

type mockRepo struct {
	mu         sync.Mutex
	entries    []corpus.Entry
	err        error
	calls      int
	lastFilter corpus.Filter
}

func (m *mockRepo) Query(_ context.Context, f corpus.Filter) ([]corpus.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastFilter = f
	return m.entries, m.err
}

type mockEmbedder struct {
	mu     sync.Mutex
	vec    []float32
	vecs   map[string][]float32
	errFor map[string]error
	err    error
	tokens int
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if err, ok := m.errFor[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	v := m.vec
	if mv, ok := m.vecs[text]; ok {
		v = mv
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: m.tokens}, nil
}

type mockCache struct {
	mu     sync.Mutex
	stored map[string][]domret.Result
	getOps []string
	putOps []string
}

func (m *mockCache) Get(_ context.Context, op, text string, _ domret.Options) ([]domret.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOps = append(m.getOps, op)
	rs, ok := m.stored[op+"|"+text]
	return rs, ok
}

func (m *mockCache) Put(_ context.Context, op, text string, _ domret.Options, results []domret.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putOps = append(m.putOps, op)
	if m.stored == nil {
		m.stored = map[string][]domret.Result{}
	}
	m.stored[op+"|"+text] = results
}

// --- Fixtures ---

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func yearsAgo(n float64) *time.Time {
	t := testNow.Add(-time.Duration(n * 365.25 * 24 * float64(time.Hour)))
	return &t
}

// simVec returns a unit vector whose cosine against the query axis [1, 0]
// is approximately c.
func simVec(c float64) []float32 {
	s := math.Sqrt(1 - c*c)
	return []float32{float32(c), float32(s)}
}

var queryVec = []float32{1, 0}

func testEntry(id string, cred int, sim float64, published *time.Time, foundational bool) corpus.Entry {
	return corpus.Reconstruct(
		id, "reading on "+id, "computer-science", cred,
		published, nil, foundational, simVec(sim),
	)
}

func newTestService(repo *mockRepo, embed *mockEmbedder) *Service {
	svc := New(repo, embed, nil, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func testOptions(t *testing.T, p domret.Params) domret.Options {
	t.Helper()
	o, err := domret.NewOptions(p)
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	return o
}

func resultIDs(rs []domret.Result) []string {
	ids := make([]string, len(rs))
	for i := range rs {
		e := rs[i].Entry()
		ids[i] = e.ID()
	}
	return ids
}

func assertIDs(t *testing.T, rs []domret.Result, want ...string) {
	t.Helper()
	got := resultIDs(rs)
	if len(got) != len(want) {
		t.Fatalf("expected %d results %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result order mismatch: expected %v, got %v", want, got)
		}
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// --- Search ---

func TestSearch_OrdersByCredibilityThenSimilarity(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("raft-thesis", 80, 0.9, nil, false),
		testEntry("paxos-paper", 90, 0.8, nil, false),
		testEntry("tla-primer", 90, 0.85, nil, false),
	}}
	embed := &mockEmbedder{vec: queryVec}
	svc := newTestService(repo, embed)

	results, err := svc.Search(context.Background(), "consensus algorithms", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "tla-primer", "paxos-paper", "raft-thesis")
	for i, r := range results {
		if r.Rank() != i+1 {
			t.Errorf("result %d: expected rank %d, got %d", i, i+1, r.Rank())
		}
	}
	if !approx(results[0].Score(), 0.85) {
		t.Errorf("expected raw similarity as score, got %f", results[0].Score())
	}
}

func TestSearch_AppliesSimilarityFloor(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("close-match", 50, 0.9, nil, false),
		testEntry("weak-match", 50, 0.5, nil, false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	results, err := svc.Search(context.Background(), "stream processing", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "close-match")
}

func TestSearch_PassesFilterToStore(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	opts := testOptions(t, domret.Params{
		Domains:        []string{"databases"},
		MinCredibility: 60,
	})
	if _, err := svc.Search(context.Background(), "b-tree internals", opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.lastFilter.Domains) != 1 || repo.lastFilter.Domains[0] != "databases" {
		t.Errorf("expected domain filter to reach the store, got %v", repo.lastFilter.Domains)
	}
	if repo.lastFilter.MinCredibility != 60 {
		t.Errorf("expected credibility floor 60, got %d", repo.lastFilter.MinCredibility)
	}
}

func TestSearch_RecencyAdmission(t *testing.T) {
	tests := []struct {
		name     string
		entry    corpus.Entry
		exclude  bool
		admitted bool
	}{
		{"recent entry admitted", testEntry("recent", 50, 0.9, yearsAgo(1), false), false, true},
		{"stale entry dropped", testEntry("stale", 50, 0.9, yearsAgo(6), false), false, false},
		{"stale foundational admitted", testEntry("classic", 50, 0.9, yearsAgo(20), true), false, true},
		{"undated admitted by default", testEntry("undated", 50, 0.9, nil, false), false, true},
		{"undated dropped by policy", testEntry("undated", 50, 0.9, nil, false), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{entries: []corpus.Entry{tt.entry}}
			svc := newTestService(repo, &mockEmbedder{vec: queryVec})

			opts := testOptions(t, domret.Params{ExcludeUndated: tt.exclude})
			results, err := svc.Search(context.Background(), "operating systems", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := len(results) == 1; got != tt.admitted {
				t.Errorf("admitted = %v, expected %v", got, tt.admitted)
			}
		})
	}
}

func TestSearch_RecencyBlendResorts(t *testing.T) {
	// Without reweighting the higher-credibility stale classic wins; with
	// recencyWeight 0.5 the undated entry's neutral recency overtakes it.
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("old-classic", 90, 0.9, yearsAgo(10), true),
		testEntry("fresh-survey", 50, 0.8, nil, false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	w := 0.5
	opts := testOptions(t, domret.Params{RecencyWeight: &w})
	results, err := svc.Search(context.Background(), "database indexing", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// old-classic: 0.9*0.5 + 0*0.5 = 0.45; fresh-survey: 0.8*0.5 + 0.5*0.5 = 0.65.
	assertIDs(t, results, "fresh-survey", "old-classic")
	if !approx(results[0].Score(), 0.65) {
		t.Errorf("expected blended score 0.65, got %f", results[0].Score())
	}
	if !approx(results[1].Score(), 0.45) {
		t.Errorf("expected blended score 0.45, got %f", results[1].Score())
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("a", 90, 0.95, nil, false),
		testEntry("b", 80, 0.9, nil, false),
		testEntry("c", 70, 0.85, nil, false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	limit := 2
	opts := testOptions(t, domret.Params{Limit: &limit})
	results, err := svc.Search(context.Background(), "compilers", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "a", "b")
	if results[1].Rank() != 2 {
		t.Errorf("expected rank 2, got %d", results[1].Rank())
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockEmbedder{vec: queryVec})

	results, err := svc.Search(context.Background(), "quantum computing", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearch_InvalidQuery(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: queryVec}
	svc := newTestService(repo, embed)

	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"too long", string(make([]byte, domret.MaxQueryLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.query, testOptions(t, domret.Params{}))
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
	if embed.calls != 0 {
		t.Errorf("embedder called %d times for invalid queries", embed.calls)
	}
	if repo.calls != 0 {
		t.Errorf("store called %d times for invalid queries", repo.calls)
	}
}

func TestSearch_EmbedErrorWrapsRetrievalFailed(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockEmbedder{err: domain.ErrRateLimited})

	_, err := svc.Search(context.Background(), "machine learning", testOptions(t, domret.Params{}))
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected wrapped rate limit cause, got %v", err)
	}
}

func TestSearch_StoreErrorWrapsRetrievalFailed(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	_, err := svc.Search(context.Background(), "networking", testOptions(t, domret.Params{}))
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestSearch_SkipsDimensionMismatch(t *testing.T) {
	mismatched := corpus.Reconstruct(
		"bad-dims", "entry with a stale vector", "computer-science", 50,
		nil, nil, false, []float32{1, 0, 0},
	)
	repo := &mockRepo{entries: []corpus.Entry{
		mismatched,
		testEntry("good-dims", 50, 0.9, nil, false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	results, err := svc.Search(context.Background(), "graph theory", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("expected mismatch to be skipped, got error: %v", err)
	}
	assertIDs(t, results, "good-dims")
}

func TestSearch_RecordsTokenUsage(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{testEntry("a", 50, 0.9, nil, false)}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec, tokens: 7})

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Search(ctx, "type systems", testOptions(t, domret.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens() != 7 {
		t.Errorf("expected 7 tokens recorded, got %d", usage.TotalTokens())
	}
	if !usage.Used() {
		t.Error("expected usage to be marked used")
	}
}

// --- Response cache ---

func TestSearch_CacheHitSkipsPipeline(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: queryVec}
	hit := []domret.Result{domret.NewResult(testEntry("cached", 50, 0.9, nil, false), 0.9, 1)}
	cache := &mockCache{stored: map[string][]domret.Result{"search|sql optimization": hit}}

	svc := New(repo, embed, cache, zap.NewNop())
	results, err := svc.Search(context.Background(), "sql optimization", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "cached")
	if embed.calls != 0 || repo.calls != 0 {
		t.Errorf("cache hit should skip the pipeline: embed=%d store=%d", embed.calls, repo.calls)
	}
}

func TestSearch_CacheMissPopulatesCache(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{testEntry("a", 50, 0.9, nil, false)}}
	cache := &mockCache{}
	svc := New(repo, &mockEmbedder{vec: queryVec}, cache, zap.NewNop())

	if _, err := svc.Search(context.Background(), "caching strategies", testOptions(t, domret.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.putOps) != 1 || cache.putOps[0] != "search" {
		t.Fatalf("expected one put under op search, got %v", cache.putOps)
	}
	stored := cache.stored["search|caching strategies"]
	assertIDs(t, stored, "a")
}

func TestCacheOpsAreDistinct(t *testing.T) {
	// An entry cached for plain search must not serve ranked retrieval.
	repo := &mockRepo{entries: []corpus.Entry{testEntry("a", 50, 0.9, nil, false)}}
	embed := &mockEmbedder{vec: queryVec}
	hit := []domret.Result{domret.NewResult(testEntry("cached", 50, 0.9, nil, false), 0.9, 1)}
	cache := &mockCache{stored: map[string][]domret.Result{"search|functional programming": hit}}

	svc := New(repo, embed, cache, zap.NewNop())
	results, err := svc.SearchRanked(context.Background(), "functional programming", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "a")
	if embed.calls != 1 {
		t.Errorf("expected ranked retrieval to run the pipeline, embed calls = %d", embed.calls)
	}
}

// --- MultiSearch ---

func TestMultiSearch_SingleVariantMatchesSearch(t *testing.T) {
	// With uniform credibility both orderings collapse to similarity desc,
	// so a singleton variant list must reproduce Search exactly.
	entries := []corpus.Entry{
		testEntry("a", 70, 0.95, nil, false),
		testEntry("b", 70, 0.85, nil, false),
		testEntry("c", 70, 0.8, nil, false),
	}
	opts := testOptions(t, domret.Params{})

	single, err := newTestService(&mockRepo{entries: entries}, &mockEmbedder{vec: queryVec}).
		Search(context.Background(), "distributed tracing", opts)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	multi, err := newTestService(&mockRepo{entries: entries}, &mockEmbedder{vec: queryVec}).
		MultiSearch(context.Background(), []string{"distributed tracing"}, opts)
	if err != nil {
		t.Fatalf("multi search: %v", err)
	}

	if len(single) != len(multi) {
		t.Fatalf("expected same result count, got %d vs %d", len(single), len(multi))
	}
	for i := range single {
		se, me := single[i].Entry(), multi[i].Entry()
		if se.ID() != me.ID() || !approx(single[i].Score(), multi[i].Score()) || single[i].Rank() != multi[i].Rank() {
			t.Errorf("result %d differs: %s/%f/%d vs %s/%f/%d",
				i, se.ID(), single[i].Score(), single[i].Rank(), me.ID(), multi[i].Score(), multi[i].Rank())
		}
	}
}

func TestMultiSearch_DeduplicatesAcrossVariants(t *testing.T) {
	// "shared" matches both variants at ~0.707 and must appear exactly once.
	// "x-only" and "y-only" match one variant each with equal scores; the
	// first variant's hit sorts first.
	entries := []corpus.Entry{
		corpus.Reconstruct("x-only", "content", "cs", 50, nil, nil, false, []float32{1, 0}),
		corpus.Reconstruct("y-only", "content", "cs", 50, nil, nil, false, []float32{0, 1}),
		corpus.Reconstruct("shared", "content", "cs", 50, nil, nil, false, simVec(math.Sqrt2 / 2)),
	}
	embed := &mockEmbedder{
		tokens: 5,
		vecs: map[string][]float32{
			"variant one": {1, 0},
			"variant two": {0, 1},
		},
	}
	svc := newTestService(&mockRepo{entries: entries}, embed)

	minSim := 0.5
	opts := testOptions(t, domret.Params{MinSimilarity: &minSim})
	ctx, usage := domain.NewContextWithUsage(context.Background())
	results, err := svc.MultiSearch(ctx, []string{"variant one", "variant two"}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "x-only", "y-only", "shared")
	for i, r := range results {
		if r.Rank() != i+1 {
			t.Errorf("result %d: expected rank %d, got %d", i, i+1, r.Rank())
		}
	}
	if usage.TotalTokens() != 10 {
		t.Errorf("expected usage from both variants (10), got %d", usage.TotalTokens())
	}
}

func TestMultiSearch_VariantFailureFailsAll(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{testEntry("a", 50, 0.9, nil, false)}}
	embed := &mockEmbedder{
		vec:    queryVec,
		errFor: map[string]error{"failing variant": domain.ErrEmbeddingProviderError},
	}
	svc := newTestService(repo, embed)

	results, err := svc.MultiSearch(
		context.Background(),
		[]string{"healthy variant", "failing variant"},
		testOptions(t, domret.Params{}),
	)
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider cause, got %v", err)
	}
	if results != nil {
		t.Errorf("expected no partial results, got %d", len(results))
	}
}

func TestMultiSearch_NoVariants(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockEmbedder{vec: queryVec})

	_, err := svc.MultiSearch(context.Background(), nil, testOptions(t, domret.Params{}))
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestMultiSearch_TruncatesToLimit(t *testing.T) {
	entries := []corpus.Entry{
		testEntry("a", 50, 0.95, nil, false),
		testEntry("b", 50, 0.9, nil, false),
		testEntry("c", 50, 0.85, nil, false),
	}
	svc := newTestService(&mockRepo{entries: entries}, &mockEmbedder{vec: queryVec})

	limit := 2
	opts := testOptions(t, domret.Params{Limit: &limit})
	results, err := svc.MultiSearch(context.Background(), []string{"v1", "v2"}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "a", "b")
}

// --- SearchRanked ---

func TestSearchRanked_OrdersByComposite(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("authoritative", 100, 0.8, nil, false),
		testEntry("fresh-preprint", 55, 0.99, yearsAgo(0), false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	results, err := svc.SearchRanked(context.Background(), "vector databases", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// fresh-preprint: 0.6*0.99 + 0.3*0.55 + 0.1*1.0 = 0.859
	// authoritative:  0.6*0.80 + 0.3*1.00 + 0.1*0.5 = 0.830
	assertIDs(t, results, "fresh-preprint", "authoritative")
	if !approx(results[0].Score(), 0.859) {
		t.Errorf("expected composite 0.859, got %f", results[0].Score())
	}
	if !approx(results[1].Score(), 0.83) {
		t.Errorf("expected composite 0.83, got %f", results[1].Score())
	}
}

func TestSearchRanked_IgnoresRecencyWeight(t *testing.T) {
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("only", 0, 0.9, nil, false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	w := 1.0
	opts := testOptions(t, domret.Params{RecencyWeight: &w})
	results, err := svc.SearchRanked(context.Background(), "information retrieval", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Composite 0.6*0.9 + 0 + 0.1*0.5 = 0.59; a recency blend at weight 1
	// would have produced 0.5 instead.
	if !approx(results[0].Score(), 0.59) {
		t.Errorf("expected composite 0.59, got %f", results[0].Score())
	}
}

func TestSearchRanked_FiltersOnRawSimilarity(t *testing.T) {
	// High credibility and recency cannot rescue an entry below the
	// similarity floor; admission happens before composite scoring.
	repo := &mockRepo{entries: []corpus.Entry{
		testEntry("off-topic", 100, 0.7, yearsAgo(0), false),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: queryVec})

	results, err := svc.SearchRanked(context.Background(), "category theory", testOptions(t, domret.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results below the similarity floor, got %d", len(results))
	}
}
