package currdex

import (
	"context"

	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
	healthuc "github.com/curricula-cloud/currdex/internal/usecase/health"
)

// --- retrievalUseCase mock ---

type mockRetrievalUC struct {
	searchFn       func(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error)
	searchRankedFn func(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error)
	multiSearchFn  func(ctx context.Context, variants []string, opts domret.Options) ([]domret.Result, error)
}

func (m *mockRetrievalUC) Search(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error) {
	return m.searchFn(ctx, query, opts)
}

func (m *mockRetrievalUC) SearchRanked(ctx context.Context, query string, opts domret.Options) ([]domret.Result, error) {
	return m.searchRankedFn(ctx, query, opts)
}

func (m *mockRetrievalUC) MultiSearch(ctx context.Context, variants []string, opts domret.Options) ([]domret.Result, error) {
	return m.multiSearchFn(ctx, variants, opts)
}

// --- benchmarkUseCase mock ---

type mockBenchmarkUC struct {
	extractFn func(units []dombench.Unit) []string
	compareFn func(
		ctx context.Context, programID string,
		topics []string, units []dombench.Unit, competitors []dombench.Program,
	) (dombench.Report, error)
}

func (m *mockBenchmarkUC) ExtractTopics(units []dombench.Unit) []string {
	return m.extractFn(units)
}

func (m *mockBenchmarkUC) Compare(
	ctx context.Context, programID string,
	topics []string, units []dombench.Unit, competitors []dombench.Program,
) (dombench.Report, error) {
	return m.compareFn(ctx, programID, topics, units, competitors)
}

// --- corpusUseCase mock ---

type mockCorpusUC struct {
	ingestFn       func(ctx context.Context, drafts []corpusuc.Draft) []dombatch.Result
	deleteFn       func(ctx context.Context, ids []string) (int, error)
	deleteDomainFn func(ctx context.Context, dom string) (int, error)
	statsFn        func(ctx context.Context) (corpusuc.Stats, error)
}

func (m *mockCorpusUC) Ingest(ctx context.Context, drafts []corpusuc.Draft) []dombatch.Result {
	return m.ingestFn(ctx, drafts)
}

func (m *mockCorpusUC) Delete(ctx context.Context, ids []string) (int, error) {
	return m.deleteFn(ctx, ids)
}

func (m *mockCorpusUC) DeleteDomain(ctx context.Context, dom string) (int, error) {
	return m.deleteDomainFn(ctx, dom)
}

func (m *mockCorpusUC) Stats(ctx context.Context) (corpusuc.Stats, error) {
	return m.statsFn(ctx)
}

// --- competitorUseCase mock ---

type mockCompetitorUC struct {
	importFn func(
		ctx context.Context, institution, programName, level string,
		topics []dombench.CompetitorTopic, structure dombench.Structure,
	) (dombench.Program, error)
	listFn   func(ctx context.Context) ([]dombench.Program, error)
	getFn    func(ctx context.Context, id string) (dombench.Program, error)
	deleteFn func(ctx context.Context, id string) error
	countFn  func(ctx context.Context) (int, error)
}

func (m *mockCompetitorUC) Import(
	ctx context.Context, institution, programName, level string,
	topics []dombench.CompetitorTopic, structure dombench.Structure,
) (dombench.Program, error) {
	return m.importFn(ctx, institution, programName, level, topics, structure)
}

func (m *mockCompetitorUC) List(ctx context.Context) ([]dombench.Program, error) {
	return m.listFn(ctx)
}

func (m *mockCompetitorUC) Get(ctx context.Context, id string) (dombench.Program, error) {
	return m.getFn(ctx, id)
}

func (m *mockCompetitorUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockCompetitorUC) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- public Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// --- helpers ---

func testClient(
	retrievalSvc retrievalUseCase,
	benchmarkSvc benchmarkUseCase,
	corpusSvc corpusUseCase,
	competitorSvc competitorUseCase,
) *Client {
	return &Client{
		retrievalSvc:  retrievalSvc,
		benchmarkSvc:  benchmarkSvc,
		corpusSvc:     corpusSvc,
		competitorSvc: competitorSvc,
	}
}
