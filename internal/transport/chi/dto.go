package chi

import (
	"time"

	dombatch "github.com/curricula-cloud/currdex/internal/domain/batch"
	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
	domret "github.com/curricula-cloud/currdex/internal/domain/retrieval"
	corpusuc "github.com/curricula-cloud/currdex/internal/usecase/corpus"
	healthuc "github.com/curricula-cloud/currdex/internal/usecase/health"
)

// Error codes returned in JSON error payloads.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeUnauthorized           = "unauthorized"
	codeInvalidQuery           = "invalid_query"
	codeInvalidEntry           = "invalid_entry"
	codeInvalidProgram         = "invalid_program"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeNotFound               = "not_found"
	codeAlreadyExists          = "already_exists"
	codeRateLimited            = "rate_limited"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

// errorPayload is the JSON error body.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Search ---

// searchOptions carries the optional retrieval knobs of a search request.
// Absent pointer fields take the engine defaults.
type searchOptions struct {
	Domains        []string `json:"domains,omitempty"`
	MinCredibility int      `json:"min_credibility,omitempty"`
	MinSimilarity  *float64 `json:"min_similarity,omitempty"`
	Limit          *int     `json:"limit,omitempty"`
	RecencyWeight  *float64 `json:"recency_weight,omitempty"`
	ExcludeUndated bool     `json:"exclude_undated,omitempty"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Ranked  bool           `json:"ranked,omitempty"`
	Options *searchOptions `json:"options,omitempty"`
}

type multiSearchRequest struct {
	Variants []string       `json:"variants"`
	Options  *searchOptions `json:"options,omitempty"`
}

type searchResultItem struct {
	ID               string     `json:"id"`
	Content          string     `json:"content"`
	Domain           string     `json:"domain,omitempty"`
	CredibilityScore int        `json:"credibility_score"`
	PublicationDate  *time.Time `json:"publication_date,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Foundational     bool       `json:"foundational,omitempty"`
	Score            float64    `json:"score"`
	Rank             int        `json:"rank"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

// optionsFromDTO builds domain options from the request payload.
// excludeUndated is the server-wide admission policy; a request can
// tighten it but not relax it.
func optionsFromDTO(o *searchOptions, excludeUndated bool) (domret.Options, error) {
	p := domret.Params{ExcludeUndated: excludeUndated}
	if o != nil {
		p = domret.Params{
			Domains:        o.Domains,
			MinCredibility: o.MinCredibility,
			MinSimilarity:  o.MinSimilarity,
			Limit:          o.Limit,
			RecencyWeight:  o.RecencyWeight,
			ExcludeUndated: o.ExcludeUndated || excludeUndated,
		}
	}
	return domret.NewOptions(p)
}

func searchResponseFromResults(results []domret.Result) searchResponse {
	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i])
	}
	return searchResponse{Items: items, Total: len(items)}
}

func searchResultToDTO(r *domret.Result) searchResultItem {
	entry := r.Entry()
	return searchResultItem{
		ID:               entry.ID(),
		Content:          entry.Content(),
		Domain:           entry.Domain(),
		CredibilityScore: entry.CredibilityScore(),
		PublicationDate:  entry.PublicationDate(),
		Tags:             entry.Tags(),
		Foundational:     entry.IsFoundational(),
		Score:            r.Score(),
		Rank:             r.Rank(),
	}
}

// --- Benchmark ---

type benchmarkUnit struct {
	Title             string   `json:"title"`
	IndicativeContent string   `json:"indicative_content,omitempty"`
	Hours             float64  `json:"hours,omitempty"`
	AssessmentMethods []string `json:"assessment_methods,omitempty"`
}

type benchmarkRequest struct {
	ProgramID     string          `json:"program_id"`
	Units         []benchmarkUnit `json:"units"`
	CompetitorIDs []string        `json:"competitor_ids,omitempty"`
}

type comparisonDTO struct {
	InstitutionName     string  `json:"institution_name"`
	ProgramName         string  `json:"program_name"`
	SimilarityScore     int     `json:"similarity_score"`
	TopicCoverage       float64 `json:"topic_coverage"`
	AssessmentAlignment float64 `json:"assessment_alignment"`
	StructureAlignment  float64 `json:"structure_alignment"`
}

type gapDTO struct {
	Type                  string `json:"type"`
	Description           string `json:"description"`
	CompetitorInstitution string `json:"competitor_institution"`
	Severity              string `json:"severity"`
	Recommendation        string `json:"recommendation"`
}

type strengthDTO struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Advantage   string `json:"advantage"`
}

type benchmarkResponse struct {
	ProgramID         string          `json:"program_id"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Comparisons       []comparisonDTO `json:"comparisons"`
	OverallSimilarity int             `json:"overall_similarity"`
	Gaps              []gapDTO        `json:"gaps"`
	Strengths         []strengthDTO   `json:"strengths"`
	Recommendations   []string        `json:"recommendations"`
	Summary           string          `json:"summary"`
}

func unitsFromDTO(units []benchmarkUnit) []dombench.Unit {
	out := make([]dombench.Unit, len(units))
	for i, u := range units {
		out[i] = dombench.Unit{
			Title:             u.Title,
			IndicativeContent: u.IndicativeContent,
			Hours:             u.Hours,
			AssessmentMethods: u.AssessmentMethods,
		}
	}
	return out
}

func reportToDTO(rep dombench.Report) benchmarkResponse {
	comparisons := make([]comparisonDTO, len(rep.Comparisons))
	for i, c := range rep.Comparisons {
		comparisons[i] = comparisonDTO{
			InstitutionName:     c.InstitutionName,
			ProgramName:         c.ProgramName,
			SimilarityScore:     c.SimilarityScore,
			TopicCoverage:       c.TopicCoverage,
			AssessmentAlignment: c.AssessmentAlignment,
			StructureAlignment:  c.StructureAlignment,
		}
	}

	gaps := make([]gapDTO, len(rep.Gaps))
	for i, g := range rep.Gaps {
		gaps[i] = gapDTO{
			Type:                  string(g.Type),
			Description:           g.Description,
			CompetitorInstitution: g.CompetitorInstitution,
			Severity:              string(g.Severity),
			Recommendation:        g.Recommendation,
		}
	}

	strengths := make([]strengthDTO, len(rep.Strengths))
	for i, st := range rep.Strengths {
		strengths[i] = strengthDTO{
			Type:        string(st.Type),
			Description: st.Description,
			Advantage:   st.Advantage,
		}
	}

	recommendations := rep.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return benchmarkResponse{
		ProgramID:         rep.ProgramID,
		GeneratedAt:       rep.GeneratedAt,
		Comparisons:       comparisons,
		OverallSimilarity: rep.OverallSimilarity,
		Gaps:              gaps,
		Strengths:         strengths,
		Recommendations:   recommendations,
		Summary:           rep.Summary,
	}
}

// --- Corpus ---

type corpusDocument struct {
	ID               string     `json:"id"`
	Content          string     `json:"content"`
	Domain           string     `json:"domain,omitempty"`
	CredibilityScore int        `json:"credibility_score"`
	PublicationDate  *time.Time `json:"publication_date,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Foundational     bool       `json:"foundational,omitempty"`
}

type ingestRequest struct {
	Documents []corpusDocument `json:"documents"`
}

type batchResultItem struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	Error  *errorPayload `json:"error,omitempty"`
}

type ingestResponse struct {
	Items     []batchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type corpusDeleteRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Domain string   `json:"domain,omitempty"`
}

type corpusDeleteResponse struct {
	Deleted int `json:"deleted"`
}

type corpusStatsResponse struct {
	EntryCount         int      `json:"entry_count"`
	Domains            []string `json:"domains"`
	CompetitorPrograms int      `json:"competitor_programs"`
}

func draftsFromDTO(docs []corpusDocument) []corpusuc.Draft {
	drafts := make([]corpusuc.Draft, len(docs))
	for i, d := range docs {
		drafts[i] = corpusuc.Draft{
			ID:               d.ID,
			Content:          d.Content,
			Domain:           d.Domain,
			CredibilityScore: d.CredibilityScore,
			PublicationDate:  d.PublicationDate,
			Tags:             d.Tags,
			Foundational:     d.Foundational,
		}
	}
	return drafts
}

func batchResultToDTO(r dombatch.Result) batchResultItem {
	item := batchResultItem{ID: r.ID(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = &errorPayload{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}

// --- Competitors ---

type programStructure struct {
	TotalHours      float64  `json:"total_hours,omitempty"`
	ModuleCount     int      `json:"module_count,omitempty"`
	AssessmentTypes []string `json:"assessment_types,omitempty"`
	DeliveryMethods []string `json:"delivery_methods,omitempty"`
}

type importCompetitorRequest struct {
	Institution string                     `json:"institution"`
	ProgramName string                     `json:"program_name"`
	Level       string                     `json:"level,omitempty"`
	Topics      []dombench.CompetitorTopic `json:"topics"`
	Structure   *programStructure          `json:"structure,omitempty"`
}

type competitorResponse struct {
	ID          string                     `json:"id"`
	Institution string                     `json:"institution"`
	ProgramName string                     `json:"program_name"`
	Level       string                     `json:"level,omitempty"`
	Topics      []dombench.CompetitorTopic `json:"topics"`
	Structure   programStructure           `json:"structure"`
}

type competitorListResponse struct {
	Items []competitorResponse `json:"items"`
	Total int                  `json:"total"`
}

func structureFromDTO(st *programStructure) dombench.Structure {
	if st == nil {
		return dombench.Structure{}
	}
	return dombench.Structure{
		TotalHours:      st.TotalHours,
		ModuleCount:     st.ModuleCount,
		AssessmentTypes: st.AssessmentTypes,
		DeliveryMethods: st.DeliveryMethods,
	}
}

func competitorToDTO(p *dombench.Program) competitorResponse {
	st := p.Structure()
	return competitorResponse{
		ID:          p.ID(),
		Institution: p.InstitutionName(),
		ProgramName: p.ProgramName(),
		Level:       p.Level(),
		Topics:      p.Topics(),
		Structure: programStructure{
			TotalHours:      st.TotalHours,
			ModuleCount:     st.ModuleCount,
			AssessmentTypes: st.AssessmentTypes,
			DeliveryMethods: st.DeliveryMethods,
		},
	}
}

// --- Health ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthToDTO(rep healthuc.Report) healthResponse {
	checks := make(map[string]string, len(rep.Checks))
	for k, v := range rep.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(rep.Status), Checks: checks}
}
