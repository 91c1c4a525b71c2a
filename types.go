package currdex

import "time"

// SearchOptions configures a search. Nil pointer fields take their
// documented defaults; present values are validated strictly.
type SearchOptions struct {
	// Domains restricts results to the given knowledge domains.
	Domains []string
	// MinCredibility drops entries below this credibility score (0-100).
	MinCredibility int
	// MinSimilarity drops entries below this cosine similarity. Default 0.75.
	MinSimilarity *float64
	// Limit caps the number of results. Default 10, maximum 100.
	Limit *int
	// RecencyWeight blends recency into the ordering score (0-1). Default 0.
	RecencyWeight *float64
	// ExcludeUndated drops entries without a publication date.
	ExcludeUndated bool
}

// SearchResult is one scored corpus entry.
type SearchResult struct {
	ID               string
	Content          string
	Domain           string
	CredibilityScore int
	PublicationDate  *time.Time
	Tags             []string
	Foundational     bool
	Score            float64
	Rank             int
}

// CourseUnit is one unit of the curriculum under comparison.
type CourseUnit struct {
	Title             string
	IndicativeContent string
	Hours             float64
	AssessmentMethods []string
}

// CompetitorTopic is one topic of a competitor curriculum.
type CompetitorTopic struct {
	Name        string
	Description string
	Hours       float64
	ModuleCode  string
}

// ProgramStructure holds the structural attributes of a competitor program.
// Zero values mean the attribute was not declared.
type ProgramStructure struct {
	TotalHours      float64
	ModuleCount     int
	AssessmentTypes []string
	DeliveryMethods []string
}

// CompetitorProgram is an imported competitor curriculum.
type CompetitorProgram struct {
	ID          string
	Institution string
	ProgramName string
	Level       string
	Topics      []CompetitorTopic
	Structure   ProgramStructure
}

// Aspect classifies which part of a curriculum a gap or strength concerns.
type Aspect string

// Aspect values.
const (
	AspectTopic      Aspect = "topic"
	AspectAssessment Aspect = "assessment"
	AspectStructure  Aspect = "structure"
)

// Severity grades how far a gap topic is from anything in the curriculum.
type Severity string

// Severity values.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Gap is a competitor topic with no adequately similar counterpart in the
// benchmarked curriculum.
type Gap struct {
	Type                  Aspect
	Description           string
	CompetitorInstitution string
	Severity              Severity
	Recommendation        string
}

// Strength is a curriculum topic or structural property the competitor lacks.
type Strength struct {
	Type        Aspect
	Description string
	Advantage   string
}

// Comparison is the institution-level outcome of one competitor comparison.
type Comparison struct {
	InstitutionName     string
	ProgramName         string
	SimilarityScore     int
	TopicCoverage       float64
	AssessmentAlignment float64
	StructureAlignment  float64
}

// Report is the full outcome of one benchmark run.
type Report struct {
	ProgramID         string
	GeneratedAt       time.Time
	Comparisons       []Comparison
	OverallSimilarity int
	Gaps              []Gap
	Strengths         []Strength
	Recommendations   []string
	Summary           string
}

// CorpusDocument is one document for ingestion.
type CorpusDocument struct {
	ID               string
	Content          string
	Domain           string
	CredibilityScore int
	PublicationDate  *time.Time
	Tags             []string
	Foundational     bool
}

// BatchResult is the per-document outcome of a batch operation.
type BatchResult struct {
	ID  string
	OK  bool
	Err error
}

// CorpusStats summarizes the stored corpus.
type CorpusStats struct {
	EntryCount int
	Domains    []string
}
