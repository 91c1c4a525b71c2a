package benchmark

import "time"

// Unit is one unit of the generated curriculum under comparison.
type Unit struct {
	Title             string
	IndicativeContent string
	Hours             float64
	AssessmentMethods []string
}

// Aspect classifies which part of a curriculum a gap or strength concerns.
type Aspect string

// Aspect values.
const (
	AspectTopic      Aspect = "topic"
	AspectAssessment Aspect = "assessment"
	AspectStructure  Aspect = "structure"
)

// Severity grades how far a gap topic is from anything in the generated
// curriculum.
type Severity string

// Severity values.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Gap is a competitor topic with no adequately similar counterpart in the
// generated curriculum.
type Gap struct {
	Type                  Aspect
	Description           string
	CompetitorInstitution string
	Severity              Severity
	Recommendation        string
}

// Strength is a generated topic (or structural property) the competitor
// lacks.
type Strength struct {
	Type        Aspect
	Description string
	Advantage   string
}

// Comparison is the institution-level outcome of one competitor comparison.
// The three alignment components keep full precision; SimilarityScore is the
// rounded 0.5/0.25/0.25 blend.
type Comparison struct {
	InstitutionName     string
	ProgramName         string
	SimilarityScore     int
	TopicCoverage       float64
	AssessmentAlignment float64
	StructureAlignment  float64
}

// Report is the full outcome of one benchmark run. Reports are built
// bottom-up and never mutated, only superseded by a fresh run.
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
