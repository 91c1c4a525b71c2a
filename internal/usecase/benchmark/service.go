// Package benchmark compares a generated curriculum against imported
// competitor programs: topic coverage, assessment and structure alignment,
// gap and strength detection, and a rule-based report.
package benchmark

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curricula-cloud/currdex/internal/domain"
	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
	"github.com/curricula-cloud/currdex/internal/domain/scoring"
	"github.com/curricula-cloud/currdex/internal/metrics"
)

// Comparison thresholds. Coverage counts a generated topic once its best
// competitor match clears coverageThreshold; a competitor topic below
// gapThreshold becomes a gap, a generated topic below strengthThreshold
// becomes a strength. The [strengthThreshold, gapThreshold) band on the
// generated side is deliberately neither covered nor unique.
const (
	coverageThreshold = 0.7
	gapThreshold      = 0.6
	strengthThreshold = 0.5

	severityHighBelow   = 0.3
	severityMediumBelow = 0.5
)

// Blend weights for the institution similarity score.
const (
	weightCoverage   = 0.5
	weightAssessment = 0.25
	weightStructure  = 0.25
)

// DefaultEmbedConcurrency bounds concurrent topic embedding requests.
const DefaultEmbedConcurrency = 8

// maxHighGapCallouts caps per-gap recommendations in the report.
const maxHighGapCallouts = 3

// minTopicFragmentRunes is the exclusive length floor for indicative content
// fragments; shorter fragments are connective noise, not topics.
const minTopicFragmentRunes = 3

// Service runs curriculum benchmarks. Stateless; every call builds a fresh
// report bottom-up.
type Service struct {
	embed       Embedder
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// New creates a benchmark service. concurrency bounds the embedding fan-out;
// values below 1 fall back to the default.
func New(embed Embedder, logger *zap.Logger, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = DefaultEmbedConcurrency
	}
	return &Service{embed: embed, logger: logger, concurrency: concurrency, now: time.Now}
}

// ExtractTopics derives the comparable topic list from curriculum units:
// each unit contributes its title verbatim, then every indicative content
// fragment longer than three runes. The result is an ordered set, first
// occurrence wins. No embedding calls happen here.
func (s *Service) ExtractTopics(units []dombench.Unit) []string {
	topics := make([]string, 0, len(units))
	seen := make(map[string]struct{})
	add := func(topic string) {
		if _, dup := seen[topic]; dup {
			return
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}

	for _, unit := range units {
		if unit.Title != "" {
			add(unit.Title)
		}
		fragments := strings.FieldsFunc(unit.IndicativeContent, func(r rune) bool {
			return r == ',' || r == ';' || r == '.' || r == '\n'
		})
		for _, fragment := range fragments {
			fragment = strings.TrimSpace(fragment)
			if utf8.RuneCountInString(fragment) > minTopicFragmentRunes {
				add(fragment)
			}
		}
	}
	return topics
}

// Compare benchmarks the generated curriculum (topics plus units) against
// every competitor and aggregates one report. An empty competitor list is a
// defined terminal outcome, not an error.
func (s *Service) Compare(
	ctx context.Context, programID string,
	topics []string, units []dombench.Unit, competitors []dombench.Program,
) (dombench.Report, error) {
	start := time.Now()

	if len(competitors) == 0 {
		report := s.emptyReport(programID)
		s.observe("ok", start)
		return report, nil
	}

	topicVecs, err := s.embedAll(ctx, topics)
	if err != nil {
		s.observe("error", start)
		return dombench.Report{}, fmt.Errorf("%w: embed curriculum topics: %w", domain.ErrBenchmarkFailed, err)
	}

	comparisons := make([]dombench.Comparison, 0, len(competitors))
	gaps := make([]dombench.Gap, 0)
	strengths := make([]dombench.Strength, 0)
	var scoreSum float64

	for i := range competitors {
		comparison, compGaps, compStrengths, err := s.compareWithCompetitor(ctx, topics, topicVecs, units, &competitors[i])
		if err != nil {
			s.observe("error", start)
			return dombench.Report{}, err
		}
		comparisons = append(comparisons, comparison)
		gaps = append(gaps, compGaps...)
		strengths = append(strengths, compStrengths...)
		scoreSum += float64(comparison.SimilarityScore)
	}

	overall := int(math.Round(scoreSum / float64(len(comparisons))))
	report := dombench.Report{
		ProgramID:         programID,
		GeneratedAt:       s.now(),
		Comparisons:       comparisons,
		OverallSimilarity: overall,
		Gaps:              gaps,
		Strengths:         strengths,
		Recommendations:   buildRecommendations(gaps, strengths),
		Summary:           buildSummary(len(comparisons), overall, gaps, strengths),
	}

	metrics.BenchmarkCompetitorsTotal.Add(float64(len(comparisons)))
	s.observe("ok", start)
	return report, nil
}

func (s *Service) emptyReport(programID string) dombench.Report {
	return dombench.Report{
		ProgramID:         programID,
		GeneratedAt:       s.now(),
		Comparisons:       []dombench.Comparison{},
		OverallSimilarity: 0,
		Gaps:              []dombench.Gap{},
		Strengths:         []dombench.Strength{},
		Recommendations: []string{
			"No competitor programs are available; import competitor data to enable benchmarking.",
		},
		Summary: "No competitor programs were available for comparison.",
	}
}

// compareWithCompetitor scores one competitor: topic coverage, assessment and
// structure alignment, plus the per-topic gaps and strengths.
func (s *Service) compareWithCompetitor(
	ctx context.Context,
	topics []string, topicVecs [][]float32,
	units []dombench.Unit, competitor *dombench.Program,
) (dombench.Comparison, []dombench.Gap, []dombench.Strength, error) {
	competitorTopics := competitor.Topics()
	competitorVecs, err := s.embedAll(ctx, competitor.TopicNames())
	if err != nil {
		return dombench.Comparison{}, nil, nil, fmt.Errorf(
			"%w: embed topics of %s: %w", domain.ErrBenchmarkFailed, competitor.InstitutionName(), err,
		)
	}

	// Best-match per side over the pairwise similarity matrix. Dimension
	// mismatches skip the single pair, never the comparison.
	bestGenerated := make([]float64, len(topics))
	bestCompetitor := make([]float64, len(competitorTopics))
	for i := range topicVecs {
		for j := range competitorVecs {
			sim, err := scoring.Cosine(topicVecs[i], competitorVecs[j])
			if err != nil {
				s.logger.Warn("skipping topic pair with mismatched vector dimensions",
					zap.String("generated_topic", topics[i]),
					zap.String("competitor_topic", competitorTopics[j].Name),
					zap.Error(err))
				continue
			}
			if sim > bestGenerated[i] {
				bestGenerated[i] = sim
			}
			if sim > bestCompetitor[j] {
				bestCompetitor[j] = sim
			}
		}
	}

	covered := 0
	for _, best := range bestGenerated {
		if best > coverageThreshold {
			covered++
		}
	}
	coverage := 0.0
	if len(topics) > 0 {
		coverage = float64(covered) / float64(len(topics)) * 100
	}

	generatedMethods := distinctAssessmentMethods(units)
	assessment := assessmentAlignment(generatedMethods, competitor.Structure().AssessmentTypes)
	structure := structureAlignment(units, competitor.Structure())

	comparison := dombench.Comparison{
		InstitutionName:     competitor.InstitutionName(),
		ProgramName:         competitor.ProgramName(),
		SimilarityScore:     int(math.Round(weightCoverage*coverage + weightAssessment*assessment + weightStructure*structure)),
		TopicCoverage:       coverage,
		AssessmentAlignment: assessment,
		StructureAlignment:  structure,
	}

	var gaps []dombench.Gap
	for j := range competitorTopics {
		if bestCompetitor[j] >= gapThreshold {
			continue
		}
		name := competitorTopics[j].Name
		gaps = append(gaps, dombench.Gap{
			Type:                  dombench.AspectTopic,
			Description:           name,
			CompetitorInstitution: competitor.InstitutionName(),
			Severity:              gapSeverity(bestCompetitor[j]),
			Recommendation:        fmt.Sprintf("Add curriculum content covering %q to match %s", name, competitor.InstitutionName()),
		})
	}

	var strengths []dombench.Strength
	for i := range topics {
		if bestGenerated[i] >= strengthThreshold {
			continue
		}
		strengths = append(strengths, dombench.Strength{
			Type:        dombench.AspectTopic,
			Description: topics[i],
			Advantage:   fmt.Sprintf("Covers %q, which %s does not offer", topics[i], competitor.InstitutionName()),
		})
	}
	if len(generatedMethods) > len(competitor.Structure().AssessmentTypes) {
		strengths = append(strengths, dombench.Strength{
			Type:        dombench.AspectAssessment,
			Description: "Assessment diversity",
			Advantage: fmt.Sprintf("More diverse assessment methods than %s (%d vs %d)",
				competitor.InstitutionName(), len(generatedMethods), len(competitor.Structure().AssessmentTypes)),
		})
	}

	return comparison, gaps, strengths, nil
}

func gapSeverity(best float64) dombench.Severity {
	switch {
	case best < severityHighBelow:
		return dombench.SeverityHigh
	case best < severityMediumBelow:
		return dombench.SeverityMedium
	default:
		return dombench.SeverityLow
	}
}

// assessmentAlignment counts competitor assessment types matched by any
// generated method, substring in either direction, case-insensitive. A
// competitor that declares none scores a neutral 50: absence of data is not
// evidence of misalignment.
func assessmentAlignment(generated, declared []string) float64 {
	if len(declared) == 0 {
		return 50
	}
	matched := 0
	for _, d := range declared {
		dl := strings.ToLower(strings.TrimSpace(d))
		for _, g := range generated {
			gl := strings.ToLower(g)
			if strings.Contains(gl, dl) || strings.Contains(dl, gl) {
				matched++
				break
			}
		}
	}
	score := float64(matched) / float64(len(declared)) * 100
	return math.Min(score, 100)
}

// structureAlignment averages the sub-scores that have competitor data:
// total-hours closeness and module-count closeness. Module-count mismatches
// are penalized at half the rate of hours mismatches. Neither declared
// scores a neutral 50.
func structureAlignment(units []dombench.Unit, st dombench.Structure) float64 {
	var generatedHours float64
	for _, u := range units {
		generatedHours += u.Hours
	}
	generatedModules := len(units)

	var sum float64
	var parts int
	if st.TotalHours > 0 {
		penalty := math.Abs(generatedHours-st.TotalHours) / st.TotalHours * 100
		sum += math.Max(0, 100-penalty)
		parts++
	}
	if st.ModuleCount > 0 {
		penalty := math.Abs(float64(generatedModules-st.ModuleCount)) / float64(st.ModuleCount) * 50
		sum += math.Max(0, 100-penalty)
		parts++
	}
	if parts == 0 {
		return 50
	}
	return sum / float64(parts)
}

// distinctAssessmentMethods collects unit assessment methods, deduplicated
// case-insensitively in first-occurrence order.
func distinctAssessmentMethods(units []dombench.Unit) []string {
	var methods []string
	seen := make(map[string]struct{})
	for _, u := range units {
		for _, m := range u.AssessmentMethods {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}
			key := strings.ToLower(m)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			methods = append(methods, m)
		}
	}
	return methods
}

func buildRecommendations(gaps []dombench.Gap, strengths []dombench.Strength) []string {
	var recs []string

	if len(gaps) == 0 {
		recs = append(recs, "The curriculum compares well against all benchmarked competitors; no topic gaps were detected.")
	} else {
		callouts := 0
		mediums := 0
		for _, g := range gaps {
			switch g.Severity {
			case dombench.SeverityHigh:
				if callouts < maxHighGapCallouts {
					recs = append(recs, fmt.Sprintf("High priority: %s", g.Recommendation))
					callouts++
				}
			case dombench.SeverityMedium:
				mediums++
			}
		}
		if mediums > 0 {
			recs = append(recs, fmt.Sprintf("Review %d medium-severity topic gap(s) for possible inclusion.", mediums))
		}
	}

	if len(strengths) > 0 {
		recs = append(recs, fmt.Sprintf("Leverage %d unique strength(s) when positioning the program.", len(strengths)))
	}
	return recs
}

func buildSummary(competitorCount, overall int, gaps []dombench.Gap, strengths []dombench.Strength) string {
	return fmt.Sprintf(
		"Benchmarked against %d competitor program(s): overall similarity %d%%, %d gap(s) and %d strength(s) identified.",
		competitorCount, overall, len(gaps), len(strengths),
	)
}

// embedAll vectorizes texts with a bounded concurrent fan-out sharing one
// cancellation; the first failure cancels the rest.
func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := s.embed.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed %q: %w", text, err)
			}
			domain.UsageFromContext(gctx).AddTokens(res.TotalTokens)
			vecs[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (s *Service) observe(status string, start time.Time) {
	metrics.BenchmarkDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
