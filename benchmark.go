package currdex

import (
	"context"
	"fmt"

	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

// BenchmarkService compares a curriculum against imported competitor
// programs.
type BenchmarkService struct {
	bench       benchmarkUseCase
	competitors competitorUseCase
}

// ExtractTopics derives the comparable topic list from curriculum units.
// No embedding calls happen here.
func (s *BenchmarkService) ExtractTopics(units []CourseUnit) []string {
	return s.bench.ExtractTopics(toInternalUnits(units))
}

// Compare benchmarks the curriculum against competitor programs and builds
// one aggregated report. With no competitorIDs every stored program is
// used; an empty store yields a defined empty report, not an error.
func (s *BenchmarkService) Compare(
	ctx context.Context, programID string, units []CourseUnit, competitorIDs ...string,
) (Report, error) {
	programs, err := s.loadCompetitors(ctx, competitorIDs)
	if err != nil {
		return Report{}, fmt.Errorf("compare: %w", err)
	}

	internalUnits := toInternalUnits(units)
	topics := s.bench.ExtractTopics(internalUnits)

	report, err := s.bench.Compare(ctx, programID, topics, internalUnits, programs)
	if err != nil {
		return Report{}, fmt.Errorf("compare: %w", err)
	}
	return fromReport(report), nil
}

func (s *BenchmarkService) loadCompetitors(
	ctx context.Context, ids []string,
) ([]dombench.Program, error) {
	if len(ids) == 0 {
		return s.competitors.List(ctx)
	}
	programs := make([]dombench.Program, 0, len(ids))
	for _, id := range ids {
		p, err := s.competitors.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

func toInternalUnits(units []CourseUnit) []dombench.Unit {
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

func fromReport(r dombench.Report) Report {
	comparisons := make([]Comparison, len(r.Comparisons))
	for i, c := range r.Comparisons {
		comparisons[i] = Comparison{
			InstitutionName:     c.InstitutionName,
			ProgramName:         c.ProgramName,
			SimilarityScore:     c.SimilarityScore,
			TopicCoverage:       c.TopicCoverage,
			AssessmentAlignment: c.AssessmentAlignment,
			StructureAlignment:  c.StructureAlignment,
		}
	}
	gaps := make([]Gap, len(r.Gaps))
	for i, g := range r.Gaps {
		gaps[i] = Gap{
			Type:                  Aspect(g.Type),
			Description:           g.Description,
			CompetitorInstitution: g.CompetitorInstitution,
			Severity:              Severity(g.Severity),
			Recommendation:        g.Recommendation,
		}
	}
	strengths := make([]Strength, len(r.Strengths))
	for i, st := range r.Strengths {
		strengths[i] = Strength{
			Type:        Aspect(st.Type),
			Description: st.Description,
			Advantage:   st.Advantage,
		}
	}
	return Report{
		ProgramID:         r.ProgramID,
		GeneratedAt:       r.GeneratedAt,
		Comparisons:       comparisons,
		OverallSimilarity: r.OverallSimilarity,
		Gaps:              gaps,
		Strengths:         strengths,
		Recommendations:   r.Recommendations,
		Summary:           r.Summary,
	}
}
