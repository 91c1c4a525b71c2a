package currdex

import (
	"context"
	"fmt"

	dombench "github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

// CompetitorService manages imported competitor programs.
type CompetitorService struct {
	svc competitorUseCase
}

// Import validates and stores one competitor program, minting its id.
// Programs are read-only after import.
func (s *CompetitorService) Import(
	ctx context.Context,
	institution, programName, level string,
	topics []CompetitorTopic, structure ProgramStructure,
) (CompetitorProgram, error) {
	program, err := s.svc.Import(
		ctx, institution, programName, level,
		toInternalTopics(topics), toInternalStructure(structure),
	)
	if err != nil {
		return CompetitorProgram{}, fmt.Errorf("import program: %w", err)
	}
	return fromProgram(&program), nil
}

// List returns every imported program in import order.
func (s *CompetitorService) List(ctx context.Context) ([]CompetitorProgram, error) {
	programs, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	out := make([]CompetitorProgram, len(programs))
	for i := range programs {
		out[i] = fromProgram(&programs[i])
	}
	return out, nil
}

// Get returns one program by id.
func (s *CompetitorService) Get(ctx context.Context, id string) (CompetitorProgram, error) {
	program, err := s.svc.Get(ctx, id)
	if err != nil {
		return CompetitorProgram{}, fmt.Errorf("get program: %w", err)
	}
	return fromProgram(&program), nil
}

// Delete removes one program by id.
func (s *CompetitorService) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// Count returns the number of imported programs.
func (s *CompetitorService) Count(ctx context.Context) (int, error) {
	n, err := s.svc.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return n, nil
}

func toInternalTopics(topics []CompetitorTopic) []dombench.CompetitorTopic {
	out := make([]dombench.CompetitorTopic, len(topics))
	for i, t := range topics {
		out[i] = dombench.CompetitorTopic{
			Name:        t.Name,
			Description: t.Description,
			Hours:       t.Hours,
			ModuleCode:  t.ModuleCode,
		}
	}
	return out
}

func toInternalStructure(s ProgramStructure) dombench.Structure {
	return dombench.Structure{
		TotalHours:      s.TotalHours,
		ModuleCount:     s.ModuleCount,
		AssessmentTypes: s.AssessmentTypes,
		DeliveryMethods: s.DeliveryMethods,
	}
}

func fromProgram(p *dombench.Program) CompetitorProgram {
	topics := make([]CompetitorTopic, len(p.Topics()))
	for i, t := range p.Topics() {
		topics[i] = CompetitorTopic{
			Name:        t.Name,
			Description: t.Description,
			Hours:       t.Hours,
			ModuleCode:  t.ModuleCode,
		}
	}
	structure := p.Structure()
	return CompetitorProgram{
		ID:          p.ID(),
		Institution: p.InstitutionName(),
		ProgramName: p.ProgramName(),
		Level:       p.Level(),
		Topics:      topics,
		Structure: ProgramStructure{
			TotalHours:      structure.TotalHours,
			ModuleCount:     structure.ModuleCount,
			AssessmentTypes: structure.AssessmentTypes,
			DeliveryMethods: structure.DeliveryMethods,
		},
	}
}
