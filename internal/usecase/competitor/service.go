// Package competitor manages imported competitor programs: the read side
// feeds the benchmark engine, the write side is import-once, delete-by-id.
package competitor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

// Service handles the competitor program lifecycle.
type Service struct {
	store CompetitorStore
}

// New creates a competitor service.
func New(store CompetitorStore) *Service {
	return &Service{store: store}
}

// Import validates and stores one competitor program, minting its id.
// Programs are read-only after import.
func (s *Service) Import(
	ctx context.Context,
	institution, programName, level string,
	topics []benchmark.CompetitorTopic, structure benchmark.Structure,
) (benchmark.Program, error) {
	program, err := benchmark.NewProgram(
		uuid.New().String(), institution, programName, level, topics, structure,
	)
	if err != nil {
		return benchmark.Program{}, fmt.Errorf("%w: %w", domain.ErrInvalidProgram, err)
	}
	if err := s.store.Insert(ctx, program); err != nil {
		return benchmark.Program{}, fmt.Errorf("store program: %w", err)
	}
	return program, nil
}

// List returns every imported program in import order.
func (s *Service) List(ctx context.Context) ([]benchmark.Program, error) {
	programs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// Get returns one program by id.
func (s *Service) Get(ctx context.Context, id string) (benchmark.Program, error) {
	program, err := s.store.GetByID(ctx, id)
	if err != nil {
		return benchmark.Program{}, fmt.Errorf("get program %s: %w", id, err)
	}
	return program, nil
}

// Delete removes one program by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete program %s: %w", id, err)
	}
	return nil
}

// Count returns the number of imported programs.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return count, nil
}
