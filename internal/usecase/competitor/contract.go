package competitor

import (
	"context"

	"github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

// CompetitorStore persists imported competitor programs.
type CompetitorStore interface {
	Insert(ctx context.Context, p benchmark.Program) error
	List(ctx context.Context) ([]benchmark.Program, error)
	GetByID(ctx context.Context, id string) (benchmark.Program, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
