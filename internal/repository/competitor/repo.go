// Package competitor persists imported competitor curricula in Postgres.
// Topics keep their imported shape in a JSONB column; flat structural
// attributes live in dedicated columns so they stay queryable.
package competitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/curricula-cloud/currdex/internal/domain"
	"github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

const schema = `
CREATE TABLE IF NOT EXISTS competitor_programs (
	id               TEXT PRIMARY KEY,
	institution_name TEXT NOT NULL,
	program_name     TEXT NOT NULL,
	level            TEXT NOT NULL DEFAULT '',
	topics           JSONB NOT NULL DEFAULT '[]',
	total_hours      DOUBLE PRECISION NOT NULL DEFAULT 0,
	module_count     INTEGER NOT NULL DEFAULT 0,
	assessment_types TEXT[] NOT NULL DEFAULT '{}',
	delivery_methods TEXT[] NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const uniqueViolation = "23505"

// Repo implements the competitor program contracts of the usecases.
type Repo struct {
	db *sql.DB
}

// New creates a competitor repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// EnsureSchema creates the competitor_programs table when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure competitor schema: %w", err)
	}
	return nil
}

// Insert stores a program.
func (r *Repo) Insert(ctx context.Context, p benchmark.Program) error {
	topics, err := topicsToJSON(p.Topics())
	if err != nil {
		return fmt.Errorf("encode topics for %s: %w", p.ID(), err)
	}

	structure := p.Structure()
	stmt := `INSERT INTO competitor_programs
		(id, institution_name, program_name, level, topics,
		 total_hours, module_count, assessment_types, delivery_methods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, stmt,
		p.ID(), p.InstitutionName(), p.ProgramName(), p.Level(), topics,
		structure.TotalHours, structure.ModuleCount,
		pq.Array(structure.AssessmentTypes), pq.Array(structure.DeliveryMethods),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: program %s", domain.ErrAlreadyExists, p.ID())
		}
		return fmt.Errorf("insert competitor program %s: %w", p.ID(), err)
	}
	return nil
}

// List returns all programs in import order.
func (r *Repo) List(ctx context.Context) ([]benchmark.Program, error) {
	query := `SELECT id, institution_name, program_name, level, topics,
		total_hours, module_count, assessment_types, delivery_methods
		FROM competitor_programs
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list competitor programs: %w", err)
	}
	defer rows.Close()

	programs := make([]benchmark.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitor programs: %w", err)
	}
	return programs, nil
}

// GetByID returns one program.
func (r *Repo) GetByID(ctx context.Context, id string) (benchmark.Program, error) {
	query := `SELECT id, institution_name, program_name, level, topics,
		total_hours, module_count, assessment_types, delivery_methods
		FROM competitor_programs
		WHERE id = $1`

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return benchmark.Program{}, fmt.Errorf("%w: program %s", domain.ErrNotFound, id)
		}
		return benchmark.Program{}, err
	}
	return p, nil
}

// DeleteByID removes one program.
func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM competitor_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete competitor program %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete competitor program %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: program %s", domain.ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored programs.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitor_programs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count competitor programs: %w", err)
	}
	return n, nil
}
