package retrieval

import "github.com/curricula-cloud/currdex/internal/domain/corpus"

// Result is a single ranked match. The score is the final ranking score,
// which is the raw cosine similarity unless reweighting or composite ranking
// replaced it.
type Result struct {
	entry corpus.Entry
	score float64
	rank  int
}

// NewResult creates a ranked match.
func NewResult(entry corpus.Entry, score float64, rank int) Result {
	return Result{entry: entry, score: score, rank: rank}
}

// Entry returns the matched corpus entry.
func (r *Result) Entry() corpus.Entry { return r.entry }

// Score returns the final ranking score.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 1-based position, stable for equal scores by entry id.
func (r *Result) Rank() int { return r.rank }
