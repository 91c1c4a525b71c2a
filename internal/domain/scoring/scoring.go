// Package scoring holds the similarity and ranking math shared by the
// retrieval and benchmark engines.
package scoring

import (
	"math"
	"time"

	"github.com/curricula-cloud/currdex/internal/domain"
)

// Composite blend weights used by ranked retrieval.
const (
	WeightSimilarity  = 0.6
	WeightCredibility = 0.3
	WeightRecency     = 0.1
)

// RecencyHorizonYears is the publication age at which the recency score
// reaches zero. The same horizon bounds recency admission during search.
const RecencyHorizonYears = 5.0

const hoursPerYear = 24 * 365.25

// Cosine returns the cosine similarity of two equal-length vectors in [-1, 1].
// Vectors of different lengths fail with a dimension mismatch. A zero-magnitude
// input yields 0, never a division error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionError(len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	den := math.Sqrt(normA) * math.Sqrt(normB)
	if den == 0 {
		return 0, nil
	}
	return dot / den, nil
}

// Recency maps publication age onto [0, 1]: 1 today, decaying linearly to 0 at
// the horizon. A nil date scores a neutral 0.5. Future dates clamp to 1.
func Recency(published *time.Time, now time.Time) float64 {
	if published == nil {
		return 0.5
	}
	ageYears := now.Sub(*published).Hours() / hoursPerYear
	score := 1 - ageYears/RecencyHorizonYears
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Composite blends similarity, credibility and recency with the 0.6/0.3/0.1
// weights. Credibility must be pre-normalized to [0, 1].
func Composite(similarity, credibility, recency float64) float64 {
	return WeightSimilarity*similarity + WeightCredibility*credibility + WeightRecency*recency
}

// RecencyBlend reweights a similarity score by recency. weight 0 returns the
// similarity unchanged; weight 1 returns the recency score alone.
func RecencyBlend(similarity, recency, weight float64) float64 {
	return similarity*(1-weight) + recency*weight
}
