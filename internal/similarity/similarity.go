// Package similarity scores embedding vectors against each other.
//
// Embeddings are produced asynchronously and may be missing, so every function here treats an
// absent or mismatched vector as a neutral score instead of an error.
package similarity

import (
	"math"
	"slices"
)

// Candidate is an item that can be ranked against a query vector
type Candidate struct {
	ID     string
	Vector []float64
}

// Scored pairs a candidate ID with its similarity to the query
type Scored struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Cosine returns the cosine of the angle between a and b.
// It returns 0 when the lengths differ, when either vector is empty, or when either has zero magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Centroid returns the element-wise mean of vectors.
// The caller must pass at least one vector and all vectors must have the same length.
func Centroid(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		panic("similarity: centroid of no vectors")
	}

	mean := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i := range mean {
			mean[i] += v[i]
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// Rank scores every candidate against query and returns the k best, highest first.
// Ties keep their input order. No threshold is applied, so weak or negative matches are
// returned when there are fewer than k strong ones. k <= 0 returns every candidate.
func Rank(query []float64, candidates []Candidate, k int) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{ID: c.ID, Score: Cosine(query, c.Vector)}
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
