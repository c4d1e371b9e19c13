package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{name: "identical", a: []float64{1, 0}, b: []float64{1, 0}, expected: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, expected: 0},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, expected: -1},
		{name: "both_empty", a: []float64{}, b: []float64{}, expected: 0},
		{name: "nil_vectors", a: nil, b: nil, expected: 0},
		{name: "length_mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, expected: 0},
		{name: "zero_magnitude", a: []float64{0, 0}, b: []float64{1, 1}, expected: 0},
		{name: "scale_invariant", a: []float64{1, 2, 3}, b: []float64{2, 4, 6}, expected: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Cosine(tc.a, tc.b), 1e-9)
		})
	}
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, []float64{3, 3}, Centroid([][]float64{{2, 2}, {4, 4}}))
	assert.Equal(t, []float64{1, -1}, Centroid([][]float64{{1, -1}}))
	assert.Panics(t, func() { Centroid(nil) })
}

func TestRank(t *testing.T) {
	query := []float64{1, 0}
	// vectors whose cosine against query is 0.9, 0.1 and 0.5
	high := Candidate{ID: "high", Vector: []float64{0.9, 0.43588989}}
	low := Candidate{ID: "low", Vector: []float64{0.1, 0.99498744}}
	mid := Candidate{ID: "mid", Vector: []float64{0.5, 0.8660254}}

	for _, input := range [][]Candidate{
		{high, low, mid},
		{low, mid, high},
		{mid, high, low},
	} {
		got := Rank(query, input, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "high", got[0].ID)
		assert.InDelta(t, 0.9, got[0].Score, 1e-6)
		assert.Equal(t, "mid", got[1].ID)
		assert.InDelta(t, 0.5, got[1].Score, 1e-6)
	}
}

func TestRank_EdgeCases(t *testing.T) {
	query := []float64{1, 0}

	t.Run("ties_keep_input_order", func(t *testing.T) {
		got := Rank(query, []Candidate{
			{ID: "a", Vector: []float64{0, 1}},
			{ID: "b", Vector: []float64{0, 2}},
			{ID: "c", Vector: []float64{1, 0}},
		}, 0)
		assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("no_threshold_keeps_negative_scores", func(t *testing.T) {
		got := Rank(query, []Candidate{{ID: "neg", Vector: []float64{-1, 0}}}, 3)
		require.Len(t, got, 1)
		assert.InDelta(t, -1, got[0].Score, 1e-9)
	})

	t.Run("missing_vector_scores_zero", func(t *testing.T) {
		got := Rank(query, []Candidate{{ID: "none"}, {ID: "pos", Vector: []float64{1, 0}}}, 5)
		assert.Equal(t, "pos", got[0].ID)
		assert.Equal(t, Scored{ID: "none", Score: 0}, got[1])
	})

	t.Run("no_candidates", func(t *testing.T) {
		assert.Empty(t, Rank(query, nil, 3))
	})
}
