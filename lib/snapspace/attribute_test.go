// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapspace

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixFromRows(rows ...[]int64) *Matrix {
	m := NewMatrix(len(rows))
	for d, row := range rows {
		for s, v := range row {
			m.Set(d, s, v)
		}
	}
	return m
}

func randomMatrix(rng *rand.Rand, n int) *Matrix {
	m := NewMatrix(n)
	for d := 0; d < n; d++ {
		for s := 0; s+d < n; s++ {
			m.Set(d, s, rng.Int63n(1<<40))
		}
	}
	return m
}

// applyAttributionDescending is ApplyAttribution with the distance
// loop run backward.
func applyAttributionDescending(m *Matrix) {
	n := m.Len()
	for d := n - 1; d >= 1; d-- {
		for s := 0; s+d < n; s++ {
			for x := 0; x < d; x++ {
				for y := s; y <= s+d-x; y++ {
					m.Sub(d, s, m.Get(x, y))
				}
			}
		}
	}
}

func TestApplyAttributionScenario(t *testing.T) {
	t.Parallel()
	raw := matrixFromRows(
		[]int64{100, 50, 80},
		[]int64{130, 110},
		[]int64{200},
	)
	attributed := Attribute(raw)
	assert.Equal(t, []int64{100, 50, 80}, attributed.Row(0))
	assert.Equal(t, []int64{-20, -20}, attributed.Row(1))
	assert.Equal(t, []int64{10}, attributed.Row(2))
	assert.Equal(t, int64(200), attributed.Total())
	assert.NoError(t, CheckConservation(raw, attributed))

	// Attribute must not have touched its input.
	assert.Equal(t, []int64{130, 110}, raw.Row(1))

	assert.Equal(t,
		[]Range{{Start: 0, End: 1}, {Start: 1, End: 2}},
		Anomalies(attributed))
}

func TestApplyAttributionSingle(t *testing.T) {
	t.Parallel()
	m := matrixFromRows([]int64{4096})
	ApplyAttribution(m)
	assert.Equal(t, int64(4096), m.Get(0, 0))
	assert.Empty(t, Anomalies(m))
}

func TestApplyAttributionEmpty(t *testing.T) {
	t.Parallel()
	m := NewMatrix(0)
	ApplyAttribution(m)
	assert.Equal(t, 0, m.Len())
	assert.NoError(t, CheckConservation(m, m))
}

func TestApplyAttributionConservation(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // Deterministic test data.
	for n := 1; n <= 9; n++ {
		raw := randomMatrix(rng, n)
		attributed := Attribute(raw)

		require.NoError(t, CheckConservation(raw, attributed), "n=%d", n)
		assert.Equal(t, raw.Get(n-1, 0), attributed.Total(), "n=%d", n)
		assert.Equal(t, raw.Row(0), attributed.Row(0), "n=%d", n)
	}
}

func TestApplyAttributionDeterministic(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(2)) //nolint:gosec // Deterministic test data.
	raw := randomMatrix(rng, 6)
	a := Attribute(raw)
	b := Attribute(raw)
	assert.True(t, a.Equal(b))
}

func TestApplyAttributionOrderMatters(t *testing.T) {
	t.Parallel()
	raw := matrixFromRows(
		[]int64{100, 50, 80},
		[]int64{130, 110},
		[]int64{200},
	)
	backward := raw.Clone()
	applyAttributionDescending(backward)

	assert.False(t, backward.Equal(Attribute(raw)))
	assert.Error(t, CheckConservation(raw, backward))

	// The full range was computed from raw pair values rather than
	// attributed ones.
	assert.Equal(t, int64(200-100-50-80-130-110), backward.Get(2, 0))
}

func TestCheckConservationReports(t *testing.T) {
	t.Parallel()
	raw := matrixFromRows(
		[]int64{1, 2},
		[]int64{10},
	)
	bogus := matrixFromRows(
		[]int64{1, 2},
		[]int64{10},
	)
	err := CheckConservation(raw, bogus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range 0..1: attributed sub-ranges sum to 13, but deleting it frees 10")

	assert.Error(t, CheckConservation(raw, NewMatrix(3)))
}

func TestSubRanges(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		[]Range{
			{1, 1}, {2, 2}, {3, 3},
			{1, 2}, {2, 3},
			{1, 3},
		},
		SubRanges(Range{Start: 1, End: 3}))
	assert.Equal(t, []Range{{0, 0}}, SubRanges(Range{}))
}
