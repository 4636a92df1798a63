package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

func newRoller(seed uint64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
}

// TestCryptoSource_Intn_InRange verifies every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Float64_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSources_Intn_PanicOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(99)
	b := dice.NewSeededSource(99)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestNewSource_SeedSelectsBackend(t *testing.T) {
	v := dice.NewSource(0).Intn(10)
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 10)
	a := dice.NewSource(5)
	b := dice.NewSource(5)
	assert.Equal(t, a.Intn(1<<30), b.Intn(1<<30))
}

func TestRoller_ChanceBounds(t *testing.T) {
	r := newRoller(1)
	for i := 0; i < 200; i++ {
		assert.False(t, r.Chance("never", 0))
		assert.True(t, r.Chance("always", 1))
	}
}

func TestRoller_ChanceFrequency(t *testing.T) {
	r := newRoller(2)
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if r.Chance("quarter", 0.25) {
			hits++
		}
	}
	assert.InDelta(t, 0.25, float64(hits)/n, 0.02)
}

func TestRoller_IndexEmpty(t *testing.T) {
	assert.Equal(t, -1, newRoller(3).Index("empty", 0))
}

func TestRoller_WeightedSkipsNonPositive(t *testing.T) {
	r := newRoller(4)
	for i := 0; i < 500; i++ {
		idx := r.Weighted("w", []float64{0, 1, -3, 2})
		assert.Contains(t, []int{1, 3}, idx)
	}
	assert.Equal(t, -1, r.Weighted("none", []float64{0, -1}))
}

func TestRoller_WeightedDistribution(t *testing.T) {
	r := newRoller(5)
	counts := make([]int, 3)
	const n = 30000
	for i := 0; i < n; i++ {
		counts[r.Weighted("w", []float64{0.15, 0.35, 0.50})]++
	}
	assert.InDelta(t, 0.15, float64(counts[0])/n, 0.015)
	assert.InDelta(t, 0.35, float64(counts[1])/n, 0.015)
	assert.InDelta(t, 0.50, float64(counts[2])/n, 0.015)
}

// TestRoller_IntRange_Property verifies lo <= result <= hi for arbitrary bounds.
func TestRoller_IntRange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		lo := rapid.IntRange(-100, 100).Draw(rt, "lo")
		hi := rapid.IntRange(lo, lo+200).Draw(rt, "hi")
		v := newRoller(seed).IntRange("p", lo, hi)
		if v < lo || v > hi {
			rt.Fatalf("IntRange(%d,%d) = %d out of bounds", lo, hi, v)
		}
	})
}

// TestRoller_Range_Property verifies lo <= result < hi for arbitrary bounds.
func TestRoller_Range_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		lo := rapid.Float64Range(-10, 10).Draw(rt, "lo")
		width := rapid.Float64Range(0.001, 10).Draw(rt, "width")
		v := newRoller(seed).Range("p", lo, lo+width)
		if v < lo || v >= lo+width {
			rt.Fatalf("Range(%f,%f) = %f out of bounds", lo, lo+width, v)
		}
	})
}
