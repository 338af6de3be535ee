package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace(t *testing.T) *Space {
	t.Helper()
	sp, err := New(
		IntRange("units", 32, 512, 32),
		Choice("learning_rate", Float(0.01), Float(0.001), Float(0.0001)),
	)
	require.NoError(t, err)
	return sp
}

func TestSampler_ValuesInRange(t *testing.T) {
	sp := testSpace(t)
	s := NewSampler(1)

	for i := 0; i < 200; i++ {
		cfg := s.Sample(sp)
		require.NoError(t, sp.Check(cfg), "sample %d outside space: %s", i, cfg)
	}
}

func TestSampler_DeterministicForSeed(t *testing.T) {
	sp := testSpace(t)

	a := NewSampler(42)
	b := NewSampler(42)

	for i := 0; i < 50; i++ {
		ca := a.Sample(sp)
		cb := b.Sample(sp)

		fa, err := Fingerprint(ca)
		require.NoError(t, err)
		fb, err := Fingerprint(cb)
		require.NoError(t, err)
		assert.Equal(t, fa, fb, "sample %d diverged", i)
	}
}

func TestSampler_SeedsDiverge(t *testing.T) {
	sp := testSpace(t)

	a := NewSampler(1)
	b := NewSampler(2)

	diverged := false
	for i := 0; i < 20; i++ {
		fa, err := Fingerprint(a.Sample(sp))
		require.NoError(t, err)
		fb, err := Fingerprint(b.Sample(sp))
		require.NoError(t, err)
		if fa != fb {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds should produce different sequences")
}

func TestSampler_StepGrid(t *testing.T) {
	sp, err := New(IntRange("units", 32, 512, 32))
	require.NoError(t, err)

	s := NewSampler(7)
	for i := 0; i < 100; i++ {
		cfg := s.Sample(sp)
		units, err := cfg.Int("units")
		require.NoError(t, err)
		assert.Zero(t, (units-32)%32, "value %d off grid", units)
		assert.GreaterOrEqual(t, units, int64(32))
		assert.LessOrEqual(t, units, int64(512))
	}
}

func TestSampler_SingleValueRange(t *testing.T) {
	sp, err := New(IntRange("depth", 3, 3, 1))
	require.NoError(t, err)

	s := NewSampler(0)
	cfg := s.Sample(sp)
	depth, err := cfg.Int("depth")
	require.NoError(t, err)
	assert.Equal(t, int64(3), depth)
}
