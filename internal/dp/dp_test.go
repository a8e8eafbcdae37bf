package dp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipInsideBallUnchanged(t *testing.T) {
	v := []float64{0.3, 0.4}
	got := Clip(v, 1.0)
	assert.Equal(t, v, got)
}

func TestClipBoundsNorm(t *testing.T) {
	v := []float64{3, 4}
	got := Clip(v, 1.0)
	assert.InDelta(t, 1.0, l2Norm(got), 1e-9)
	// direction preserved
	assert.InDelta(t, 0.6, got[0], 1e-9)
	assert.InDelta(t, 0.8, got[1], 1e-9)
}

func TestClipIdempotent(t *testing.T) {
	v := []float64{5, -2, 7, 0.5}
	once := Clip(v, 1.0)
	twice := Clip(once, 1.0)
	for i := range once {
		assert.InDelta(t, once[i], twice[i], 1e-12)
	}
}

func TestClipNormNeverExceeded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		v := make([]float64, 16)
		for j := range v {
			v[j] = rng.NormFloat64() * 10
		}
		assert.LessOrEqual(t, l2Norm(Clip(v, 1.0)), 1.0+1e-9)
	}
}

func TestAddNoisePreservesDimension(t *testing.T) {
	p := NewProcessor(1.0, 0.8, rand.New(rand.NewSource(7)))
	v := []float64{1, 0, 0, 0}
	got := p.AddNoise(v)
	require.Len(t, got, 4)
}

func TestAddNoiseZeroMultiplierIsIdentity(t *testing.T) {
	p := NewProcessor(1.0, 0, rand.New(rand.NewSource(7)))
	v := []float64{0.1, 0.2, 0.3}
	assert.Equal(t, v, p.AddNoise(v))
}

func TestApplyClipsBeforeNoising(t *testing.T) {
	// With zero noise, Apply reduces to Clip.
	p := NewProcessor(1.0, 0, rand.New(rand.NewSource(1)))
	got := p.Apply([]float64{10, 0})
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 0.0, got[1], 1e-9)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate([]float64{1, 2, 3}, 3))
	assert.False(t, Validate([]float64{1, 2}, 3))
	assert.False(t, Validate([]float64{1, math.NaN(), 3}, 3))
	assert.False(t, Validate([]float64{1, math.Inf(1), 3}, 3))
	assert.True(t, Validate(nil, 0))
}
