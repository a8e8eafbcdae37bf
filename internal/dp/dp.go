// Package dp implements the differential-privacy primitives applied to
// federated model updates: L2 clipping followed by calibrated Gaussian noise.
package dp

import (
	"math"
	"math/rand"
)

// Clip scales v down so its L2 norm is at most clipNorm. Vectors already
// inside the ball are returned unchanged. The input slice is not modified.
func Clip(v []float64, clipNorm float64) []float64 {
	out := make([]float64, len(v))
	norm := l2Norm(v)
	if norm > clipNorm {
		scale := clipNorm / norm
		for i, x := range v {
			out[i] = x * scale
		}
		return out
	}
	copy(out, v)
	return out
}

// Processor applies the full clip-then-noise pipeline. Noise std is
// noiseMultiplier * clipNorm. The random source is injected so callers can
// pin it down in tests.
type Processor struct {
	ClipNorm        float64
	NoiseMultiplier float64
	rng             *rand.Rand
}

// NewProcessor builds a Processor around the given random source. A nil rng
// gets a time-independent default seed; production callers should pass their
// own seeded source.
func NewProcessor(clipNorm, noiseMultiplier float64, rng *rand.Rand) *Processor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Processor{ClipNorm: clipNorm, NoiseMultiplier: noiseMultiplier, rng: rng}
}

// AddNoise adds N(0, sigma^2) noise elementwise, sigma = NoiseMultiplier * ClipNorm.
func (p *Processor) AddNoise(v []float64) []float64 {
	sigma := p.NoiseMultiplier * p.ClipNorm
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x + p.rng.NormFloat64()*sigma
	}
	return out
}

// Apply runs the full pipeline: clip to ClipNorm, then add Gaussian noise.
func (p *Processor) Apply(v []float64) []float64 {
	return p.AddNoise(Clip(v, p.ClipNorm))
}

// Validate reports whether v is a finite real vector of exactly dim elements.
func Validate(v []float64, dim int) bool {
	if len(v) != dim {
		return false
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
