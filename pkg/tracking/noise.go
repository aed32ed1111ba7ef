package tracking

import "math"

// NoiseSource is a deterministic perturbation: a phase accumulator driving a
// two-harmonic cosine sum. Only the starting phase is random.
type NoiseSource struct {
	phase float64
	step  float64
}

// NewNoiseSource creates a noise source advancing step radians per tick.
func NewNoiseSource(step float64) *NoiseSource {
	return &NoiseSource{step: step}
}

// Seed sets the phase, normally a uniform value in [0, 1).
func (n *NoiseSource) Seed(phase float64) {
	n.phase = phase
}

// Phase returns the current phase.
func (n *NoiseSource) Phase() float64 {
	return n.phase
}

// Next advances the phase one step and returns the perturbation, which lies
// in [-3, 1.5].
func (n *NoiseSource) Next() float64 {
	n.phase += n.step
	return (math.Cos(n.phase)*2 - 1) + (math.Cos(2*n.phase)*2-1)/2
}
