package tone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

func newTestGenerator(t *testing.T, mutate func(*Config)) *Generator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := NewGenerator(cfg, testRate)
	require.NoError(t, err)
	return g
}

func channel(buf []float32, ch int) []float32 {
	out := make([]float32, 0, len(buf)/Channels)
	for i := ch; i < len(buf); i += Channels {
		out = append(out, buf[i])
	}
	return out
}

func allZero(samples []float32) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}

func TestRender_SilentAtZeroFactor(t *testing.T) {
	for _, w := range []Waveform{Sine, Triangle, HarmonicSeries} {
		t.Run(w.String(), func(t *testing.T) {
			g := newTestGenerator(t, func(c *Config) { c.Waveform = w })
			g.SetPitchFactor(0)

			buf := g.RenderFrames(1000)
			assert.True(t, allZero(buf), "expected silence at factor 0")
		})
	}
}

func TestRender_ChannelRouting(t *testing.T) {
	g := newTestGenerator(t, nil)

	g.SetPitchFactor(-0.5)
	assert.Equal(t, -500.0, g.Frequency())
	buf := g.RenderFrames(400)
	assert.False(t, allZero(channel(buf, 0)), "left should sound for negative error")
	assert.True(t, allZero(channel(buf, 1)), "right should be silent for negative error")

	g.SetPitchFactor(0.5)
	buf = g.RenderFrames(400)
	assert.True(t, allZero(channel(buf, 0)), "left should be silent for positive error")
	assert.False(t, allZero(channel(buf, 1)), "right should sound for positive error")
}

func TestRender_SineValues(t *testing.T) {
	g := newTestGenerator(t, nil)
	g.SetPitchFactor(1) // 1000 Hz at 8 kHz: eight samples per cycle

	right := channel(g.RenderFrames(8), 1)
	for k, s := range right {
		assert.InDelta(t, math.Sin(float64(k)*math.Pi/4), float64(s), 1e-6, "sample %d", k)
	}
}

func TestRender_TriangleValues(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) { c.Waveform = Triangle })
	g.SetPitchFactor(1)

	right := channel(g.RenderFrames(8), 1)
	want := []float64{-1, -0.5, 0, 0.5, 1, 0.5, 0, -0.5}
	for k := range want {
		assert.InDelta(t, want[k], float64(right[k]), 1e-6, "sample %d", k)
	}
}

func TestRender_HarmonicsBounded(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) { c.Waveform = HarmonicSeries })
	g.SetPitchFactor(-0.37)

	for _, s := range channel(g.RenderFrames(4000), 0) {
		require.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}
}

func TestRender_Gain(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) { c.Waveform = Triangle })
	g.SetGain(0.5)
	g.SetPitchFactor(1)

	right := channel(g.RenderFrames(1), 1)
	assert.InDelta(t, -0.5, float64(right[0]), 1e-6)

	g.SetGain(3)
	assert.Equal(t, 1.0, g.Gain())
}

func TestRender_PulseFraction(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) {
		c.PulseDurationMs = 50
		c.MaxFrequencyHz = 200
	})
	g.SetPitchFactor(1)
	assert.Equal(t, GateOff, g.GateMode())

	interval := PulseInterval(200)
	require.InDelta(t, 3000/math.E, interval, 1e-9)

	// The first interval is silent.
	first := g.RenderFrames(int(interval * testRate / 1000))
	assert.True(t, allZero(first))

	buf := g.RenderFrames(30 * testRate)
	left, right := channel(buf, 0), channel(buf, 1)
	assert.True(t, allZero(left), "gated tone must stay on its channel")

	audible := 0
	for _, s := range right {
		if s != 0 {
			audible++
		}
	}
	fraction := float64(audible) / float64(len(right))
	assert.InDelta(t, 50/interval, fraction, 0.01)
}

func TestRender_PulseUsesFixedPitch(t *testing.T) {
	g := newTestGenerator(t, func(c *Config) { c.PulseDurationMs = 100 })
	g.SetPitchFactor(1)

	// Skip past the first silent interval into the burst.
	interval := PulseInterval(1000)
	g.RenderFrames(int(interval*testRate/1000) + 2)
	require.Equal(t, GateOn, g.GateMode())

	// 200 Hz at 8 kHz is 40 samples per cycle.
	right := channel(g.RenderFrames(80), 1)
	crossings := 0
	for i := 1; i < len(right); i++ {
		if (right[i-1] < 0) != (right[i] < 0) {
			crossings++
		}
	}
	assert.InDelta(t, 3, crossings, 1)
}

func TestReset(t *testing.T) {
	g := newTestGenerator(t, nil)
	assert.Equal(t, GateContinuous, g.GateMode())

	g.SetPulseDuration(20)
	g.Reset()
	assert.Equal(t, GateOff, g.GateMode())

	g.SetPulseDuration(-5)
	assert.Equal(t, 0, g.PulseDuration())
	g.Reset()
	assert.Equal(t, GateContinuous, g.GateMode())
}

func TestSetWaveform(t *testing.T) {
	g := newTestGenerator(t, nil)
	require.NoError(t, g.SetWaveform(HarmonicSeries))
	assert.Equal(t, HarmonicSeries, g.Waveform())
	assert.ErrorIs(t, g.SetWaveform(Waveform(9)), ErrUnknownWaveform)
	assert.Equal(t, HarmonicSeries, g.Waveform())
}

func TestPulseInterval(t *testing.T) {
	assert.Equal(t, MaxPulseInterval, PulseInterval(0))
	assert.InDelta(t, PulseInterval(300), PulseInterval(-300), 1e-12)
	assert.Less(t, PulseInterval(1000), PulseInterval(100))
}

func TestPitchCurve(t *testing.T) {
	assert.Equal(t, 500.0, PitchLinear.Frequency(0.5, 1000))
	assert.Equal(t, -1000.0, PitchLinear.Frequency(-1, 1000))

	assert.Equal(t, 0.0, PitchExponential.Frequency(0, 1000))
	assert.InDelta(t, 1000, PitchExponential.Frequency(1, 1000), 1e-9)
	assert.InDelta(t, -1000, PitchExponential.Frequency(-1, 1000), 1e-9)
	assert.Less(t, PitchExponential.Frequency(0.5, 1000), 500.0)
}

func TestSetPitchFactor_Clamps(t *testing.T) {
	g := newTestGenerator(t, nil)
	g.SetPitchFactor(4)
	assert.Equal(t, 1000.0, g.Frequency())
	g.SetPitchFactor(-4)
	assert.Equal(t, -1000.0, g.Frequency())
}
