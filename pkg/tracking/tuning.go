package tracking

import "time"

// TuningParams holds the adjustable dynamics of the task.
// These can be modified via the web API between trials. A nil field keeps
// the current value, so zero gains can be set explicitly.
type TuningParams struct {
	// Dynamics
	OffsetGain *float64 `json:"offset_gain,omitempty"` // Positive feedback
	InputGain  *float64 `json:"input_gain,omitempty"`  // Operator authority
	NoiseGain  *float64 `json:"noise_gain,omitempty"`  // Disturbance
	NoiseStep  *float64 `json:"noise_step,omitempty"`  // Noise phase step (rad/tick)

	// Distance category
	FarThreshold       *float64 `json:"far_threshold,omitempty"` // Pixels
	LegacyFarThreshold *bool    `json:"legacy_far_threshold,omitempty"`

	// Dwell
	LongProperTrackingSeconds *float64 `json:"long_proper_tracking_seconds,omitempty"`
}

// Tuning returns the current tuning parameters with every field set.
func (e *Engine) Tuning() TuningParams {
	cfg := e.Config()
	return TuningParams{
		OffsetGain:                &cfg.OffsetGain,
		InputGain:                 &cfg.InputGain,
		NoiseGain:                 &cfg.NoiseGain,
		NoiseStep:                 &cfg.NoiseStep,
		FarThreshold:              &cfg.FarThreshold,
		LegacyFarThreshold:        &cfg.LegacyFarThreshold,
		LongProperTrackingSeconds: ptr(cfg.LongProperTrackingThreshold.Seconds()),
	}
}

// SetTuning updates the dynamics. Only non-nil fields are applied and the
// result must pass Config.Validate. Like Reconfigure it resets the state
// and fails while a trial runs.
func (e *Engine) SetTuning(params TuningParams) error {
	cfg := e.Config()

	set(&cfg.OffsetGain, params.OffsetGain)
	set(&cfg.InputGain, params.InputGain)
	set(&cfg.NoiseGain, params.NoiseGain)
	set(&cfg.NoiseStep, params.NoiseStep)
	set(&cfg.FarThreshold, params.FarThreshold)
	set(&cfg.LegacyFarThreshold, params.LegacyFarThreshold)
	if params.LongProperTrackingSeconds != nil {
		cfg.LongProperTrackingThreshold = time.Duration(*params.LongProperTrackingSeconds * float64(time.Second))
	}

	return e.Reconfigure(cfg)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }
