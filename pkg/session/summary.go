package session

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// Summary condenses one trial.
type Summary struct {
	TrialID       string        `json:"trial_id"`
	Start         time.Time     `json:"start"`
	Duration      time.Duration `json:"duration"`
	Lambda        float64       `json:"lambda"`
	Samples       int           `json:"samples"`
	MeanAbsOffset float64       `json:"mean_abs_offset"`
	RMSOffset     float64       `json:"rms_offset"`
	MaxAbsOffset  float64       `json:"max_abs_offset"`
	InputStdDev   float64       `json:"input_std_dev"`
	FarFraction   float64       `json:"far_fraction"`
	BoundaryHits  int           `json:"boundary_hits"`
	LongestProper time.Duration `json:"longest_proper"`
}

// Summarize computes trial statistics. farOffset is the normalized far
// threshold (pixel threshold divided by the half extent).
func Summarize(t Trial, farOffset float64) Summary {
	s := Summary{
		TrialID: t.ID,
		Start:   t.Info.Start,
		Lambda:  t.Info.Lambda,
		Samples: len(t.Records),
	}
	if !t.Info.End.IsZero() {
		s.Duration = t.Info.End.Sub(t.Info.Start)
	}
	if len(t.Records) == 0 {
		return s
	}

	abs := make([]float64, len(t.Records))
	sq := make([]float64, len(t.Records))
	inputs := make([]float64, len(t.Records))

	far := 0
	atBoundary := false
	properStart := t.Info.Start
	for i, r := range t.Records {
		a := math.Abs(r.Offset)
		abs[i] = a
		sq[i] = r.Offset * r.Offset
		inputs[i] = r.Input
		s.MaxAbsOffset = math.Max(s.MaxAbsOffset, a)
		if a > farOffset {
			far++
		}

		if a >= tracking.BoundaryOffset {
			if !atBoundary {
				s.BoundaryHits++
			}
			atBoundary = true
			properStart = r.Time
		} else {
			atBoundary = false
		}
		if d := r.Time.Sub(properStart); d > s.LongestProper {
			s.LongestProper = d
		}
	}

	s.MeanAbsOffset = stat.Mean(abs, nil)
	s.RMSOffset = math.Sqrt(stat.Mean(sq, nil))
	if len(inputs) > 1 {
		s.InputStdDev = stat.StdDev(inputs, nil)
	}
	s.FarFraction = float64(far) / float64(len(t.Records))
	return s
}
