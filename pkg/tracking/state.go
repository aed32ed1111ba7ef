package tracking

import (
	"math"
	"time"
)

// reset zeroes the trial state and appends the resulting notifications.
// Callers hold e.mu.
func (e *Engine) reset(now time.Time, events []Event) []Event {
	e.noise.Seed(e.rng.Float64())
	e.ref = e.cfg.HalfExtent()
	e.offset = 0
	e.ticks = 0

	e.trackingStart = now
	e.properStart = now

	events = append(events, Event{Kind: EventPositionChanged, Time: now})

	if e.far {
		e.far = false
		events = append(events, Event{Kind: EventDistanceCategoryChanged, Time: now, Line: e.lineStyle(false)})
	}
	if math.Floor(e.trackingSeconds) != 0 {
		events = append(events, Event{Kind: EventTrackingDurationChanged, Time: now})
	}
	if e.properRounded != 0 {
		events = append(events, Event{Kind: EventProperTrackingDurationChanged, Time: now})
	}
	if e.longProper {
		e.longProper = false
		events = append(events, Event{Kind: EventLongProperTrackingChanged, Time: now})
	}

	e.trackingSeconds = 0
	e.properSeconds = 0
	e.properRounded = 0
	return events
}

// updateDurations refreshes the tracking and proper tracking dwell times.
// Touching the boundary restarts the proper tracking timer. Callers hold e.mu.
func (e *Engine) updateDurations(now time.Time, events []Event) []Event {
	prevWhole := math.Floor(e.trackingSeconds)
	e.trackingSeconds = now.Sub(e.trackingStart).Seconds()
	if whole := math.Floor(e.trackingSeconds); whole != prevWhole {
		events = append(events, Event{Kind: EventTrackingDurationChanged, Time: now, Seconds: whole})
	}

	if math.Abs(e.offset) >= BoundaryOffset {
		e.properStart = now
	}
	proper := now.Sub(e.properStart)
	e.properSeconds = proper.Seconds()

	if rounded := math.Round(e.properSeconds); rounded != e.properRounded {
		e.properRounded = rounded
		events = append(events, Event{Kind: EventProperTrackingDurationChanged, Time: now, Seconds: rounded})
	}

	if long := proper >= e.cfg.LongProperTrackingThreshold; long != e.longProper {
		e.longProper = long
		events = append(events, Event{Kind: EventLongProperTrackingChanged, Time: now, LongProperTracking: long})
		e.logger.Info("long proper tracking changed", "long", long, "seconds", e.properRounded)
	}
	return events
}

func (e *Engine) lineStyle(far bool) LineStyle {
	if far {
		return LineStyle{Color: e.cfg.FarLineColor, Width: e.cfg.FarLineWidth}
	}
	return LineStyle{Color: e.cfg.LineColor, Width: e.cfg.LineWidth}
}

// trialInfo describes the current trial. Callers hold e.mu.
func (e *Engine) trialInfo(end time.Time) TrialInfo {
	return TrialInfo{
		Start:       e.trialStart,
		End:         end,
		Lambda:      e.lambda,
		Orientation: e.orientation,
	}
}

// emit delivers events outside the lock.
func (e *Engine) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
