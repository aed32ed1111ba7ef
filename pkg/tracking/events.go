package tracking

import (
	"fmt"
	"time"
)

// EventKind identifies a state change published by the engine.
type EventKind string

const (
	EventRunningChanged                EventKind = "running_changed"
	EventDifficultyChanged             EventKind = "difficulty_changed"
	EventOrientationChanged            EventKind = "orientation_changed"
	EventDistanceCategoryChanged       EventKind = "distance_category_changed"
	EventTrackingDurationChanged       EventKind = "tracking_duration_changed"
	EventProperTrackingDurationChanged EventKind = "proper_tracking_duration_changed"
	EventLongProperTrackingChanged     EventKind = "long_proper_tracking_changed"
	EventPositionChanged               EventKind = "position_changed"
)

// LineStyle is how the display should draw the marker.
type LineStyle struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`

	Running bool `json:"running,omitempty"`

	DifficultyIndex int     `json:"difficulty_index,omitempty"`
	Difficulty      float64 `json:"difficulty,omitempty"`

	Orientation Orientation `json:"orientation,omitempty"`

	Far  bool      `json:"far,omitempty"`
	Line LineStyle `json:"line,omitzero"`

	// Seconds, rounded to whole seconds for the duration events.
	Seconds float64 `json:"seconds,omitempty"`

	LongProperTracking bool `json:"long_proper_tracking,omitempty"`

	Offset   float64 `json:"offset,omitempty"`
	Position float64 `json:"position,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventRunningChanged:
		return fmt.Sprintf("%s running=%v", e.Kind, e.Running)
	case EventDifficultyChanged:
		return fmt.Sprintf("%s index=%d lambda=%v", e.Kind, e.DifficultyIndex, e.Difficulty)
	case EventOrientationChanged:
		return fmt.Sprintf("%s %s", e.Kind, e.Orientation)
	case EventDistanceCategoryChanged:
		return fmt.Sprintf("%s far=%v color=%s width=%v", e.Kind, e.Far, e.Line.Color, e.Line.Width)
	case EventTrackingDurationChanged, EventProperTrackingDurationChanged:
		return fmt.Sprintf("%s %.0fs", e.Kind, e.Seconds)
	case EventLongProperTrackingChanged:
		return fmt.Sprintf("%s long=%v", e.Kind, e.LongProperTracking)
	case EventPositionChanged:
		return fmt.Sprintf("%s offset=%.4f", e.Kind, e.Offset)
	default:
		return string(e.Kind)
	}
}

// Listener receives engine events on the simulation goroutine.
// Listeners must not block and must not call back into the engine.
type Listener func(Event)
