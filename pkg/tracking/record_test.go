package tracking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordFormat(t *testing.T) {
	r := Record{
		Time:   time.UnixMilli(1767261600123),
		Lambda: 1.5,
		Offset: -0.5,
		Input:  0.25,
	}
	assert.Equal(t, "1767261600123\t1.5\t-0.5000\t0.2500", r.Format())

	assert.Len(t, strings.Split(RecordHeader, "\t"), 4)
	assert.True(t, strings.HasPrefix(RecordHeader, "time\tlambda"))
}

func TestEventString(t *testing.T) {
	ev := Event{Kind: EventDifficultyChanged, DifficultyIndex: 3, Difficulty: 2}
	assert.Equal(t, "difficulty_changed index=3 lambda=2", ev.String())

	ev = Event{Kind: EventProperTrackingDurationChanged, Seconds: 12}
	assert.Equal(t, "proper_tracking_duration_changed 12s", ev.String())
}
