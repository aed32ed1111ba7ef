package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Add(1500*time.Millisecond), c.Now())
}

func TestMockTicker_FiresOnAdvance(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(20 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
		t.Fatal("ticker fired before Advance")
	default:
	}

	c.Advance(20 * time.Millisecond)
	select {
	case ts := <-tk.C():
		assert.Equal(t, time.Unix(0, 0).Add(20*time.Millisecond), ts)
	default:
		t.Fatal("expected tick after Advance")
	}
}

func TestMockTicker_StopSuppressesTicks(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(10 * time.Millisecond)
	tk.Stop()

	c.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockClock_IsClock(t *testing.T) {
	var c Clock = NewMockClock(time.Unix(0, 0))
	assert.Equal(t, time.Unix(0, 0), c.Now())
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	require.False(t, c.Now().Before(before))

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
