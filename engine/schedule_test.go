package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelmon/panelmon/theme"
)

func TestSchedulerTick(t *testing.T) {
	t.Parallel()
	t0 := time.Unix(1000, 0)
	ws := []theme.Widget{
		{Name: "fast", Interval: 100 * time.Millisecond},
		{Name: "slow", Interval: time.Second},
		{Name: "static", Interval: 0},
	}
	s := NewScheduler(ws, t0)

	// everything due at start, declaration order
	assert.Equal(t, []int{0, 1, 2}, s.Tick(t0))
	// static entry never reschedules
	assert.Empty(t, s.Tick(t0))

	assert.Equal(t, []int{0}, s.Tick(t0.Add(100*time.Millisecond)))
	assert.Equal(t, []int{0, 1}, s.Tick(t0.Add(time.Second)))
}

func TestSchedulerStallNoBurst(t *testing.T) {
	t.Parallel()
	t0 := time.Unix(1000, 0)
	ws := []theme.Widget{{Name: "w", Interval: 10 * time.Millisecond}}
	s := NewScheduler(ws, t0)
	require.Equal(t, []int{0}, s.Tick(t0))

	// 100 intervals missed: due once, not 100 times
	stalled := t0.Add(time.Second)
	assert.Equal(t, []int{0}, s.Tick(stalled))
	assert.Empty(t, s.Tick(stalled))
	assert.Equal(t, []int{0}, s.Tick(stalled.Add(10*time.Millisecond)))
}

func TestSchedulerNextWake(t *testing.T) {
	t.Parallel()
	t0 := time.Unix(1000, 0)
	ws := []theme.Widget{
		{Name: "a", Interval: time.Second},
		{Name: "b", Interval: 300 * time.Millisecond},
		{Name: "c", Interval: 0},
	}
	s := NewScheduler(ws, t0)
	s.Tick(t0)

	d, ok := s.NextWake(t0)
	require.True(t, ok)
	assert.Equal(t, 300*time.Millisecond, d)

	// render-once entries do not hold the loop awake
	ws2 := []theme.Widget{{Name: "static", Interval: 0}}
	s2 := NewScheduler(ws2, t0)
	s2.Tick(t0)
	_, ok = s2.NextWake(t0)
	assert.False(t, ok)
}
