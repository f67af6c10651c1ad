package engine

import (
	"time"

	"github.com/panelmon/panelmon/theme"
)

// ScheduleEntry tracks one widget's refresh timing. Mutated only by the
// Scheduler, never shared.
type ScheduleEntry struct {
	interval time.Duration
	next     time.Time
	done     bool
}

// Scheduler computes which widgets are due per tick. It is not a timer
// itself: the engine loop sleeps until NextWake and calls Tick.
type Scheduler struct {
	entries []ScheduleEntry
}

func NewScheduler(widgets []theme.Widget, now time.Time) *Scheduler {
	s := &Scheduler{entries: make([]ScheduleEntry, len(widgets))}
	for i := range widgets {
		s.entries[i] = ScheduleEntry{interval: widgets[i].Interval, next: now}
	}
	return s
}

// Tick returns indexes of all due widgets in declaration order, then
// advances each by whole intervals past now. A long stall produces each
// overdue widget once, not once per missed interval.
func (s *Scheduler) Tick(now time.Time) []int {
	var due []int
	for i := range s.entries {
		e := &s.entries[i]
		if e.done || e.next.After(now) {
			continue
		}
		due = append(due, i)
		if e.interval <= 0 {
			e.done = true
			continue
		}
		for !e.next.After(now) {
			e.next = e.next.Add(e.interval)
		}
	}
	return due
}

// NextWake returns the time until the earliest pending entry.
// ok=false means nothing is scheduled anymore.
func (s *Scheduler) NextWake(now time.Time) (d time.Duration, ok bool) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.done {
			continue
		}
		left := e.next.Sub(now)
		if left < 0 {
			left = 0
		}
		if !ok || left < d {
			d, ok = left, true
		}
	}
	return d, ok
}
