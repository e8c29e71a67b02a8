// Package sched is a single-threaded cooperative scheduler modelled on a
// browser host: interval timers and display-frame callbacks interleave on the
// caller's goroutine, and every task is cancellable.
package sched

import (
	"time"

	"github.com/tomz197/rollrun/internal/clock"
)

// minPeriod is the shortest interval a timer may use.
const minPeriod = time.Millisecond

// Task is a scheduled interval timer or frame callback.
type Task struct {
	id        uint64
	period    time.Duration // 0 for frame callbacks
	next      time.Time
	fn        func(now time.Time)
	cancelled bool
}

// Cancel stops the task. Safe to call more than once and from inside the
// task's own callback.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t == nil || t.cancelled
}

// Scheduler owns the timers and frame callbacks of one host.
type Scheduler struct {
	clock  clock.Clock
	timers []*Task
	frames []*Task
	nextID uint64
}

// New creates a scheduler reading time from c.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Every runs fn once per period, starting one period from now.
// fn receives the time the run was due.
func (s *Scheduler) Every(period time.Duration, fn func(now time.Time)) *Task {
	if period < minPeriod {
		period = minPeriod
	}
	s.nextID++
	t := &Task{
		id:     s.nextID,
		period: period,
		next:   s.clock.Now().Add(period),
		fn:     fn,
	}
	s.timers = append(s.timers, t)
	return t
}

// RequestFrame runs fn once on the next display frame.
func (s *Scheduler) RequestFrame(fn func(now time.Time)) *Task {
	s.nextID++
	t := &Task{id: s.nextID, fn: fn}
	s.frames = append(s.frames, t)
	return t
}

// RunTimers fires every timer due at or before now, oldest due time first.
// A timer that missed several periods fires once per missed period.
func (s *Scheduler) RunTimers(now time.Time) {
	for {
		t := s.nextDue(now)
		if t == nil {
			break
		}
		due := t.next
		t.next = t.next.Add(t.period)
		t.fn(due)
	}
	s.compact()
}

// nextDue returns the live timer with the earliest due time not after now.
// Ties go to the timer created first.
func (s *Scheduler) nextDue(now time.Time) *Task {
	var best *Task
	for _, t := range s.timers {
		if t.cancelled || t.next.After(now) {
			continue
		}
		if best == nil || t.next.Before(best.next) || (t.next.Equal(best.next) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// compact drops cancelled timers.
func (s *Scheduler) compact() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if !t.cancelled {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = kept
}

// RunFrame runs the callbacks requested before this frame started.
// Callbacks requested while it runs wait for the next frame.
func (s *Scheduler) RunFrame(now time.Time) {
	pending := s.frames
	s.frames = nil
	for _, t := range pending {
		if t.cancelled {
			continue
		}
		t.cancelled = true
		t.fn(now)
	}
}

// Pump runs due timers and then one display frame.
func (s *Scheduler) Pump(now time.Time) {
	s.RunTimers(now)
	s.RunFrame(now)
}

// Timers returns the number of live interval timers.
func (s *Scheduler) Timers() int {
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// FramePending reports whether a frame callback is waiting.
func (s *Scheduler) FramePending() bool {
	for _, t := range s.frames {
		if !t.cancelled {
			return true
		}
	}
	return false
}
