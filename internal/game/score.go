package game

import (
	"time"

	"github.com/tomz197/rollrun/internal/sched"
)

// ScoreTracker adds a point every ScoreEvery while a run lasts and keeps
// the best score of the session in memory.
type ScoreTracker struct {
	s       *Session
	task    *sched.Task
	current int
	last    int
	high    int
}

// Start begins accrual. A running accrual is cancelled first, so there is
// never more than one.
func (t *ScoreTracker) Start() {
	t.Stop()
	t.task = t.s.tasks.Add(t.s.sched.Every(t.s.cfg.ScoreEvery, func(time.Time) {
		t.current++
		t.s.ui.SetScore(t.current)
	}))
}

// Stop cancels accrual.
func (t *ScoreTracker) Stop() {
	t.task.Cancel()
	t.task = nil
}

// Running reports whether accrual is scheduled.
func (t *ScoreTracker) Running() bool {
	return !t.task.Cancelled()
}

// Freeze stops accrual, records the run's final and high scores and zeroes
// the current score.
func (t *ScoreTracker) Freeze() {
	t.Stop()
	t.last = t.current
	t.high = max(t.high, t.current)
	t.current = 0
	t.s.ui.SetHighScore(t.high)
}

// Reset zeroes the current score and shows it.
func (t *ScoreTracker) Reset() {
	t.current = 0
	t.s.ui.SetScore(0)
}

// Current returns the score of the running run.
func (t *ScoreTracker) Current() int { return t.current }

// Last returns the final score of the most recently lost run.
func (t *ScoreTracker) Last() int { return t.last }

// High returns the best score of the session.
func (t *ScoreTracker) High() int { return t.high }
