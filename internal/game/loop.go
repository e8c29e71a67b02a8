package game

import (
	"time"

	"github.com/tomz197/rollrun/internal/physics"
	"github.com/tomz197/rollrun/internal/sched"
)

// GameLoop is the per-frame driver. It runs once per display frame while
// the session is running and reschedules itself until the run is lost.
type GameLoop struct {
	s        *Session
	frame    *sched.Task
	last     time.Time
	anchored bool
}

// Start requests the first frame. The first tick only anchors the clock.
func (l *GameLoop) Start() {
	l.frame.Cancel()
	l.anchored = false
	l.frame = l.s.tasks.Add(l.s.sched.RequestFrame(l.Tick))
}

// Running reports whether a frame is scheduled.
func (l *GameLoop) Running() bool {
	return !l.frame.Cancelled()
}

// Tick advances the session to now.
func (l *GameLoop) Tick(now time.Time) {
	s := l.s
	cfg := s.cfg

	delta := 0.0
	if l.anchored {
		delta = now.Sub(l.last).Seconds()
	}
	l.last, l.anchored = now, true

	s.world.Step(cfg.FixedStep.Seconds(), delta, cfg.MaxSubSteps)

	player := s.player
	lost := false
	for _, o := range s.pool.Live() {
		o.Body.Position[2] += cfg.ConveyorStep
		o.Sync()
		if o.ID != player.ID && physics.PointInSphere(o.Body.Position, player.Body.Position, cfg.LoseRadius) {
			lost = true
		}
	}
	s.pool.Expire(now)

	player.Sync()
	s.Controller.Apply(s.input, delta)

	if s.onFrame != nil {
		s.onFrame(s.scene, s.camera)
	}

	cam := s.camera
	cam.Position[0] = player.Body.Position.X()
	cam.Position[2] = player.Body.Position.Z() + cfg.PlayerRadius*cameraBehind
	cam.LookAt(player.Mesh.Position)

	s.stats.Frames++

	if lost {
		s.lose(now)
		return
	}
	l.frame = s.tasks.Add(s.sched.RequestFrame(l.Tick))
}
