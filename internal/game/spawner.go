package game

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/rollrun/internal/object"
	"github.com/tomz197/rollrun/internal/sched"
)

// Spawner drops batches of obstacles ahead of the player on a timer.
type Spawner struct {
	s      *Session
	task   *sched.Task
	period time.Duration
}

// Start schedules batches at a period drawn once from
// [SpawnPeriodMin, SpawnPeriodMax). A previous schedule is cancelled first.
// A zero SpawnBatch schedules nothing.
func (sp *Spawner) Start() {
	sp.Stop()
	cfg := sp.s.cfg
	if cfg.SpawnBatch == 0 {
		return
	}
	sp.period = cfg.SpawnPeriodMin + time.Duration(sp.s.rnd.Float64()*float64(cfg.SpawnPeriodMax-cfg.SpawnPeriodMin))
	sp.task = sp.s.tasks.Add(sp.s.sched.Every(sp.period, func(now time.Time) {
		sp.SpawnBatch(now)
	}))
}

// Stop cancels the schedule.
func (sp *Spawner) Stop() {
	sp.task.Cancel()
	sp.task = nil
}

// Period returns the period drawn by the last Start.
func (sp *Spawner) Period() time.Duration {
	return sp.period
}

// SpawnBatch creates SpawnBatch obstacles created at now. Each has a
// radius in [SpawnRadiusMin, SpawnRadiusMax), rests on the floor, sits at a
// random lateral position across the lane and lies SpawnAheadMin to
// SpawnAheadMax ahead of the player.
func (sp *Spawner) SpawnBatch(now time.Time) []*object.Obstacle {
	cfg := sp.s.cfg
	rnd := sp.s.rnd
	playerZ := sp.s.player.Body.Position.Z()

	batch := make([]*object.Obstacle, 0, cfg.SpawnBatch)
	for i := 0; i < cfg.SpawnBatch; i++ {
		radius := cfg.SpawnRadiusMin + rnd.Float64()*(cfg.SpawnRadiusMax-cfg.SpawnRadiusMin)
		pos := mgl64.Vec3{
			(rnd.Float64() - 0.5) * 2 * cfg.LaneHalfWidth,
			radius,
			playerZ - (cfg.SpawnAheadMin + rnd.Float64()*(cfg.SpawnAheadMax-cfg.SpawnAheadMin)),
		}
		batch = append(batch, sp.s.spawnObstacle(radius, pos, now))
	}
	sp.s.log.Debug("spawned batch", "count", len(batch), "live", sp.s.pool.Len())
	return batch
}

// spawnObstacle creates one randomly coloured obstacle and adds it to the pool.
func (s *Session) spawnObstacle(radius float64, pos mgl64.Vec3, now time.Time) *object.Obstacle {
	color := colorful.Color{R: s.rnd.Float64(), G: s.rnd.Float64(), B: s.rnd.Float64()}
	o := object.NewObstacle(s.ids.Next(), radius, pos, color, s.style, s.material, now)
	s.pool.Add(o)
	s.stats.Spawned++
	return o
}
