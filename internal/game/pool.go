package game

import (
	"time"

	"github.com/tomz197/rollrun/internal/object"
)

// ObstaclePool tracks the live obstacles. Every obstacle in the pool has
// its body in the world and its mesh in the scene; removing it takes both
// out together and drops its collision subscription.
type ObstaclePool struct {
	s     *Session
	live  []*object.Obstacle
	unsub map[object.EntityID]func()
}

func newObstaclePool(s *Session) *ObstaclePool {
	return &ObstaclePool{s: s, unsub: make(map[object.EntityID]func())}
}

// Add puts o into the world and the scene and subscribes the collision listener.
func (p *ObstaclePool) Add(o *object.Obstacle) {
	if _, ok := p.unsub[o.ID]; ok {
		return
	}
	p.unsub[o.ID] = o.Body.OnCollide(p.s.Collisions.Handle)
	p.s.world.AddBody(o.Body)
	p.s.scene.Add(o.Mesh)
	p.live = append(p.live, o)
}

// Live returns the live obstacles in creation order. The slice must not be modified.
func (p *ObstaclePool) Live() []*object.Obstacle {
	return p.live
}

// Len returns the number of live obstacles.
func (p *ObstaclePool) Len() int {
	return len(p.live)
}

// Expire removes every obstacle at least ObstacleTTL old at now and
// returns how many were removed.
func (p *ObstaclePool) Expire(now time.Time) int {
	ttl := p.s.cfg.ObstacleTTL
	kept := p.live[:0]
	removed := 0
	for _, o := range p.live {
		if o.Expired(now, ttl) {
			p.release(o)
			removed++
			continue
		}
		kept = append(kept, o)
	}
	clear(p.live[len(kept):])
	p.live = kept
	p.s.stats.Expired += removed
	return removed
}

// Clear removes every obstacle and returns how many there were.
func (p *ObstaclePool) Clear() int {
	n := len(p.live)
	for _, o := range p.live {
		p.release(o)
	}
	clear(p.live)
	p.live = p.live[:0]
	return n
}

func (p *ObstaclePool) release(o *object.Obstacle) {
	if unsub, ok := p.unsub[o.ID]; ok {
		unsub()
		delete(p.unsub, o.ID)
	}
	p.s.world.RemoveBody(o.Body)
	p.s.scene.Remove(o.Mesh)
}
