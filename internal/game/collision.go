package game

import (
	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/physics"
)

// CollisionListener turns collisions into hit sounds, quieter the further
// they are from the player.
type CollisionListener struct {
	s *Session
}

// Handle plays the hit sound for one collision event.
func (c *CollisionListener) Handle(e physics.CollideEvent) {
	distance := physics.Distance(c.s.player.Body.Position, e.Contact.Point)
	volume, play := audio.HitVolume(e.Contact.ImpactVelocity, distance, true, c.s.rnd.Float64)
	if !play {
		return
	}
	c.s.stats.Hits++
	c.s.sound.Play(volume)
}
