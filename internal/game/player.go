package game

import (
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/input"
)

// PlayerController moves the player across the lane from held keys.
type PlayerController struct {
	s *Session
}

// Apply moves the player by PlayerSpeed*delta for each held direction.
// Both directions may apply in one tick. Movement only starts while the
// player is inside the lane; in hard clamp mode the result is then pinned
// to the lane edge, in soft mode it may overshoot by one tick.
func (c *PlayerController) Apply(in *input.State, delta float64) {
	if delta <= 0 {
		return
	}
	cfg := c.s.cfg
	p := c.s.player
	step := cfg.PlayerSpeed * delta
	edge := cfg.LaneHalfWidth
	x := p.Lateral()

	if in.Any(input.ArrowRight, input.KeyD) && x <= edge {
		x += step
	}
	if in.Any(input.ArrowLeft, input.KeyA) && x >= -edge {
		x -= step
	}

	if cfg.ClampMode == config.ClampHard {
		x = min(max(x, -edge), edge)
	}
	p.SetLateral(x)
}
