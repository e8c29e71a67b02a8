package game

// Retry starts a new run from any state. Obstacles are removed, the player
// is rebuilt at the start position, the score restarts from zero and the
// lose screen is hidden. Every task of the previous run is cancelled before
// the new ones start, so repeated retries never stack timers.
func (s *Session) Retry() {
	s.pool.Clear()
	s.spawnPlayer()
	s.input.Reset()

	s.ui.HideLose()
	s.Score.Reset()
	s.begin()
	s.log.Info("run restarted", "high", s.Score.High())
}

// Reset removes every obstacle without touching the player, the score or
// the phase.
func (s *Session) Reset() {
	n := s.pool.Clear()
	s.log.Debug("obstacles reset", "removed", n)
}
