package loop

import (
	"time"

	"github.com/tomz197/rollrun/internal/loop/server"
)

// HostState is what the host shows.
type HostState int

const (
	StatePlaying  HostState = iota // The game, with its HUD
	StateShutdown                  // Board is shutting down; countdown to disconnect
)

// clientState holds per-connection state that is not part of the game.
type clientState struct {
	State   HostState
	Running bool

	lastInput  time.Time
	inactive   bool
	repaint    bool // Clear the terminal and redraw everything on the next step
	shutdownAt time.Time

	submittedRun int // Last run whose score went to the board
	leaders      []server.Entry
}

func newClientState(now time.Time) clientState {
	return clientState{
		State:     StatePlaying,
		Running:   true,
		lastInput: now,
		repaint:   true,
	}
}
