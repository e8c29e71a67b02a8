// Package loop hosts one player's game on a terminal: it reads keys, keeps
// the render area sized to the terminal, pumps the game's scheduler once
// per display refresh and draws the HUD.
package loop

import (
	"bufio"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/clock"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/loop/server"
	"github.com/tomz197/rollrun/internal/render"
)

// Options configures a hosted game.
type Options struct {
	Config       config.Config
	TermSizeFunc render.TermSizeFunc
	Sound        audio.Sound
	Logger       *log.Logger
	Clock        clock.Clock
	// Board receives the score of every lost run; nil plays offline.
	Board    server.Board
	Username string

	// Styler renders colours for the connected terminal.
	Styler      *lipgloss.Renderer
	Environment *render.Environment
	// Debug shows frame and obstacle counters on the bottom row.
	Debug bool
}

// Run plays until the player quits, the input ends or the board shuts down.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	c, err := NewClient(r, w, opts)
	if err != nil {
		return err
	}
	return c.Run()
}
