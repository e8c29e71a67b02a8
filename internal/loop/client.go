package loop

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/rollrun/internal/clock"
	"github.com/tomz197/rollrun/internal/game"
	"github.com/tomz197/rollrun/internal/hud"
	"github.com/tomz197/rollrun/internal/input"
	hostcfg "github.com/tomz197/rollrun/internal/loop/config"
	"github.com/tomz197/rollrun/internal/loop/server"
	"github.com/tomz197/rollrun/internal/render"
	"github.com/tomz197/rollrun/internal/sched"
)

// Client hosts one game session on one terminal.
type Client struct {
	opts     Options
	log      *log.Logger
	clock    clock.Clock
	sched    *sched.Scheduler
	session  *game.Session
	hud      *hud.HUD
	renderer *render.Renderer
	cw       *render.ChunkWriter // Accumulates frame and UI text for chunked output
	writer   io.Writer
	stream   *input.Stream
	board    server.Board
	handle   *server.Handle
	state    clientState
	framed   bool // A frame was rendered during the current step
	err      error
}

// NewClient creates a client drawing to w and reading keys from r.
func NewClient(r *bufio.Reader, w io.Writer, opts Options) (*Client, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.TermSizeFunc == nil {
		opts.TermSizeFunc = render.DefaultTermSizeFunc
	}
	opts.Username = truncateName(opts.Username)

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Username != "" {
		logger = logger.With("user", opts.Username)
	}

	ui, err := hud.New(hud.DefaultElements(opts.Styler))
	if err != nil {
		return nil, err
	}

	// Create renderer with clamped dimensions for max render resolution
	termWidth, termHeight, err := opts.TermSizeFunc.Size()
	if err != nil {
		logger.Warn("terminal size unavailable, assuming 80x24", "err", err)
		termWidth, termHeight = 80, 24
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	renderer := render.NewRenderer(renderWidth, renderHeight)
	if opts.Styler != nil {
		renderer.SetStyler(opts.Styler)
	}
	renderer.Canvas().SetOffset(offsetCol, offsetRow)

	c := &Client{
		opts:     opts,
		log:      logger,
		clock:    opts.Clock,
		sched:    sched.New(opts.Clock),
		hud:      ui,
		renderer: renderer,
		cw:       render.NewChunkWriter(w, offsetCol, offsetRow),
		writer:   w,
		board:    opts.Board,
		state:    newClientState(opts.Clock.Now()),
	}

	c.session, err = game.New(game.Options{
		Config:      opts.Config,
		Scheduler:   c.sched,
		UI:          ui,
		Sound:       opts.Sound,
		Logger:      logger,
		Environment: opts.Environment,
		Aspect:      renderer.Aspect(),
		OnFrame:     c.drawScene,
	})
	if err != nil {
		return nil, err
	}

	if c.board != nil {
		c.handle = c.board.Register(opts.Username)
	}
	c.stream = input.StartStream(r)
	return c, nil
}

// Run starts the game and the display loop. Blocks until the player quits,
// the input ends or the board shuts down.
func (c *Client) Run() error {
	render.HideCursor(c.writer)
	defer render.ShowCursor(c.writer)
	render.ClearScreen(c.writer)

	c.session.Start()
	c.log.Info("client started")

	ticker := time.NewTicker(time.Second / time.Duration(c.opts.Config.FPS))
	defer ticker.Stop()

	for c.state.Running {
		c.step(c.clock.Now())
		if c.state.Running {
			<-ticker.C
		}
	}

	c.session.Stop()
	if c.handle != nil {
		c.board.Unregister(c.handle.ID)
	}
	render.ClearScreen(c.writer)
	c.log.Info("client stopped", "runs", c.session.Stats().Runs, "high", c.session.Score.High())
	return c.err
}

// step runs one display refresh: input, events, resize, the game's timers
// and frame, then the overlay.
func (c *Client) step(now time.Time) {
	keys := c.stream.Poll(c.session.Input(), now)
	if c.stream.Closed() {
		c.state.Running = false
		return
	}
	c.processInput(keys, now)
	c.processServerEvents(now)
	if !c.state.Running {
		return
	}
	c.updateScreen()

	if c.hud.NeedsRepaint() {
		c.state.repaint = true
	}
	repaint := c.state.repaint
	if repaint {
		c.state.repaint = false
		render.ClearScreen(c.cw)
		c.renderer.Canvas().ForceRedraw()
		c.renderer.Canvas().RenderBorder(c.cw)
	}

	switch c.state.State {
	case StatePlaying:
		c.framed = false
		c.sched.Pump(now)
		c.submitLoss()
		if repaint && !c.framed {
			c.drawScene(c.session.Scene(), c.session.Camera())
		}
		if c.state.inactive {
			c.drawInactivityScreen(now)
		} else if c.framed || c.hud.Changed() {
			c.drawHUD()
		}
	case StateShutdown:
		c.updateShutdownState(now)
		c.drawShutdownScreen(now)
	}

	if err := c.cw.Flush(); err != nil {
		c.err = err
		c.state.Running = false
	}
}

// processInput handles inactivity and the host keys. Held keys already
// went to the session's input state.
func (c *Client) processInput(keys []string, now time.Time) {
	if len(keys) > 0 {
		if c.state.inactive {
			c.state.repaint = true
		}
		c.state.lastInput = now
		c.state.inactive = false
	} else if idle := now.Sub(c.state.lastInput).Seconds(); idle > hostcfg.InactivityDisconnectUser {
		c.log.Info("disconnecting inactive client")
		c.state.Running = false
	} else if idle > hostcfg.InactivityWarnUser {
		c.state.inactive = true
	}

	for _, k := range keys {
		switch k {
		case input.KeyQ:
			c.state.Running = false
		case input.KeyR:
			if c.state.State == StatePlaying {
				c.session.Reset()
			}
		case input.Enter, input.Space:
			if c.state.State == StatePlaying && c.session.Phase() == game.Lost {
				c.session.Retry()
			}
		}
	}
}

// processServerEvents handles events from the board.
func (c *Client) processServerEvents(now time.Time) {
	if c.handle == nil {
		return
	}
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			if event.Type == server.EventServerShutdown && c.state.State != StateShutdown {
				c.session.Stop()
				c.state.State = StateShutdown
				c.state.shutdownAt = now
				c.state.repaint = true
			}
		default:
			return
		}
	}
}

// submitLoss sends the score of a just-lost run to the board, once per run.
func (c *Client) submitLoss() {
	runs := c.session.Stats().Runs
	if c.session.Phase() != game.Lost || c.state.submittedRun == runs {
		return
	}
	c.state.submittedRun = runs
	if c.handle == nil {
		return
	}
	c.board.Submit(c.handle.ID, c.session.Score.Last())
	c.state.leaders = c.board.Top(hostcfg.LeaderboardSize)
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new render area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.opts.TermSizeFunc.Size()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	canvas := c.renderer.Canvas()
	if renderWidth != canvas.TerminalWidth() || renderHeight != canvas.TerminalHeight() ||
		offsetCol != canvas.OffsetCol() || offsetRow != canvas.OffsetRow() {
		c.state.repaint = true
	}

	c.renderer.SetSize(renderWidth, renderHeight, c.session.Camera())
	canvas.SetOffset(offsetCol, offsetRow)
	c.cw.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, hostcfg.MaxTermWidth)
	renderHeight = min(termHeight, hostcfg.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// drawScene renders a frame into the output buffer.
func (c *Client) drawScene(scene *render.Scene, cam *render.PerspectiveCamera) {
	c.renderer.Render(scene, cam)
	c.renderer.Flush(c.cw)
	c.framed = true
}

// drawHUD draws the score, the lose screen and, after a loss, the leaderboard.
func (c *Client) drawHUD() {
	canvas := c.renderer.Canvas()
	width, height := canvas.TerminalWidth(), canvas.TerminalHeight()

	if c.opts.Debug {
		st := c.session.Stats()
		c.hud.Debug = fmt.Sprintf("frames %d  steps %d  obstacles %d  hits %d  sent %dKiB",
			st.Frames, c.session.World().Steps(), c.session.Pool().Len(), st.Hits, c.cw.Flushed()/1024)
	}
	c.hud.Draw(c.cw, width, height)
	if c.session.Phase() == game.Lost {
		c.drawLeaderboard(width)
	}
}

func (c *Client) updateShutdownState(now time.Time) {
	if now.Sub(c.state.shutdownAt).Seconds() >= hostcfg.ShutdownDisplaySeconds {
		c.state.Running = false
	}
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > hostcfg.MaxUsernameLength {
		r = r[:hostcfg.MaxUsernameLength]
	}
	return string(r)
}
