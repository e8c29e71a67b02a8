package loop

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/rollrun/internal/clock"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/game"
	"github.com/tomz197/rollrun/internal/input"
	"github.com/tomz197/rollrun/internal/loop/server"
)

const clearSeq = "\033[H\033[2J"

type harness struct {
	c     *Client
	clk   *clock.Mock
	out   *bytes.Buffer
	board *server.Leaderboard
	cols  int
	rows  int
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	h := &harness{
		clk:   clock.NewMock(time.Unix(1000, 0)),
		out:   &bytes.Buffer{},
		board: server.NewLeaderboard(),
		cols:  40,
		rows:  12,
	}
	c, err := NewClient(bufio.NewReader(pr), h.out, Options{
		Config:       cfg,
		TermSizeFunc: func() (int, int, error) { return h.cols, h.rows, nil },
		Clock:        h.clk,
		Board:        h.board,
		Username:     "ann",
		Styler:       lipgloss.NewRenderer(io.Discard),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.session.Start()
	h.c = c
	return h
}

// advance steps the client in 10ms increments.
func (h *harness) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 10 * time.Millisecond {
		h.c.step(h.clk.Advance(10 * time.Millisecond))
	}
}

func quietConfig() config.Config {
	cfg := config.Default()
	cfg.SpawnBatch = 0
	return cfg
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.FPS = 0
	_, err := NewClient(bufio.NewReader(strings.NewReader("")), io.Discard, Options{
		Config:       cfg,
		TermSizeFunc: func() (int, int, error) { return 40, 12, nil },
	})
	if err == nil {
		t.Fatal("expected an error for FPS 0")
	}
}

func TestStepRendersFrameAndHUD(t *testing.T) {
	h := newHarness(t, quietConfig())

	h.c.step(h.clk.Now())
	if got := h.c.renderer.Frames(); got != 1 {
		t.Fatalf("Frames = %d after first step, want 1", got)
	}
	out := h.out.String()
	if !strings.HasPrefix(out, clearSeq) {
		t.Error("first step should clear the terminal")
	}
	if !strings.Contains(out, "Score: 0") {
		t.Error("HUD not drawn")
	}

	h.out.Reset()
	h.advance(200 * time.Millisecond)
	if got := h.c.renderer.Frames(); got != 21 {
		t.Errorf("Frames = %d, want 21", got)
	}
	if !strings.Contains(h.out.String(), "Score: 2") {
		t.Error("score did not advance on the HUD")
	}
}

func TestLossSubmitsScoreAndRetries(t *testing.T) {
	cfg := config.Default()
	cfg.LoseRadius = 1000
	cfg.SpawnPeriodMin = 250 * time.Millisecond
	cfg.SpawnPeriodMax = 250 * time.Millisecond
	h := newHarness(t, cfg)

	h.c.step(h.clk.Now())
	h.advance(300 * time.Millisecond)
	if h.c.session.Phase() != game.Lost {
		t.Fatalf("phase = %v, want lost", h.c.session.Phase())
	}
	if !h.c.hud.LoseVisible() {
		t.Fatal("lose screen not shown")
	}

	top := h.board.Top(5)
	if len(top) != 1 || top[0].Username != "ann" {
		t.Fatalf("board = %+v, want one entry for ann", top)
	}
	if top[0].Score != h.c.hud.Score() || top[0].Score == 0 {
		t.Errorf("submitted %d, HUD shows %d", top[0].Score, h.c.hud.Score())
	}
	if !strings.Contains(h.out.String(), "TOP SCORES") {
		t.Error("leaderboard not drawn after the loss")
	}

	frames := h.c.renderer.Frames()
	h.advance(100 * time.Millisecond)
	if h.c.renderer.Frames() != frames {
		t.Error("frames rendered while lost")
	}

	h.c.processInput([]string{input.Enter}, h.clk.Now())
	if h.c.session.Phase() != game.Running {
		t.Fatal("Enter did not retry")
	}
	if h.c.hud.LoseVisible() {
		t.Error("lose screen still visible after retry")
	}

	h.out.Reset()
	h.c.step(h.clk.Advance(10 * time.Millisecond))
	if !strings.HasPrefix(h.out.String(), clearSeq) {
		t.Error("retry should repaint the whole terminal")
	}
	if got := h.c.session.Stats().Runs; got != 2 {
		t.Errorf("Runs = %d, want 2", got)
	}
}

type submissions struct {
	*server.Leaderboard
	scores []int
}

func (s *submissions) Submit(id, score int) {
	s.scores = append(s.scores, score)
	s.Leaderboard.Submit(id, score)
}

func TestSubmitSendsFrozenRunScore(t *testing.T) {
	cfg := config.Default()
	cfg.LoseRadius = 1000
	cfg.SpawnPeriodMin = 250 * time.Millisecond
	cfg.SpawnPeriodMax = 250 * time.Millisecond
	h := newHarness(t, cfg)
	rec := &submissions{Leaderboard: h.board}
	h.c.board = rec

	h.c.step(h.clk.Now())
	h.advance(300 * time.Millisecond)
	if h.c.session.Phase() != game.Lost {
		t.Fatalf("phase = %v, want lost", h.c.session.Phase())
	}
	last := h.c.session.Score.Last()
	if last == 0 || len(rec.scores) != 1 || rec.scores[0] != last {
		t.Fatalf("submitted %v, want [%d]", rec.scores, last)
	}

	// The board gets the run's score even once the HUD no longer shows it.
	h.c.hud.SetScore(0)
	h.c.state.submittedRun = 0
	h.c.submitLoss()
	if len(rec.scores) != 2 || rec.scores[1] != last {
		t.Fatalf("submitted %v after the HUD reset, want %d again", rec.scores, last)
	}
}

func TestEnterIgnoredWhileRunning(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.c.processInput([]string{input.Enter, input.Space}, h.clk.Now())
	if got := h.c.session.Stats().Runs; got != 1 {
		t.Errorf("Runs = %d, want 1", got)
	}
}

func TestResetKeyClearsObstacles(t *testing.T) {
	h := newHarness(t, config.Default())
	h.c.session.Spawner.SpawnBatch(h.clk.Now())
	if h.c.session.Pool().Len() == 0 {
		t.Fatal("no obstacles spawned")
	}
	h.c.processInput([]string{input.KeyR}, h.clk.Now())
	if got := h.c.session.Pool().Len(); got != 0 {
		t.Errorf("Pool().Len() = %d after reset", got)
	}
	if h.c.session.Phase() != game.Running {
		t.Error("reset changed the phase")
	}
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.c.processInput([]string{input.KeyQ}, h.clk.Now())
	if h.c.state.Running {
		t.Error("q did not stop the client")
	}
}

func TestInactivity(t *testing.T) {
	h := newHarness(t, quietConfig())
	start := h.clk.Now()

	h.c.processInput(nil, start.Add(91*time.Second))
	if !h.c.state.inactive {
		t.Fatal("no inactivity warning after 91s")
	}
	h.c.processInput([]string{input.ArrowLeft}, start.Add(92*time.Second))
	if h.c.state.inactive || !h.c.state.repaint {
		t.Fatal("a key should clear the warning and repaint")
	}

	h.c.processInput(nil, start.Add(92*time.Second+121*time.Second))
	if h.c.state.Running {
		t.Error("client still running after 121s idle")
	}
}

func TestShutdownEvent(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.c.step(h.clk.Now())

	h.c.handle.EventsCh <- server.Event{Type: server.EventServerShutdown}
	h.out.Reset()
	h.c.step(h.clk.Advance(10 * time.Millisecond))
	if h.c.state.State != StateShutdown {
		t.Fatalf("state = %v, want shutdown", h.c.state.State)
	}
	if !strings.Contains(h.out.String(), "SERVER SHUTTING DOWN") {
		t.Error("shutdown screen not drawn")
	}
	if h.c.session.Tasks() != 0 {
		t.Error("game still scheduled after shutdown")
	}

	h.c.step(h.clk.Advance(11 * time.Second))
	if h.c.state.Running {
		t.Error("client still running after the shutdown countdown")
	}
}

func TestResizeRepaints(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.c.step(h.clk.Now())

	h.cols, h.rows = 60, 20
	h.out.Reset()
	h.c.step(h.clk.Advance(10 * time.Millisecond))

	canvas := h.c.renderer.Canvas()
	if canvas.TerminalWidth() != 60 || canvas.TerminalHeight() != 20 {
		t.Errorf("canvas = %dx%d, want 60x20", canvas.TerminalWidth(), canvas.TerminalHeight())
	}
	if !strings.HasPrefix(h.out.String(), clearSeq) {
		t.Error("resize should clear the terminal")
	}
	if got, want := h.c.session.Camera().Aspect, h.c.renderer.Aspect(); got != want {
		t.Errorf("camera aspect = %v, want %v", got, want)
	}
}

func TestClampTermSize(t *testing.T) {
	w, h, col, row := clampTermSize(200, 60)
	if w != 160 || h != 50 || col != 20 || row != 5 {
		t.Errorf("clampTermSize(200, 60) = %d %d %d %d", w, h, col, row)
	}
	w, h, col, row = clampTermSize(80, 24)
	if w != 80 || h != 24 || col != 0 || row != 0 {
		t.Errorf("clampTermSize(80, 24) = %d %d %d %d", w, h, col, row)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("abcdefghijklmnopqrstuvwxyz"); got != "abcdefghijklmnop" {
		t.Errorf("got %q", got)
	}
	if got := truncateName("ann"); got != "ann" {
		t.Errorf("got %q", got)
	}
}
