package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/muesli/termenv"

	"github.com/tomz197/rollrun/internal/asset"
	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/loop"
	hostcfg "github.com/tomz197/rollrun/internal/loop/config"
	"github.com/tomz197/rollrun/internal/loop/server"
	"github.com/tomz197/rollrun/internal/render"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

// arcade is what every SSH session shares.
type arcade struct {
	cfg   config.Config
	env   *render.Environment
	board *server.Leaderboard
	log   *log.Logger
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "rollrun-ssh"})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	a := &arcade{cfg: cfg, board: server.NewLeaderboard(), log: logger}
	if a.env, err = asset.Load(os.DirFS("."), cfg.EnvMapPath); err != nil {
		logger.Warn("environment map unavailable", "err", err)
	}

	addr := net.JoinHostPort(config.GetEnv("SSH_HOST", defaultHost), config.GetEnv("SSH_PORT", defaultPort))
	s, err := a.newServer(addr, config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath))
	if err != nil {
		logger.Fatal("could not create server", "err", err)
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server stopped", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	a.shutdown(s)
}

func (a *arcade) newServer(addr, hostKeyPath string) (*ssh.Server, error) {
	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithMiddleware(a.play, activeterm.Middleware(), logging.Middleware()),
		ssh.WrapConn(noDelay),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}
	return wish.NewServer(opts...)
}

// noDelay turns off Nagle's algorithm so key presses arrive promptly.
func noDelay(_ ssh.Context, conn net.Conn) net.Conn {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn
}

// shutdown counts players out through the board, logs the final standings
// and closes the server.
func (a *arcade) shutdown(s *ssh.Server) {
	a.log.Info("shutting down", "players", a.board.Clients())
	a.board.Shutdown(hostcfg.ShutdownTimeout)
	for i, e := range a.board.Top(hostcfg.LeaderboardSize) {
		a.log.Info("final standings", "rank", i+1, "user", e.Username, "score", e.Score)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		a.log.Error("shutdown", "err", err)
	}
}

// play is the middleware running one game per session.
func (a *arcade) play(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "A terminal is required: ssh -t", sess.User()+"@host")
			next(sess)
			return
		}
		a.log.Info("session started", "user", sess.User(), "term", pty.Term,
			"cols", pty.Window.Width, "rows", pty.Window.Height)

		win := newWindow(pty.Window)
		go func() {
			for w := range winCh {
				win.set(w)
			}
		}()

		styler := lipgloss.NewRenderer(sess)
		styler.SetColorProfile(colorProfile(pty.Term))

		var sound audio.Sound = audio.Silent{}
		if a.cfg.AudioEnabled {
			sound = audio.NewBellSound(sess)
		}

		err := loop.Run(bufio.NewReader(sess), sess, loop.Options{
			Config:       a.cfg,
			TermSizeFunc: win.size,
			Sound:        sound,
			Logger:       a.log,
			Board:        a.board,
			Username:     sess.User(),
			Styler:       styler,
			Environment:  a.env,
		})
		if err != nil {
			a.log.Error("session failed", "user", sess.User(), "err", err)
		}
		a.log.Info("session ended", "user", sess.User())
		next(sess)
	}
}

// colorProfile picks the colour depth for a client terminal.
func colorProfile(term string) termenv.Profile {
	switch {
	case strings.Contains(term, "truecolor"), strings.Contains(term, "direct"),
		strings.HasPrefix(term, "xterm-kitty"), strings.HasPrefix(term, "alacritty"), strings.HasPrefix(term, "wezterm"):
		return termenv.TrueColor
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	case term == "" || term == "dumb":
		return termenv.Ascii
	}
	return termenv.ANSI
}

// window holds the latest client window size from SSH window-change requests.
type window struct {
	mu   sync.Mutex
	cols int
	rows int
}

func newWindow(w ssh.Window) *window {
	return &window{cols: w.Width, rows: w.Height}
}

func (w *window) set(win ssh.Window) {
	w.mu.Lock()
	w.cols, w.rows = win.Width, win.Height
	w.mu.Unlock()
}

func (w *window) size() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cols, w.rows, nil
}

var _ render.TermSizeFunc = (*window)(nil).size
