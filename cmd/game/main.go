package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/rollrun/internal/asset"
	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/loop"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := openLog(cfg)
	defer closeLog()

	assets := os.DirFS(".")
	env, err := asset.Load(assets, cfg.EnvMapPath)
	if err != nil {
		logger.Warn("environment map unavailable", "err", err)
	}

	var sound audio.Sound = audio.Silent{}
	if cfg.AudioEnabled {
		beep, err := audio.NewBeepSound(assets, cfg.HitSoundPath, logger)
		if err != nil {
			logger.Warn("speaker unavailable, audio off", "err", err)
		} else {
			defer beep.Close()
			sound = beep
		}
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	err = loop.Run(reader, os.Stdout, loop.Options{
		Config:      cfg,
		Sound:       sound,
		Logger:      logger,
		Styler:      lipgloss.NewRenderer(os.Stdout),
		Environment: env,
		Debug:       config.GetEnv("ROLLRUN_DEBUG", "") != "",
	})
	if err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// openLog logs to cfg.LogFile; the terminal belongs to the game. An empty
// LogFile discards logs.
func openLog(cfg config.Config) (*log.Logger, func()) {
	var out io.Writer = io.Discard
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "rollrun",
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger, closeFn
}
