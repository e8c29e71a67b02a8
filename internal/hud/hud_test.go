package hud

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/rollrun/internal/errkind"
	"github.com/tomz197/rollrun/internal/render"
)

func plainElements() Elements {
	return DefaultElements(lipgloss.NewRenderer(io.Discard))
}

func draw(t *testing.T, h *HUD, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	cw := render.NewChunkWriter(&buf, 0, 0)
	h.Draw(cw, width, height)
	if err := cw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return buf.String()
}

func TestNewRequiresEveryElement(t *testing.T) {
	for _, name := range Required {
		els := plainElements()
		delete(els, name)
		_, err := New(els)
		if !errors.Is(err, errkind.ErrMissingUIElement) {
			t.Fatalf("without %q: err = %v, want missing UI element", name, err)
		}
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %q", err, name)
		}
	}

	if _, err := New(plainElements()); err != nil {
		t.Fatalf("New with defaults: %v", err)
	}
}

func TestDrawScores(t *testing.T) {
	h, _ := New(plainElements())
	h.SetScore(7)
	h.SetHighScore(3)

	if h.Score() != 7 || h.HighScore() != 3 {
		t.Fatalf("Score, HighScore = %d, %d", h.Score(), h.HighScore())
	}

	out := draw(t, h, 80, 24)
	if !strings.Contains(out, "\033[1;2HScore: 7") {
		t.Errorf("score not at row 1: %q", out)
	}
	if !strings.Contains(out, "\033[2;2HBest: 3") {
		t.Errorf("high score not at row 2: %q", out)
	}
	if strings.Contains(out, "YOU LOST") {
		t.Error("lose screen drawn while hidden")
	}
}

func TestLoseScreen(t *testing.T) {
	h, _ := New(plainElements())
	h.SetScore(42)
	h.SetHighScore(42)
	h.ShowLose()
	if !h.LoseVisible() {
		t.Fatal("lose screen not visible after ShowLose")
	}

	out := draw(t, h, 80, 24)
	for _, want := range []string{"YOU LOST", "Score: 42", "Best: 42", "retry", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("lose screen missing %q", want)
		}
	}

	h.HideLose()
	if h.LoseVisible() {
		t.Fatal("lose screen visible after HideLose")
	}
	if !h.NeedsRepaint() {
		t.Error("hiding the lose screen should ask for a repaint")
	}
	out = draw(t, h, 80, 24)
	if strings.Contains(out, "YOU LOST") {
		t.Error("lose screen drawn after HideLose")
	}
	if h.NeedsRepaint() {
		t.Error("repaint flag survived Draw")
	}
}

func TestChangedTracksState(t *testing.T) {
	h, _ := New(plainElements())
	if !h.Changed() {
		t.Fatal("new HUD should draw once")
	}
	draw(t, h, 80, 24)
	if h.Changed() {
		t.Fatal("Changed after Draw")
	}

	h.SetScore(0)
	if h.Changed() {
		t.Error("same score marked the HUD changed")
	}
	h.SetScore(1)
	if !h.Changed() {
		t.Error("new score did not mark the HUD changed")
	}

	draw(t, h, 80, 24)
	h.HideLose()
	if h.NeedsRepaint() {
		t.Error("hiding a hidden lose screen asked for a repaint")
	}
}

func TestDebugLine(t *testing.T) {
	h, _ := New(plainElements())
	h.Debug = "obstacles 12"
	out := draw(t, h, 80, 24)
	if !strings.Contains(out, "\033[24;2Hobstacles 12") {
		t.Errorf("debug line not on the bottom row: %q", out)
	}
}

func TestTextClampsToOrigin(t *testing.T) {
	var buf bytes.Buffer
	cw := render.NewChunkWriter(&buf, 0, 0)
	Text{Col: -3, Row: 0, Value: "x"}.Draw(cw)
	Text{Col: 5, Row: 5}.Draw(cw)
	cw.Flush()
	if got := buf.String(); got != "\033[1;1Hx" {
		t.Errorf("got %q", got)
	}
	if w := (Text{Value: "abc"}).Width(); w != 3 {
		t.Errorf("Width = %d, want 3", w)
	}
}

func TestNoticeIsCentred(t *testing.T) {
	h, _ := New(plainElements())
	box := h.Notice("PAUSED", "back soon")
	if !strings.Contains(box, "PAUSED") || !strings.Contains(box, "back soon") || !strings.Contains(box, "╭") {
		t.Fatalf("notice %q", box)
	}

	var buf bytes.Buffer
	cw := render.NewChunkWriter(&buf, 0, 0)
	Centred(cw, "ab\ncd", 10, 4)
	cw.Flush()
	if got := buf.String(); got != "\033[2;5Hab\033[3;5Hcd" {
		t.Errorf("got %q", got)
	}
}
