// Package hud draws the score, the high score and the lose screen on top of
// the rendered canvas.
package hud

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/rollrun/internal/errkind"
	"github.com/tomz197/rollrun/internal/render"
)

// Element names.
const (
	ScoreElement      = "score"
	HighScoreElement  = "high-score"
	LoseLayoutElement = "lose-layout"
	RetryElement      = "retry"
)

// Required lists the elements a HUD cannot work without.
var Required = []string{ScoreElement, HighScoreElement, LoseLayoutElement, RetryElement}

// Element is one named piece of the HUD. Format takes the element's number
// where it shows one.
type Element struct {
	Format string
	Style  lipgloss.Style
}

// Elements maps element names to their look.
type Elements map[string]Element

// DefaultElements returns the stock HUD styled for r. A nil r uses the
// default lipgloss renderer.
func DefaultElements(r *lipgloss.Renderer) Elements {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Elements{
		ScoreElement: {
			Format: "Score: %d",
			Style:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")),
		},
		HighScoreElement: {
			Format: "Best: %d",
			Style:  r.NewStyle().Foreground(lipgloss.Color("#89b5fa")),
		},
		LoseLayoutElement: {
			Format: "Score: %d",
			Style: r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#89b5fa")).
				Padding(1, 4).
				Align(lipgloss.Center),
		},
		RetryElement: {
			Format: "ENTER or SPACE to retry, Q to quit",
			Style:  r.NewStyle().Faint(true),
		},
	}
}

// HUD is the terminal UI of one session.
type HUD struct {
	elements Elements

	score int
	high  int
	lose  bool

	// Debug, when set, is shown on the bottom row.
	Debug string

	changed bool
	repaint bool
}

// New returns a HUD using elements. Every name in Required must be present.
func New(elements Elements) (*HUD, error) {
	for _, name := range Required {
		if _, ok := elements[name]; !ok {
			return nil, errkind.MissingUIElement(name)
		}
	}
	return &HUD{elements: elements, changed: true}, nil
}

func (h *HUD) SetScore(n int) {
	if h.score != n {
		h.score = n
		h.changed = true
	}
}

func (h *HUD) SetHighScore(n int) {
	if h.high != n {
		h.high = n
		h.changed = true
	}
}

func (h *HUD) ShowLose() {
	h.lose = true
	h.changed = true
}

func (h *HUD) HideLose() {
	if h.lose {
		h.repaint = true
	}
	h.lose = false
	h.changed = true
}

// Score returns the shown score.
func (h *HUD) Score() int { return h.score }

// HighScore returns the shown high score.
func (h *HUD) HighScore() int { return h.high }

// LoseVisible reports whether the lose screen is shown.
func (h *HUD) LoseVisible() bool { return h.lose }

// Changed reports whether anything changed since the last Draw.
func (h *HUD) Changed() bool { return h.changed }

// NeedsRepaint reports whether the lose screen was hidden since the last
// Draw. The canvas under it must then be redrawn in full.
func (h *HUD) NeedsRepaint() bool { return h.repaint }

// Draw writes the HUD for a canvas of width columns and height rows.
func (h *HUD) Draw(cw *render.ChunkWriter, width, height int) {
	h.changed = false
	h.repaint = false

	score := h.elements[ScoreElement]
	Text{Col: 2, Row: 1, Value: score.Style.Render(fmt.Sprintf(score.Format, h.score))}.Draw(cw)
	high := h.elements[HighScoreElement]
	Text{Col: 2, Row: 2, Value: high.Style.Render(fmt.Sprintf(high.Format, h.high))}.Draw(cw)

	if h.lose {
		h.drawLose(cw, width, height)
	}

	if h.Debug != "" && height > 2 {
		Text{Col: 2, Row: height, Value: h.Debug}.Draw(cw)
	}
}

func (h *HUD) drawLose(cw *render.ChunkWriter, width, height int) {
	layout := h.elements[LoseLayoutElement]
	retry := h.elements[RetryElement]

	body := lipgloss.JoinVertical(lipgloss.Center,
		"YOU LOST",
		"",
		fmt.Sprintf(layout.Format, h.score),
		fmt.Sprintf(h.elements[HighScoreElement].Format, h.high),
		"",
		retry.Style.Render(retry.Format),
	)
	Centred(cw, layout.Style.Render(body), width, height)
}

// Notice renders a boxed host message in the lose screen's style.
func (h *HUD) Notice(title string, lines ...string) string {
	parts := append([]string{title, ""}, lines...)
	return h.elements[LoseLayoutElement].Style.Render(lipgloss.JoinVertical(lipgloss.Center, parts...))
}
