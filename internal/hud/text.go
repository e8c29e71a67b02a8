package hud

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/rollrun/internal/render"
)

// Text is a line of HUD text. Coordinates are 1-based terminal cells
// relative to the canvas origin.
type Text struct {
	Col   int
	Row   int
	Value string
}

// Draw writes the text at its position.
func (t Text) Draw(cw *render.ChunkWriter) {
	if t.Value == "" {
		return
	}
	cw.WriteAt(max(t.Col, 1), max(t.Row, 1), t.Value)
}

// Width returns the printed width of the text, ignoring escape sequences.
func (t Text) Width() int {
	return lipgloss.Width(t.Value)
}

// Centred draws a multi-line block in the middle of a width x height area.
func Centred(cw *render.ChunkWriter, block string, width, height int) {
	lines := strings.Split(block, "\n")
	col := (width-lipgloss.Width(block))/2 + 1
	row := (height-len(lines))/2 + 1
	for i, line := range lines {
		Text{Col: col, Row: row + i, Value: line}.Draw(cw)
	}
}
