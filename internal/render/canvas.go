package render

import (
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ink is a palette index. Ink 0 is an empty pixel.
type Ink uint8

// NoInk marks an empty pixel.
const NoInk Ink = 0

// Half-block glyphs; each terminal cell shows two vertical sub-pixels.
const (
	blockFull  = '█'
	blockEmpty = ' '
	blockUpper = '▀'
	blockLower = '▄'
)

// Canvas is a drawing buffer with 2x vertical resolution using half-block characters.
// Every sub-pixel carries an ink from the canvas palette.
// Supports scaling from logical coordinates to actual terminal pixels.
type Canvas struct {
	termWidth      int   // Actual terminal columns
	termHeight     int   // Actual terminal rows
	subPixelHeight int   // termHeight * 2
	pixels         []Ink // Flat slice: [y * termWidth + x]
	prev           []cell
	fullRedraw     bool

	// Scaling from logical to pixel coordinates
	logicalWidth  float64 // Target/logical width
	logicalHeight float64 // Target/logical height (in sub-pixels)
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// Offset for centering the render area when terminal is larger than max resolution.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	palette   []string // Hex colour per ink; index 0 unused
	inkByHex  map[string]Ink
	styler    *lipgloss.Renderer
	glyphs    map[cell]string // Styled glyph cache
	renderBuf []byte

	polygonBuf []Point // Reusable buffer for polygon point generation
}

// cell is what one terminal cell shows: the inks of its two sub-pixels.
type cell struct {
	top, bottom Ink
}

// NewCanvas creates a canvas for the given terminal dimensions.
// The canvas has 2x vertical resolution (height*2 sub-pixels).
// No scaling is applied (1:1 mapping).
func NewCanvas(width, height int) *Canvas {
	return NewScaledCanvas(width, height, float64(width), float64(height*2))
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by callers.
// termWidth/Height are the actual terminal dimensions.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		palette:       []string{""},
		inkByHex:      make(map[string]Ink),
		styler:        lipgloss.DefaultRenderer(),
		glyphs:        make(map[cell]string),
	}
	c.Resize(termWidth, termHeight)
	return c
}

// SetStyler sets the lipgloss renderer used to colour output, so colours
// match the profile of the terminal being written to (e.g. an SSH session).
func (c *Canvas) SetStyler(r *lipgloss.Renderer) {
	if r == nil {
		return
	}
	c.styler = r
	clear(c.glyphs)
	c.fullRedraw = true
}

// Ink returns the palette ink for a hex colour ("#89b5fa"), registering it
// on first use. When the palette is full the last registered ink is reused.
func (c *Canvas) Ink(hex string) Ink {
	if ink, ok := c.inkByHex[hex]; ok {
		return ink
	}
	if len(c.palette) > math.MaxUint8 {
		return Ink(len(c.palette) - 1)
	}
	ink := Ink(len(c.palette))
	c.palette = append(c.palette, hex)
	c.inkByHex[hex] = ink
	return ink
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth < 1 {
		termWidth = 1
	}
	if termHeight < 1 {
		termHeight = 1
	}
	subPixelHeight := termHeight * 2

	// Reallocate if size changed
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.pixels = make([]Ink, subPixelHeight*termWidth)
		c.prev = make([]cell, termHeight*termWidth)
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
		c.fullRedraw = true
	}

	// Update scale factors
	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(subPixelHeight) / c.logicalHeight
}

// SetLogicalSize changes the logical coordinate space.
func (c *Canvas) SetLogicalSize(width, height float64) {
	c.logicalWidth = width
	c.logicalHeight = height
	c.scaleX = float64(c.termWidth) / width
	c.scaleY = float64(c.subPixelHeight) / height
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.fullRedraw = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render write every cell, not just changed ones.
// Call after the terminal was cleared.
func (c *Canvas) ForceRedraw() {
	c.fullRedraw = true
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// setPixel sets a pixel at actual terminal coordinates (no scaling).
func (c *Canvas) setPixel(x, y int, ink Ink) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = ink
	}
}

// At returns the ink at pixel coordinates, or NoInk outside the canvas.
func (c *Canvas) At(x, y int) Ink {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		return c.pixels[y*c.termWidth+x]
	}
	return NoInk
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64, ink Ink) {
	px := int(math.Round(x * c.scaleX))
	py := int(math.Round(y * c.scaleY))
	c.setPixel(px, py, ink)
}

// DrawLine draws a line on the canvas using Bresenham's algorithm.
// Coordinates are in logical space and get scaled to pixels.
func (c *Canvas) DrawLine(p1, p2 Point, ink Ink) {
	// Scale to pixel coordinates for drawing
	x1 := int(math.Round(p1.X * c.scaleX))
	y1 := int(math.Round(p1.Y * c.scaleY))
	x2 := int(math.Round(p2.X * c.scaleX))
	y2 := int(math.Round(p2.Y * c.scaleY))

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	// Lines far off-canvas are dropped rather than walked pixel by pixel.
	if dx+dy > 8*(c.termWidth+c.subPixelHeight) {
		return
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		c.setPixel(x1, y1, ink)

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws the closed outline through points.
func (c *Canvas) DrawPolygon(points []Point, ink Ink) {
	if len(points) < 3 {
		return
	}
	n := len(points)
	for i := 0; i < n; i++ {
		c.DrawLine(points[i], points[(i+1)%n], ink)
	}
}

// Render writes the canvas as coloured half-block cells at absolute
// terminal positions. Only cells that changed since the previous Render are
// written, unless a full redraw was requested.
func (c *Canvas) Render(w io.Writer) {
	buf := c.renderBuf[:0]
	for row := 0; row < c.termHeight; row++ {
		top := row * 2 * c.termWidth
		bottom := top + c.termWidth
		for col := 0; col < c.termWidth; col++ {
			cur := cell{top: c.pixels[top+col], bottom: c.pixels[bottom+col]}
			idx := row*c.termWidth + col
			if !c.fullRedraw && c.prev[idx] == cur {
				continue
			}
			c.prev[idx] = cur
			if c.fullRedraw && cur == (cell{}) {
				continue // cleared terminal already shows blanks
			}
			buf = appendCursor(buf, col+1+c.offsetCol, row+1+c.offsetRow)
			buf = append(buf, c.glyph(cur)...)
		}
	}
	c.fullRedraw = false
	c.renderBuf = buf
	if len(buf) > 0 {
		w.Write(buf)
	}
}

// glyph returns the styled character for a cell.
func (c *Canvas) glyph(k cell) string {
	if g, ok := c.glyphs[k]; ok {
		return g
	}

	style := c.styler.NewStyle()
	var ch rune
	switch {
	case k.top == NoInk && k.bottom == NoInk:
		c.glyphs[k] = string(blockEmpty)
		return c.glyphs[k]
	case k.top == k.bottom:
		ch = blockFull
		style = style.Foreground(lipgloss.Color(c.palette[k.top]))
	case k.bottom == NoInk:
		ch = blockUpper
		style = style.Foreground(lipgloss.Color(c.palette[k.top]))
	case k.top == NoInk:
		ch = blockLower
		style = style.Foreground(lipgloss.Color(c.palette[k.bottom]))
	default:
		ch = blockUpper
		style = style.Foreground(lipgloss.Color(c.palette[k.top])).
			Background(lipgloss.Color(c.palette[k.bottom]))
	}

	g := style.Render(string(ch))
	c.glyphs[k] = g
	return g
}

// RenderBorder frames the render area with box-drawing lines on the sides
// where the terminal has spare room around it.
func (c *Canvas) RenderBorder(w io.Writer) {
	sides := c.offsetCol >= 1
	ends := c.offsetRow >= 1
	if !sides && !ends {
		return
	}

	left, right := c.offsetCol, c.offsetCol+c.termWidth+1
	top, bottom := c.offsetRow, c.offsetRow+c.termHeight+1
	line := strings.Repeat("─", c.termWidth)

	var b []byte
	if ends {
		for _, edge := range []struct {
			row        int
			start, end string
		}{{top, "┌", "┐"}, {bottom, "└", "┘"}} {
			if sides {
				b = appendCursor(b, left, edge.row)
				b = append(b, edge.start+line+edge.end...)
			} else {
				b = appendCursor(b, left+1, edge.row)
				b = append(b, line...)
			}
		}
	}
	if sides {
		for row := top + 1; row < bottom; row++ {
			b = appendCursor(b, left, row)
			b = append(b, "│"...)
			b = appendCursor(b, right, row)
			b = append(b, "│"...)
		}
	}
	w.Write(b)
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// borrowPoints returns the canvas's scratch point slice resized to n. It is
// valid until the next call.
func (c *Canvas) borrowPoints(n int) []Point {
	if cap(c.polygonBuf) < n {
		c.polygonBuf = make([]Point, n)
	}
	return c.polygonBuf[:n]
}
