// Package render is the terminal rendering engine: a half-block canvas,
// a scene graph of meshes and lights, a perspective camera, and a renderer
// that rasterises the scene into chunked ANSI output.
package render

import (
	"errors"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// Terminal control sequences.
const (
	seqClear      = "\033[H\033[2J"
	seqHideCursor = "\033[?25l"
	seqShowCursor = "\033[?25h"
)

// ClearScreen clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) { io.WriteString(w, seqClear) }

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) { io.WriteString(w, seqHideCursor) }

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) { io.WriteString(w, seqShowCursor) }

// appendCursor appends a cursor move to the 1-based terminal cell (col, row).
func appendCursor(b []byte, col, row int) []byte {
	b = append(b, "\033["...)
	b = strconv.AppendInt(b, int64(row), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(col), 10)
	return append(b, 'H')
}

// maxChunkSize keeps each write within a typical MTU, so one frame spans
// whole SSH packets instead of one large burst.
const maxChunkSize = 1400

// ChunkWriter collects one display step of output (canvas cells, HUD text,
// screens) and writes it in maxChunkSize pieces on Flush. Positions given to
// MoveCursor and WriteAt are relative to the render area.
type ChunkWriter struct {
	w       io.Writer
	pending []byte
	offCol  int
	offRow  int
	flushed int64
}

// NewChunkWriter creates a ChunkWriter over w with the render area at the
// given 0-based terminal offset.
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{w: w, offCol: offsetCol, offRow: offsetRow}
}

// SetOffset moves the render area, e.g. after a resize.
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol, cw.offRow = offsetCol, offsetRow
}

// MoveCursor queues a cursor move to the 1-based render-area cell (col, row).
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.pending = appendCursor(cw.pending, col+cw.offCol, row+cw.offRow)
}

// Write queues p. Canvas output carries absolute positions and goes here.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	cw.pending = append(cw.pending, p...)
	return len(p), nil
}

// WriteString queues s.
func (cw *ChunkWriter) WriteString(s string) (int, error) {
	cw.pending = append(cw.pending, s...)
	return len(s), nil
}

// WriteAt queues s at the render-area cell (col, row).
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.pending = append(cw.pending, s...)
}

// Pending reports the queued byte count.
func (cw *ChunkWriter) Pending() int { return len(cw.pending) }

// Flushed reports the total bytes written to the underlying writer.
func (cw *ChunkWriter) Flushed() int64 { return cw.flushed }

// Flush writes the queued output and empties the queue. The queue is
// dropped on error.
func (cw *ChunkWriter) Flush() error {
	data := cw.pending
	cw.pending = cw.pending[:0]
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		written, err := cw.w.Write(data[:n])
		cw.flushed += int64(written)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

var (
	_ io.Writer       = (*ChunkWriter)(nil)
	_ io.StringWriter = (*ChunkWriter)(nil)
)

// TermSizeFunc reports the terminal size in cells.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc reads the size of the terminal on stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ErrNoTermSize is returned for a terminal that reports less than one cell.
var ErrNoTermSize = errors.New("terminal reports no size")

// Size calls f and rejects sizes below one cell.
func (f TermSizeFunc) Size() (width, height int, err error) {
	width, height, err = f()
	if err != nil {
		return 0, 0, err
	}
	if width < 1 || height < 1 {
		return 0, 0, ErrNoTermSize
	}
	return width, height, nil
}
