// Package input turns a terminal byte stream into held-key state.
package input

import (
	"bufio"
	"time"
)

// Key names, as reported by browsers for the same keys.
const (
	ArrowLeft  = "ArrowLeft"
	ArrowRight = "ArrowRight"
	ArrowUp    = "ArrowUp"
	ArrowDown  = "ArrowDown"
	KeyA       = "a"
	KeyD       = "d"
	KeyQ       = "q"
	KeyR       = "r"
	Enter      = "Enter"
	Space      = "Space"
	Escape     = "Escape"
)

// DefaultHoldWindow is how long a key stays held after its last byte.
// Terminals send no key-up, only auto-repeat, so a key is released once
// it stops repeating.
const DefaultHoldWindow = 150 * time.Millisecond

// State maps a key name to whether it is held.
type State struct {
	held map[string]bool
}

// NewState creates a state with no keys held.
func NewState() *State {
	return &State{held: make(map[string]bool)}
}

// KeyDown marks name as held.
func (s *State) KeyDown(name string) {
	s.held[name] = true
}

// KeyUp marks name as released.
func (s *State) KeyUp(name string) {
	delete(s.held, name)
}

// Held reports whether name is held.
func (s *State) Held(name string) bool {
	return s.held[name]
}

// Any reports whether any of names is held.
func (s *State) Any(names ...string) bool {
	for _, n := range names {
		if s.held[n] {
			return true
		}
	}
	return false
}

// Reset releases every key.
func (s *State) Reset() {
	clear(s.held)
}

// Stream delivers input bytes via a channel and turns them into key events.
type Stream struct {
	ch     chan byte
	closed bool

	// HoldWindow is how long a key stays down without repeating.
	HoldWindow time.Duration
	lastSeen   map[string]time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:         make(chan byte, 128),
		HoldWindow: DefaultHoldWindow,
		lastSeen:   make(map[string]time.Time),
	}
}

// Closed reports whether the reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// Poll drains all available bytes (non-blocking), applies key-down for
// every key seen and key-up for keys that stopped repeating. It returns
// the keys seen in this poll, in order.
func (s *Stream) Poll(state *State, now time.Time) []string {
	var buf []byte

	// Drain all available bytes
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.apply(buf, state, now)
}

// apply parses buf, updates state and returns the keys seen.
func (s *Stream) apply(buf []byte, state *State, now time.Time) []string {
	var pressed []string
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// Cursor keys: ESC [ <code> or, in application mode, ESC O <code>
		if b == '\x1b' && i+2 < len(buf) && (buf[i+1] == '[' || buf[i+1] == 'O') {
			if name := arrowName(buf[i+2]); name != "" {
				pressed = append(pressed, name)
				i += 2
				continue
			}
		}

		if name := byteName(b); name != "" {
			pressed = append(pressed, name)
		}
	}

	for _, name := range pressed {
		s.lastSeen[name] = now
		state.KeyDown(name)
	}
	for name, seen := range s.lastSeen {
		if now.Sub(seen) >= s.HoldWindow {
			delete(s.lastSeen, name)
			state.KeyUp(name)
		}
	}
	return pressed
}

func arrowName(code byte) string {
	switch code {
	case 'A':
		return ArrowUp
	case 'B':
		return ArrowDown
	case 'C':
		return ArrowRight
	case 'D':
		return ArrowLeft
	}
	return ""
}

// byteName maps a single byte to its key name.
func byteName(b byte) string {
	switch b {
	case 'q', 'Q', '\x03':
		return KeyQ
	case 'a', 'A':
		return KeyA
	case 'd', 'D':
		return KeyD
	case 'r', 'R':
		return KeyR
	case ' ':
		return Space
	case '\n', '\r':
		return Enter
	case '\x1b':
		return Escape
	}
	return ""
}
