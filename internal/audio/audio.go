// Package audio plays collision feedback: a pure volume model for hit
// sounds and the sinks that play them.
package audio

import (
	"io"
	"sync"
)

// Sound is a shared playable resource. Play restarts it from the beginning
// at the given volume in [0, 1]. Calls may overlap; the last call wins.
type Sound interface {
	Play(volume float64)
}

// Impact bands.
const (
	MinAudibleImpact = 1.5 // Impacts at or below this are silent
	softImpact       = 2.5
	mediumImpact     = 4.5
)

// HitVolume maps an impact strength and the distance from the listener to
// a playback volume. play is false when the impact is too weak to be heard.
// rnd returns a value in [0, 1) used for the softer bands. Without a
// position the distance is ignored.
func HitVolume(strength, distance float64, hasPosition bool, rnd func() float64) (volume float64, play bool) {
	if strength <= MinAudibleImpact {
		return 0, false
	}

	switch {
	case strength < softImpact:
		volume = rnd() * 0.3
	case strength < mediumImpact:
		volume = rnd() * 0.7
	default:
		volume = 1
	}

	if hasPosition {
		volume = attenuate(volume, distance)
	}
	return volume, true
}

// attenuate lowers the volume by distance band, never below zero.
func attenuate(volume, distance float64) float64 {
	switch {
	case distance > 120:
		return 0
	case distance > 70:
		volume -= 0.6
	case distance > 50:
		volume -= 0.5
	case distance > 30:
		volume -= 0.3
	case distance > 10:
		volume -= 0.1
	}
	return max(volume, 0)
}

// Silent discards every play.
type Silent struct{}

// Play does nothing.
func (Silent) Play(float64) {}

// Recorder remembers the volume of every play.
type Recorder struct {
	mu    sync.Mutex
	plays []float64
}

// Play records volume.
func (r *Recorder) Play(volume float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, volume)
}

// Plays returns a copy of the recorded volumes.
func (r *Recorder) Plays() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.plays...)
}

// BellSound rings the terminal bell for hits at or above Threshold.
// Used where no audio device exists, such as SSH sessions.
type BellSound struct {
	w         io.Writer
	Threshold float64
}

// NewBellSound creates a bell writing to w.
func NewBellSound(w io.Writer) *BellSound {
	return &BellSound{w: w, Threshold: 0.5}
}

// Play writes BEL when the volume is loud enough.
func (b *BellSound) Play(volume float64) {
	if volume < b.Threshold || volume <= 0 {
		return
	}
	io.WriteString(b.w, "\a")
}
