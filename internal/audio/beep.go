package audio

import (
	"errors"
	"io/fs"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/tomz197/rollrun/internal/errkind"
)

const (
	sampleRate   = beep.SampleRate(44100)
	toneFreq     = 220
	toneDuration = 120 * time.Millisecond
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepSound plays the hit clip through the speaker.
type BeepSound struct {
	mu      sync.Mutex
	clip    *beep.Buffer
	current *beep.Ctrl

	play   func(...beep.Streamer)
	lock   func()
	unlock func()
}

// NewBeepSound initialises the speaker and loads the hit clip from path.
// When the clip cannot be loaded a short synthesised tone is used instead
// and a warning is logged. Only a speaker failure is returned.
func NewBeepSound(fsys fs.FS, path string, logger *log.Logger) (*BeepSound, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
	})
	if speakerErr != nil {
		return nil, speakerErr
	}

	clip, err := loadClip(fsys, path)
	if err != nil {
		if logger != nil {
			logger.Warn("hit sound unavailable, using tone", "err", err)
		}
		if clip, err = toneClip(); err != nil {
			return nil, err
		}
	}

	s := newBeepSound(clip, speaker.Play)
	s.lock, s.unlock = speaker.Lock, speaker.Unlock
	return s, nil
}

func newBeepSound(clip *beep.Buffer, play func(...beep.Streamer)) *BeepSound {
	return &BeepSound{
		clip:   clip,
		play:   play,
		lock:   func() {},
		unlock: func() {},
	}
}

// Play restarts the clip at volume, cutting off the previous play.
func (s *BeepSound) Play(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl := &beep.Ctrl{Streamer: withVolume(s.clip.Streamer(0, s.clip.Len()), volume)}

	s.lock()
	if s.current != nil {
		s.current.Streamer = nil
	}
	s.unlock()

	s.play(ctrl)
	s.current = ctrl
}

// Close stops playback.
func (s *BeepSound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.lock()
	s.current.Streamer = nil
	s.unlock()
	s.current = nil
}

// withVolume scales a streamer by a linear volume.
// Log2(0) is -Inf, so zero is rendered silent instead.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(min(vol, 1)), Silent: false}
}

func loadClip(fsys fs.FS, path string) (*beep.Buffer, error) {
	if fsys == nil {
		return nil, errkind.AssetLoad(path, errors.New("no filesystem"))
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errkind.AssetLoad(path, err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return nil, errkind.AssetLoad(path, err) // Decode closes f on failure
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		src = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}

	format.SampleRate = sampleRate
	clip := beep.NewBuffer(format)
	clip.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, errkind.AssetLoad(path, err)
	}
	return clip, nil
}

// toneClip synthesises a short decaying tone.
func toneClip() (*beep.Buffer, error) {
	sine, err := generators.SineTone(sampleRate, toneFreq)
	if err != nil {
		return nil, err
	}
	total := sampleRate.N(toneDuration)
	pos := 0
	decay := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := sine.Stream(samples)
		for i := 0; i < n; i++ {
			gain := 1 - float64(pos)/float64(total)
			samples[i][0] *= gain * 0.5
			samples[i][1] *= gain * 0.5
			pos++
		}
		return n, ok
	})

	clip := beep.NewBuffer(beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2})
	clip.Append(beep.Take(total, decay))
	return clip, nil
}
