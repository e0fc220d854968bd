package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// SampleRate used for every cue
const SampleRate = beep.SampleRate(44100)

// Note is one tone of a cue. A zero frequency is a rest.
type Note struct {
	Freq     float64
	Duration time.Duration
}

// Cues by name, as used by the prompts and the update command
var Cues = map[string][]Note{
	"start":      {{523.25, 80 * time.Millisecond}, {659.25, 80 * time.Millisecond}},
	"select":     {{880, 40 * time.Millisecond}},
	"success":    {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 160 * time.Millisecond}},
	"up_to_date": {{783.99, 120 * time.Millisecond}, {0, 40 * time.Millisecond}, {783.99, 120 * time.Millisecond}},
	"error":      {{311.13, 150 * time.Millisecond}, {233.08, 250 * time.Millisecond}},
}

var (
	speakerOnce  sync.Once
	speakerErr   error
	speakerReady atomic.Bool
)

func ensureSpeakerInitialized() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
		speakerReady.Store(speakerErr == nil)
	})
	return speakerErr
}

// Render builds the streamer for a cue at the given volume (dB, base 2)
func Render(name string, volumeDB float64) (beep.Streamer, error) {
	notes, ok := Cues[name]
	if !ok {
		return nil, fmt.Errorf("unknown sound %q", name)
	}

	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		samples := SampleRate.N(n.Duration)
		if n.Freq == 0 {
			parts = append(parts, beep.Silence(samples))
			continue
		}
		tone, err := generators.SineTone(SampleRate, n.Freq)
		if err != nil {
			return nil, fmt.Errorf("sound %q: %w", name, err)
		}
		parts = append(parts, beep.Take(samples, tone))
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   volumeDB,
	}, nil
}

// Player plays cues on the default audio device. A disabled player is silent.
// Audio problems are logged once and turn the player off.
type Player struct {
	Enabled bool
	// Volume in dB; negative is quieter
	Volume float64
	Logger *slog.Logger

	mu       sync.Mutex
	disabled bool
}

// NewPlayer returns a player at a comfortable default volume
func NewPlayer(enabled bool, logger *slog.Logger) *Player {
	return &Player{Enabled: enabled, Volume: -3, Logger: logger}
}

func (p *Player) start(name string) (<-chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Enabled || p.disabled {
		return nil, false
	}

	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	s, err := Render(name, p.Volume)
	if err != nil {
		log.Debug("sound unavailable", "sound", name, "error", err)
		return nil, false
	}
	if err := ensureSpeakerInitialized(); err != nil {
		log.Debug("audio disabled", "error", err)
		p.disabled = true
		return nil, false
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))
	return done, true
}

// Play plays a cue and waits for it to finish
func (p *Player) Play(name string) {
	if done, ok := p.start(name); ok {
		<-done
	}
}

// PlayAsync starts a cue without waiting
func (p *Player) PlayAsync(name string) {
	p.start(name)
}

// StopAll stops all currently playing sounds. Safe before any cue played.
func StopAll() {
	if speakerReady.Load() {
		speaker.Clear()
	}
}
