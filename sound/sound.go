// Package sound plays short synthesized cues for game events.
package sound

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/session"
)

const sampleRate = beep.SampleRate(44100)

// Player is a session.Listener that sounds a rising chirp on level up and a
// falling one on game over. If the audio device cannot be opened it stays
// silent.
type Player struct {
	log *slog.Logger

	mu      sync.Mutex
	mixer   *beep.Mixer
	enabled bool
}

// NewPlayer opens the default audio device. Failure is logged, not returned:
// the game runs fine without sound.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{log: logger, mixer: &beep.Mixer{}}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		logger.Warn("audio unavailable", "err", err)
		return p
	}
	speaker.Play(p.mixer)
	p.enabled = true
	return p
}

// Enabled reports whether the audio device is open.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Player) OnTick(game.Snapshot) {}

func (p *Player) OnEvent(e session.Event) {
	switch e.Kind {
	case session.EventLevelUp:
		p.play(Chirp(sampleRate, 660, 990, 120*time.Millisecond))
	case session.EventGameOver:
		p.play(Chirp(sampleRate, 440, 110, 400*time.Millisecond))
	}
}

func (p *Player) play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close silences any queued cue.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.enabled = false
}

// Chirp returns a sine sweep from one frequency to another over d, with a
// short fade at both ends.
func Chirp(sr beep.SampleRate, from, to float64, d time.Duration) beep.Streamer {
	return beep.Take(sr.N(d), &chirp{sr: sr, from: from, to: to, total: sr.N(d)})
}

type chirp struct {
	sr       beep.SampleRate
	from, to float64
	total    int
	pos      int
	phase    float64
}

func (c *chirp) Stream(samples [][2]float64) (int, bool) {
	fade := float64(c.sr.N(10 * time.Millisecond))
	for i := range samples {
		frac := float64(c.pos) / float64(max(c.total, 1))
		freq := c.from + (c.to-c.from)*frac
		c.phase += 2 * math.Pi * freq / float64(c.sr)

		env := 1.0
		if pos := float64(c.pos); pos < fade {
			env = pos / fade
		} else if rest := float64(c.total - c.pos); rest < fade {
			env = max(rest, 0) / fade
		}

		v := 0.2 * env * math.Sin(c.phase)
		samples[i][0] = v
		samples[i][1] = v
		c.pos++
	}
	return len(samples), true
}

func (c *chirp) Err() error { return nil }
