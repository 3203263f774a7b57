// Package pacer turns a stream of render-opportunity timestamps into
// discrete simulation ticks.
//
// A Pacer never schedules anything itself. Whatever produces frames (a
// bubbletea tick command, a time.Ticker, a test) hands every frame to Due
// together with the Token it was scheduled under; frames carrying a token
// from before the last Start or Stop are ignored. That makes cancellation
// synchronous: once Stop returns, no frame already in flight can tick.
package pacer

import (
	"time"
)

// Token identifies one Running period. The zero Token is never valid.
type Token uint64

// Pacer decides when a tick is due.
type Pacer struct {
	// Interval is consulted on every check so level or difficulty changes
	// apply from the next qualifying frame.
	Interval func() time.Duration

	gen      Token
	active   bool
	last     time.Time
	haveLast bool
}

// New returns a stopped Pacer.
func New(interval func() time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Start begins a new Running period and returns its token. Older tokens
// become invalid and the tick baseline is cleared, so the first frame after
// a resume does not fire on stale timing.
func (p *Pacer) Start() Token {
	p.gen++
	p.active = true
	p.Reset()
	return p.gen
}

// Stop invalidates the current token. Calling it repeatedly is harmless.
func (p *Pacer) Stop() {
	if !p.active {
		return
	}
	p.gen++
	p.active = false
	p.Reset()
}

// Reset forgets the last tick time.
func (p *Pacer) Reset() {
	p.last = time.Time{}
	p.haveLast = false
}

// Active reports whether a Running period is in progress.
func (p *Pacer) Active() bool { return p.active }

// Token returns the current token, or zero when stopped.
func (p *Pacer) Token() Token {
	if !p.active {
		return 0
	}
	return p.gen
}

// Valid reports whether frames scheduled under t may still tick.
func (p *Pacer) Valid(t Token) bool {
	return p.active && t != 0 && t == p.gen
}

// Due reports whether the frame at ts should run a tick, and if so records
// ts as the new baseline. The first frame of a Running period only sets the
// baseline.
func (p *Pacer) Due(t Token, ts time.Time) bool {
	if !p.Valid(t) {
		return false
	}
	if !p.haveLast {
		p.last = ts
		p.haveLast = true
		return false
	}
	var iv time.Duration
	if p.Interval != nil {
		iv = p.Interval()
	}
	if ts.Sub(p.last) < iv {
		return false
	}
	p.last = ts
	return true
}

// LastTick returns the baseline timestamp, if any.
func (p *Pacer) LastTick() (time.Time, bool) {
	return p.last, p.haveLast
}
