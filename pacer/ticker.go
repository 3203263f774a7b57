package pacer

import (
	"context"
	"sync/atomic"
	"time"
)

// Frame is one render opportunity.
type Frame struct {
	Token Token
	At    time.Time
}

// DefaultFrameRate approximates a display refresh.
const DefaultFrameRate = 60

// Ticker emits frames at a fixed refresh period on its own goroutine, for
// drivers that have no render loop of their own (headless mode).
// It only produces timestamps; deciding whether a frame ticks stays with
// the Pacer on the consumer side.
type Ticker struct {
	period time.Duration
	frames chan Frame
	token  atomic.Uint64
}

// NewTicker returns a Ticker firing every period. A non-positive period
// uses DefaultFrameRate.
func NewTicker(period time.Duration) *Ticker {
	if period <= 0 {
		period = time.Second / DefaultFrameRate
	}
	return &Ticker{
		period: period,
		frames: make(chan Frame, 1),
	}
}

// Frames is the channel frames are delivered on.
func (t *Ticker) Frames() <-chan Frame { return t.frames }

// SetToken sets the token stamped on subsequent frames. Zero pauses
// emission. A frame already buffered keeps its old token and is rejected by
// the Pacer on arrival.
func (t *Ticker) SetToken(tok Token) {
	t.token.Store(uint64(tok))
}

// Run emits frames until ctx is done. A slow consumer causes frames to be
// dropped rather than queued.
func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(t.period)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			tok := Token(t.token.Load())
			if tok == 0 {
				continue
			}
			select {
			case t.frames <- Frame{Token: tok, At: now}:
			default:
			}
		}
	}
}
