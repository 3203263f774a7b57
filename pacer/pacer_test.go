package pacer

import (
	"context"
	"testing"
	"time"
)

func fixed(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

// frames feeds n frames spaced by step starting at t0 and counts ticks.
func frames(p *Pacer, tok Token, t0 time.Time, step time.Duration, n int) int {
	ticks := 0
	for i := 0; i < n; i++ {
		if p.Due(tok, t0.Add(time.Duration(i)*step)) {
			ticks++
		}
	}
	return ticks
}

func TestDue_FirstFrameOnlySetsBaseline(t *testing.T) {
	p := New(fixed(100 * time.Millisecond))
	tok := p.Start()
	t0 := time.Unix(1000, 0)

	if p.Due(tok, t0) {
		t.Fatalf("first frame ticked")
	}
	if p.Due(tok, t0.Add(99*time.Millisecond)) {
		t.Fatalf("ticked before the interval elapsed")
	}
	if !p.Due(tok, t0.Add(100*time.Millisecond)) {
		t.Fatalf("no tick at the interval")
	}
	last, ok := p.LastTick()
	if !ok || !last.Equal(t0.Add(100*time.Millisecond)) {
		t.Fatalf("baseline=%v,%v want=t0+100ms", last, ok)
	}
}

func TestDue_RateFollowsInterval(t *testing.T) {
	p := New(fixed(110 * time.Millisecond))
	tok := p.Start()
	// One second of 60Hz frames.
	got := frames(p, tok, time.Unix(0, 0), time.Second/60, 61)
	// Frames are ~16.7ms apart so a tick lands on every 7th frame (116.7ms).
	if got < 8 || got > 9 {
		t.Fatalf("ticks=%d want 8-9 for a 110ms interval over 1s", got)
	}
}

func TestDue_StaleTokenIgnored(t *testing.T) {
	p := New(fixed(10 * time.Millisecond))
	old := p.Start()
	t0 := time.Unix(0, 0)
	p.Due(old, t0)

	p.Stop()
	if p.Token() != 0 || p.Active() {
		t.Fatalf("token=%d active=%v after stop", p.Token(), p.Active())
	}
	if p.Due(old, t0.Add(time.Second)) {
		t.Fatalf("frame from a stopped period ticked")
	}

	cur := p.Start()
	if cur == old {
		t.Fatalf("restart reused token %d", cur)
	}
	p.Due(cur, t0.Add(2*time.Second))
	if p.Due(old, t0.Add(3*time.Second)) {
		t.Fatalf("frame from the previous period ticked")
	}
	if !p.Due(cur, t0.Add(3*time.Second)) {
		t.Fatalf("current token did not tick")
	}
}

func TestDue_NoFastForwardAfterResume(t *testing.T) {
	p := New(fixed(100 * time.Millisecond))
	tok := p.Start()
	t0 := time.Unix(0, 0)
	p.Due(tok, t0)
	p.Due(tok, t0.Add(100*time.Millisecond))

	p.Stop()
	// Ten seconds paused, then resumed: no burst of catch-up ticks.
	tok = p.Start()
	resume := t0.Add(10 * time.Second)
	if p.Due(tok, resume) {
		t.Fatalf("first frame after resume ticked")
	}
	if got := frames(p, tok, resume.Add(time.Millisecond), 10*time.Millisecond, 10); got != 0 {
		t.Fatalf("ticks=%d in the first 100ms after resume, want 0", got)
	}
}

func TestDue_IntervalChangeAppliesNextFrame(t *testing.T) {
	iv := 200 * time.Millisecond
	p := New(func() time.Duration { return iv })
	tok := p.Start()
	t0 := time.Unix(0, 0)
	p.Due(tok, t0)

	iv = 50 * time.Millisecond
	if !p.Due(tok, t0.Add(50*time.Millisecond)) {
		t.Fatalf("shorter interval not applied")
	}
}

func TestStop_Idempotent(t *testing.T) {
	p := New(fixed(time.Millisecond))
	tok := p.Start()
	p.Stop()
	p.Stop()
	next := p.Start()
	if next != tok+2 {
		t.Fatalf("token=%d want=%d: a second Stop must not advance the generation", next, tok+2)
	}
	if !p.Valid(next) || p.Valid(0) {
		t.Fatalf("valid(next)=%v valid(0)=%v", p.Valid(next), p.Valid(0))
	}
}

func TestTicker_StampsTokenAndPausesOnZero(t *testing.T) {
	tk := NewTicker(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tk.Run(ctx)

	select {
	case f := <-tk.Frames():
		t.Fatalf("frame %+v emitted with no token", f)
	case <-time.After(20 * time.Millisecond):
	}

	tk.SetToken(7)
	deadline := time.After(time.Second)
	for {
		select {
		case f := <-tk.Frames():
			if f.Token == 7 {
				return
			}
		case <-deadline:
			t.Fatalf("no frame with token 7")
		}
	}
}

func TestTicker_StopsOnCancel(t *testing.T) {
	tk := NewTicker(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
