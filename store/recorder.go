package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/session"
)

// Recorder is a session.Listener that buffers every committed tick and
// writes one Parquet replay per session when it ends (game over, restart or
// Close). Writes run on their own goroutine with a private copy of the rows,
// so the game loop never waits on disk.
type Recorder struct {
	outDir string
	log    *slog.Logger
	now    func() time.Time

	sessionID string
	lastTick  int
	rows      []TickRow

	wg      sync.WaitGroup
	mu      sync.Mutex
	written []string
}

func NewRecorder(outDir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		outDir:   outDir,
		log:      logger,
		now:      time.Now,
		lastTick: -1,
	}
}

// NewSessionID returns an ID that sorts by start time.
func NewSessionID(at time.Time) string {
	return fmt.Sprintf("%d_%s", at.UnixNano(), uuid.NewString()[:8])
}

// SessionID is the ID of the session being recorded, if any.
func (r *Recorder) SessionID() string { return r.sessionID }

func (r *Recorder) OnTick(s game.Snapshot) {
	if r.sessionID == "" || s.Tick <= r.lastTick {
		// Redraws (resize, restart) repeat a tick already recorded.
		return
	}
	if s.Status != game.Running && s.Status != game.Over {
		return
	}
	r.lastTick = s.Tick
	r.rows = append(r.rows, NewTickRow(r.sessionID, s, r.now()))
}

func (r *Recorder) OnEvent(e session.Event) {
	switch e.Kind {
	case session.EventStarted:
		r.flush("replaced")
		r.sessionID = NewSessionID(r.now())
		// Tick 0 is the opening position.
		r.rows = append(r.rows, NewTickRow(r.sessionID, e.Snapshot, r.now()))
		r.lastTick = 0
	case session.EventGameOver:
		// A fatal move does not advance the tick, so the final state
		// replaces the row already recorded for it.
		if r.sessionID != "" {
			row := NewTickRow(r.sessionID, e.Snapshot, r.now())
			if n := len(r.rows); n > 0 && r.rows[n-1].Tick == row.Tick {
				r.rows[n-1] = row
			} else {
				r.rows = append(r.rows, row)
			}
		}
		r.flush("game_over")
	case session.EventRestarted:
		r.flush("restart")
	}
}

func (r *Recorder) flush(reason string) {
	id, rows := r.sessionID, r.rows
	r.sessionID, r.rows, r.lastTick = "", nil, -1
	if id == "" || len(rows) == 0 {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		path, err := WriteSessionParquet(r.outDir, id, rows)
		if err != nil {
			r.log.Warn("replay not written", "session", id, "reason", reason, "err", err)
			return
		}
		r.mu.Lock()
		r.written = append(r.written, path)
		r.mu.Unlock()
		r.log.Info("replay written", "session", id, "reason", reason, "rows", len(rows), "path", path)
	}()
}

// Close writes any session still in progress and waits for pending writes.
// It must be called from the goroutine that drives the controller.
func (r *Recorder) Close() error {
	r.flush("close")
	r.wg.Wait()
	return nil
}

// Written returns the paths of the replays written so far.
func (r *Recorder) Written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.written...)
}
