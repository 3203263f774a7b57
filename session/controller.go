// Package session owns a snake game from start to game over.
//
// A Controller holds the only mutable game.State, runs the Ready/Running/
// Paused/Over state machine and decides, through a pacer.Pacer, when a frame
// turns into a tick. It is not safe for concurrent use: every method must be
// called from the same goroutine (the UI loop or the headless loop).
package session

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/pacer"
	"github.com/brensch/gridsnake/rules"
)

// BestScore is the persistence bridge for the single best-score value.
// Implementations never fail: Get returns 0 when nothing usable is stored
// and Set is best-effort.
type BestScore interface {
	Get() int
	Set(score int)
}

type Controller struct {
	cfg        game.Config
	store      BestScore
	rng        *rand.Rand
	log        *slog.Logger
	difficulty game.Difficulty

	state     *game.State
	pacer     *pacer.Pacer
	best      int
	flash     bool
	listeners []Listener
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the random source used for food placement.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDifficulty selects the starting difficulty. Invalid values become Normal.
func WithDifficulty(d game.Difficulty) Option {
	return func(c *Controller) { c.difficulty = d }
}

func WithListener(l Listener) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, l) }
}

// New builds a Controller in the Ready state. The best score is read from
// store once, here; after that it is tracked in memory and only written.
func New(cfg game.Config, store BestScore, opts ...Option) *Controller {
	c := &Controller{
		cfg:        cfg,
		store:      store,
		log:        slog.Default(),
		difficulty: game.Normal,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.difficulty.Valid() {
		c.difficulty = game.Normal
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.store != nil {
		c.best = max(c.store.Get(), 0)
	}
	c.pacer = pacer.New(c.Interval)
	c.reset()
	return c
}

// AddListener registers l for ticks and events.
func (c *Controller) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) reset() {
	c.state = game.NewState(c.cfg, c.best, c.difficulty, c.rng)
	c.flash = false
}

// Config returns the game constants in use.
func (c *Controller) Config() game.Config { return c.cfg }

// Status returns the current session state.
func (c *Controller) Status() game.Status { return c.state.Status }

// Best returns the best score seen so far, across sessions.
func (c *Controller) Best() int { return c.best }

// Difficulty returns the selected difficulty.
func (c *Controller) Difficulty() game.Difficulty { return c.difficulty }

// Token returns the pacer token frames must carry, or zero when not running.
func (c *Controller) Token() pacer.Token { return c.pacer.Token() }

// Interval is the current tick interval for the state's level and difficulty.
func (c *Controller) Interval() time.Duration {
	return rules.Interval(c.state.Level, c.state.Difficulty, c.cfg)
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() game.Snapshot {
	return c.state.Snapshot(c.Interval(), c.flash)
}

// Start moves Ready or Paused to Running. After a game over it first builds
// a fresh session. Starting while running does nothing. Frames must carry
// the new Token from now on.
func (c *Controller) Start() {
	kind := EventStarted
	switch c.state.Status {
	case game.Running:
		return
	case game.Paused:
		kind = EventResumed
	case game.Over:
		c.reset()
	}

	c.state.Status = game.Running
	tok := c.pacer.Start()
	c.log.Debug("session running", "event", kind.String(), "token", uint64(tok))
	c.emit(kind)
}

// Pause stops ticking. Only valid while running.
func (c *Controller) Pause() {
	if c.state.Status != game.Running {
		return
	}
	c.state.Status = game.Paused
	c.pacer.Stop()
	c.log.Debug("session paused", "tick", c.state.Tick)
	c.emit(EventPaused)
}

// Toggle pauses a running session and starts anything else.
func (c *Controller) Toggle() {
	if c.state.Status == game.Running {
		c.Pause()
		return
	}
	c.Start()
}

// Restart discards the current session and returns to Ready. The best
// score survives.
func (c *Controller) Restart() {
	c.pacer.Stop()
	c.reset()
	c.log.Debug("session restarted", "best", c.best)
	c.emit(EventRestarted)
	c.Render()
}

// SetDirection stages a direction change for the next tick. It is rejected
// when d reverses the current heading or the session is over.
func (c *Controller) SetDirection(d game.Direction) bool {
	if c.state.Status == game.Over {
		return false
	}
	return c.state.SetPending(d)
}

// SetDifficulty changes the speed multiplier. It takes effect on the next
// interval check and sticks across restarts. Invalid values become Normal.
func (c *Controller) SetDifficulty(d game.Difficulty) {
	if !d.Valid() {
		d = game.Normal
	}
	c.difficulty = d
	c.state.Difficulty = d
	c.emit(EventDifficulty)
}

// Frame is a render opportunity at ts, scheduled under tok. It reports
// whether a tick ran. Frames from an older token, or arriving while the
// session is not running, are ignored.
func (c *Controller) Frame(tok pacer.Token, ts time.Time) bool {
	if c.state.Status != game.Running {
		return false
	}
	if !c.pacer.Due(tok, ts) {
		return false
	}
	c.step()
	return true
}

// Step runs a single tick immediately, bypassing the pacer. It does nothing
// unless the session is running.
func (c *Controller) Step() rules.Outcome {
	if c.state.Status != game.Running {
		return rules.Outcome{}
	}
	return c.step()
}

func (c *Controller) step() rules.Outcome {
	out := rules.Advance(c.state, c.cfg, c.rng)
	c.flash = out.LevelUp

	if out.NewBest {
		c.best = c.state.Best
		if c.store != nil {
			c.store.Set(c.best)
		}
	}
	if out.Over {
		c.state.Status = game.Over
		c.state.Cause = out.Cause
		c.pacer.Stop()
		c.log.Info("game over",
			"cause", out.Cause.String(),
			"score", c.state.Score,
			"level", c.state.Level,
			"ticks", c.state.Tick,
		)
	}

	c.Render()

	if out.NewBest {
		c.emit(EventNewBest)
	}
	if out.LevelUp {
		c.log.Debug("level up", "level", c.state.Level)
		c.emit(EventLevelUp)
	}
	if out.Over {
		c.emit(EventGameOver)
	}
	return out
}

// Render pushes the current snapshot to every listener, e.g. after a resize.
func (c *Controller) Render() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, l := range c.listeners {
		l.OnTick(snap)
	}
}

func (c *Controller) emit(kind EventKind) {
	if len(c.listeners) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: c.Snapshot()}
	for _, l := range c.listeners {
		l.OnEvent(ev)
	}
}
