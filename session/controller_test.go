package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/rules"
)

type memBest struct {
	value int
	sets  []int
}

func (m *memBest) Get() int { return m.value }
func (m *memBest) Set(v int) {
	m.value = v
	m.sets = append(m.sets, v)
}

type recorder struct {
	ticks  []game.Snapshot
	events []EventKind
}

func (r *recorder) OnTick(s game.Snapshot) { r.ticks = append(r.ticks, s) }
func (r *recorder) OnEvent(e Event)        { r.events = append(r.events, e.Kind) }

func (r *recorder) has(k EventKind) bool {
	for _, e := range r.events {
		if e == k {
			return true
		}
	}
	return false
}

func newTestController(t *testing.T, best int) (*Controller, *memBest, *recorder) {
	t.Helper()
	store := &memBest{value: best}
	rec := &recorder{}
	c := New(game.DefaultConfig, store,
		WithRand(rand.New(rand.NewSource(1))),
		WithListener(rec),
	)
	return c, store, rec
}

// placeFood puts the food directly in front of the head.
func placeFood(c *Controller) {
	c.state.Food = c.state.Head().Add(c.state.Direction)
	c.state.HasFood = true
}

func TestController_StartsReady(t *testing.T) {
	c, _, _ := newTestController(t, 30)
	if c.Status() != game.Ready {
		t.Fatalf("status=%s want=ready", c.Status())
	}
	if c.Best() != 30 || c.Snapshot().Best != 30 {
		t.Fatalf("best=%d want=30", c.Best())
	}
	if c.Token() != 0 {
		t.Fatalf("token=%d while ready", c.Token())
	}
	if want := rules.Interval(1, game.Normal, game.DefaultConfig); c.Interval() != want {
		t.Fatalf("interval=%v want=%v", c.Interval(), want)
	}
	if diff := c.Interval() - 157142857*time.Nanosecond; diff < -time.Microsecond || diff > time.Microsecond {
		t.Fatalf("interval=%v want=220ms/1.4", c.Interval())
	}
}

func TestController_NegativeStoredBestIsZero(t *testing.T) {
	c, _, _ := newTestController(t, -5)
	if c.Best() != 0 {
		t.Fatalf("best=%d want=0", c.Best())
	}
}

func TestController_FSM(t *testing.T) {
	c, _, rec := newTestController(t, 0)

	c.Start()
	if c.Status() != game.Running || c.Token() == 0 {
		t.Fatalf("status=%s token=%d after start", c.Status(), c.Token())
	}
	tok := c.Token()

	c.Start()
	if c.Token() != tok {
		t.Fatalf("start while running changed token")
	}

	c.Pause()
	if c.Status() != game.Paused || c.Token() != 0 {
		t.Fatalf("status=%s token=%d after pause", c.Status(), c.Token())
	}
	c.Pause()

	c.Toggle()
	if c.Status() != game.Running {
		t.Fatalf("toggle from paused: status=%s", c.Status())
	}
	c.Toggle()
	if c.Status() != game.Paused {
		t.Fatalf("toggle from running: status=%s", c.Status())
	}

	want := []EventKind{EventStarted, EventPaused, EventResumed, EventPaused}
	if len(rec.events) != len(want) {
		t.Fatalf("events=%v want=%v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events[%d]=%s want=%s", i, rec.events[i], want[i])
		}
	}
}

func TestController_FramesTickOnlyWhileRunning(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	t0 := time.Unix(0, 0)

	if c.Frame(1, t0) {
		t.Fatalf("frame ticked while ready")
	}
	c.Start()
	tok := c.Token()
	c.Frame(tok, t0)
	if !c.Frame(tok, t0.Add(c.Interval())) {
		t.Fatalf("due frame did not tick")
	}
	if c.Snapshot().Tick != 1 {
		t.Fatalf("tick=%d want=1", c.Snapshot().Tick)
	}

	c.Pause()
	if c.Frame(tok, t0.Add(time.Hour)) {
		t.Fatalf("frame ticked while paused")
	}

	c.Start()
	if c.Frame(tok, t0.Add(2*time.Hour)) {
		t.Fatalf("stale token ticked after resume")
	}
}

func TestController_StepScenario(t *testing.T) {
	c, _, rec := newTestController(t, 0)
	c.Start()

	c.state.Food = game.Point{X: 0, Y: 0}
	c.Step()
	snap := c.Snapshot()
	if snap.Head() != (game.Point{X: 11, Y: 10}) {
		t.Fatalf("head=%v want=(11,10)", snap.Head())
	}
	if len(rec.ticks) == 0 || rec.ticks[len(rec.ticks)-1].Tick != 1 {
		t.Fatalf("render callback not called after tick")
	}
}

func TestController_DirectionIsAppliedOnNextTick(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	c.Start()
	c.state.Food = game.Point{X: 0, Y: 0}

	if !c.SetDirection(game.Up) {
		t.Fatalf("up refused")
	}
	if c.SetDirection(game.Left) {
		t.Fatalf("reverse accepted")
	}
	c.Step()
	if h := c.Snapshot().Head(); h != (game.Point{X: 10, Y: 9}) {
		t.Fatalf("head=%v want=(10,9)", h)
	}
}

func TestController_EatPersistsNewBestOnce(t *testing.T) {
	c, store, rec := newTestController(t, 10)
	c.Start()

	placeFood(c)
	c.Step()
	if len(store.sets) != 0 {
		t.Fatalf("score equal to stored best was persisted: %v", store.sets)
	}

	placeFood(c)
	c.Step()
	if c.Best() != 20 || store.value != 20 || len(store.sets) != 1 {
		t.Fatalf("best=%d stored=%d sets=%v want=20,20,1 write", c.Best(), store.value, store.sets)
	}
	if !rec.has(EventNewBest) {
		t.Fatalf("no new best event: %v", rec.events)
	}
}

func TestController_WallEndsGame(t *testing.T) {
	c, _, rec := newTestController(t, 0)
	c.Start()
	c.state.Food = game.Point{X: 0, Y: 0}

	for i := 0; i < 20 && c.Status() == game.Running; i++ {
		c.Step()
	}
	if c.Status() != game.Over {
		t.Fatalf("status=%s want=over", c.Status())
	}
	snap := c.Snapshot()
	if snap.Cause != game.CauseWall {
		t.Fatalf("cause=%s want=wall", snap.Cause)
	}
	if snap.Head() != (game.Point{X: 19, Y: 10}) {
		t.Fatalf("head=%v want=(19,10)", snap.Head())
	}
	if c.Token() != 0 {
		t.Fatalf("pacer still running after game over")
	}
	if !rec.has(EventGameOver) {
		t.Fatalf("no game over event")
	}
	if c.SetDirection(game.Up) {
		t.Fatalf("direction accepted after game over")
	}
	if out := c.Step(); out.Moved {
		t.Fatalf("step after game over moved")
	}
}

func TestController_StartAfterOverBeginsFreshGame(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	c.Start()
	placeFood(c)
	c.Step()
	c.state.Food = game.Point{X: 0, Y: 0}
	for c.Status() == game.Running {
		c.Step()
	}

	c.Start()
	snap := c.Snapshot()
	if snap.Status != game.Running || snap.Score != 0 || snap.Tick != 0 || len(snap.Snake) != 2 {
		t.Fatalf("status=%s score=%d tick=%d len=%d want fresh running game",
			snap.Status, snap.Score, snap.Tick, len(snap.Snake))
	}
	if snap.Best != 10 {
		t.Fatalf("best=%d want=10 carried over", snap.Best)
	}
}

func TestController_RestartKeepsBestAndDifficulty(t *testing.T) {
	c, _, rec := newTestController(t, 0)
	c.SetDifficulty(game.Hell)
	c.Start()
	placeFood(c)
	c.Step()

	c.Restart()
	snap := c.Snapshot()
	if snap.Status != game.Ready || snap.Score != 0 {
		t.Fatalf("status=%s score=%d after restart", snap.Status, snap.Score)
	}
	if snap.Best != 10 || snap.Difficulty != game.Hell {
		t.Fatalf("best=%d difficulty=%s want=10,hell", snap.Best, snap.Difficulty)
	}
	if c.Token() != 0 {
		t.Fatalf("pacer running after restart")
	}
	if !rec.has(EventRestarted) {
		t.Fatalf("no restart event")
	}
}

func TestController_RestartAfterOverResetsBoard(t *testing.T) {
	c, store, _ := newTestController(t, 0)
	c.Start()
	stale := c.Token()
	placeFood(c)
	c.Step()
	c.state.Food = game.Point{X: 0, Y: 0}
	for c.Status() == game.Running {
		c.Step()
	}
	if c.Status() != game.Over {
		t.Fatalf("status=%s want=over", c.Status())
	}
	c.Restart()
	snap := c.Snapshot()
	if snap.Status != game.Ready || snap.Score != 0 || snap.Level != 1 {
		t.Fatalf("status=%s score=%d level=%d want=ready,0,1", snap.Status, snap.Score, snap.Level)
	}
	want := []game.Point{{X: 9, Y: 10}, {X: 10, Y: 10}}
	if len(snap.Snake) != len(want) {
		t.Fatalf("snake=%v want=%v", snap.Snake, want)
	}
	for i := range want {
		if snap.Snake[i] != want[i] {
			t.Fatalf("snake=%v want=%v", snap.Snake, want)
		}
	}
	if snap.Best != 10 || store.value != 10 {
		t.Fatalf("best=%d stored=%d want=10", snap.Best, store.value)
	}

	c.Start()
	now := time.Now()
	c.Frame(stale, now)
	if c.Frame(stale, now.Add(time.Second)) {
		t.Fatalf("frame with old token ticked after restart")
	}
	if c.Snapshot().Tick != 0 {
		t.Fatalf("tick=%d want=0", c.Snapshot().Tick)
	}
}

func TestController_SetDifficulty(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	c.SetDifficulty(game.Hard)
	if c.Difficulty() != game.Hard || c.Interval() != 110*time.Millisecond {
		t.Fatalf("difficulty=%s interval=%v want=hard,110ms", c.Difficulty(), c.Interval())
	}
	c.SetDifficulty(game.Difficulty(99))
	if c.Difficulty() != game.Normal {
		t.Fatalf("invalid difficulty=%s want=normal", c.Difficulty())
	}
}

func TestController_LevelUpFlash(t *testing.T) {
	c, _, rec := newTestController(t, 0)
	c.Start()
	for i := 0; i < game.DefaultConfig.FoodPerLevel; i++ {
		placeFood(c)
		c.Step()
	}
	snap := c.Snapshot()
	if snap.Level != 2 || !snap.Flash {
		t.Fatalf("level=%d flash=%v want=2,true", snap.Level, snap.Flash)
	}
	if !rec.has(EventLevelUp) {
		t.Fatalf("no level up event")
	}

	c.state.Food = game.Point{X: 0, Y: 0}
	c.Step()
	if c.Snapshot().Flash {
		t.Fatalf("flash lasted beyond the level-up tick")
	}
}
