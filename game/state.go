// Package game defines the core value types for a single-player snake session.
//
// These types carry no behaviour beyond construction, bounds checks and
// copying. Movement, collisions and scoring live in package rules; the state
// machine that decides when a tick may run lives in package session.
package game

import (
	"math/rand"
	"time"
)

// Point is a board cell. (0,0) is the top-left corner; Y grows downwards.
type Point struct {
	X int
	Y int
}

// Add returns p moved by one step in d.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Grid is the bounded lattice [0,Cols)x[0,Rows).
type Grid struct {
	Cols int
	Rows int
}

// Contains reports whether p lies on the board.
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Cols && p.Y >= 0 && p.Y < g.Rows
}

// Cells is the number of cells on the board.
func (g Grid) Cells() int {
	return g.Cols * g.Rows
}

// Status is the session state.
type Status int

const (
	Ready Status = iota
	Running
	Paused
	Over
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Over:
		return "over"
	default:
		return "unknown"
	}
}

// Cause records why a session ended.
type Cause int

const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
	// CauseBoardFull ends the session when no empty cell is left for food.
	CauseBoardFull
)

func (c Cause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseSelf:
		return "self"
	case CauseBoardFull:
		return "board_full"
	default:
		return "none"
	}
}

// State is the complete mutable state of one session.
// Snake is stored tail first, head last.
type State struct {
	Grid      Grid
	Snake     []Point
	Direction Direction // last direction actually applied
	Pending   Direction // requested direction, resolved on the next tick
	Food      Point
	HasFood   bool

	Score      int
	Best       int
	Level      int
	Eaten      int
	Tick       int
	Difficulty Difficulty
	Status     Status
	Cause      Cause
}

// NewState builds the canonical opening position: a two-cell snake centred
// on the board heading right, with food on a random free cell.
func NewState(cfg Config, best int, difficulty Difficulty, rng *rand.Rand) *State {
	if !difficulty.Valid() {
		difficulty = Normal
	}
	cx, cy := cfg.Cols/2, cfg.Rows/2

	s := &State{
		Grid: Grid{Cols: cfg.Cols, Rows: cfg.Rows},
		Snake: []Point{
			{X: cx - 1, Y: cy},
			{X: cx, Y: cy},
		},
		Direction:  Right,
		Pending:    Right,
		Best:       best,
		Level:      1,
		Difficulty: difficulty,
		Status:     Ready,
	}
	s.Food, s.HasFood = SpawnFood(s.Grid, s.Snake, rng)
	return s
}

// Head returns the head segment.
func (s *State) Head() Point {
	return s.Snake[len(s.Snake)-1]
}

// Occupies reports whether any snake segment sits on p.
func (s *State) Occupies(p Point) bool {
	for _, seg := range s.Snake {
		if seg == p {
			return true
		}
	}
	return false
}

// SetPending stages d for the next tick. A request for the exact opposite of
// the applied direction is dropped and false is returned.
func (s *State) SetPending(d Direction) bool {
	if !d.Valid() || d == s.Direction.Opposite() {
		return false
	}
	s.Pending = d
	return true
}

// Clone performs a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Snake = make([]Point, len(s.Snake))
	copy(out.Snake, s.Snake)
	return &out
}

// Snapshot is a read-only view handed to renderers. It never aliases the
// live snake slice.
type Snapshot struct {
	Cols       int
	Rows       int
	Snake      []Point
	Direction  Direction
	Food       Point
	HasFood    bool
	Score      int
	Best       int
	Level      int
	Eaten      int
	Tick       int
	Difficulty Difficulty
	Status     Status
	Cause      Cause
	Interval   time.Duration
	Flash      bool // a level-up happened on the tick that produced this snapshot
}

// Snapshot copies s into a Snapshot. interval and flash are supplied by the
// caller since they are derived, not stored.
func (s *State) Snapshot(interval time.Duration, flash bool) Snapshot {
	body := make([]Point, len(s.Snake))
	copy(body, s.Snake)
	return Snapshot{
		Cols:       s.Grid.Cols,
		Rows:       s.Grid.Rows,
		Snake:      body,
		Direction:  s.Direction,
		Food:       s.Food,
		HasFood:    s.HasFood,
		Score:      s.Score,
		Best:       s.Best,
		Level:      s.Level,
		Eaten:      s.Eaten,
		Tick:       s.Tick,
		Difficulty: s.Difficulty,
		Status:     s.Status,
		Cause:      s.Cause,
		Interval:   interval,
		Flash:      flash,
	}
}

// Head returns the head segment of the snapshot.
func (s Snapshot) Head() Point {
	if len(s.Snake) == 0 {
		return Point{}
	}
	return s.Snake[len(s.Snake)-1]
}
