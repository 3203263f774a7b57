package rules

import (
	"math/rand"

	"github.com/brensch/gridsnake/game"
)

// Outcome describes what a single tick did. The zero value means the tick
// was not applied.
type Outcome struct {
	Moved   bool
	Ate     bool
	LevelUp bool
	NewBest bool
	Over    bool
	Cause   game.Cause
}

// ResolveDirection returns the direction the next tick will use. A pending
// reversal is ignored even if it slipped past SetPending, because the intent
// may have been staged against an older heading.
func ResolveDirection(state *game.State) game.Direction {
	if !state.Pending.Valid() || state.Pending == state.Direction.Opposite() {
		return state.Direction
	}
	return state.Pending
}

// NextHead is the cell the head moves into on the next tick.
func NextHead(state *game.State) game.Point {
	return state.Head().Add(ResolveDirection(state))
}

// Collides reports whether moving the head onto p ends the session.
//
// The whole pre-move body blocks, tail included: moving into the cell the
// tail is about to vacate is fatal.
func Collides(state *game.State, p game.Point) (bool, game.Cause) {
	if !state.Grid.Contains(p) {
		return true, game.CauseWall
	}
	if state.Occupies(p) {
		return true, game.CauseSelf
	}
	return false, game.CauseNone
}

// Advance applies one tick to state in place. It does nothing unless the
// session is running. On a collision the snake is left untouched and the
// returned Outcome has Over set; moving the session to Over is the caller's
// job.
func Advance(state *game.State, cfg game.Config, rng *rand.Rand) Outcome {
	if state == nil || state.Status != game.Running || len(state.Snake) == 0 {
		return Outcome{}
	}

	dir := ResolveDirection(state)
	state.Pending = dir
	newHead := state.Head().Add(dir)

	if hit, cause := Collides(state, newHead); hit {
		return Outcome{Over: true, Cause: cause}
	}

	out := Outcome{Moved: true}
	ate := state.HasFood && newHead == state.Food

	state.Snake = append(state.Snake, newHead)
	if !ate {
		// Shift in place so the backing array does not creep forward.
		copy(state.Snake, state.Snake[1:])
		state.Snake = state.Snake[:len(state.Snake)-1]
	}

	if ate {
		out.Ate = true
		state.Score += cfg.FoodScore
		state.Eaten++

		if state.Score > state.Best {
			state.Best = state.Score
			out.NewBest = true
		}

		if cfg.FoodPerLevel > 0 && state.Eaten%cfg.FoodPerLevel == 0 {
			state.Level = min(cfg.MaxLevel, state.Level+1)
			out.LevelUp = true
		}

		state.Food, state.HasFood = game.SpawnFood(state.Grid, state.Snake, rng)
		if !state.HasFood {
			out.Over = true
			out.Cause = game.CauseBoardFull
		}
	}

	state.Direction = dir
	state.Tick++
	return out
}
