// Package input funnels every kind of player input into the few operations
// a session understands: stage a direction, toggle start/pause, restart and
// pick a difficulty.
package input

import (
	"math"
	"strings"

	"github.com/brensch/gridsnake/game"
)

// Target is what the router drives; *session.Controller satisfies it.
type Target interface {
	Status() game.Status
	SetDirection(d game.Direction) bool
	Start()
	Pause()
	Toggle()
	Restart()
	SetDifficulty(d game.Difficulty)
}

// Action is the result of mapping a raw input.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionToggle
	ActionStart
	ActionPause
	ActionRestart
	ActionEasy
	ActionNormal
	ActionHard
	ActionHell
	ActionQuit
)

// Direction returns the heading for a directional action.
func (a Action) Direction() (game.Direction, bool) {
	switch a {
	case ActionUp:
		return game.Up, true
	case ActionDown:
		return game.Down, true
	case ActionLeft:
		return game.Left, true
	case ActionRight:
		return game.Right, true
	}
	return 0, false
}

// Difficulty returns the difficulty for a difficulty-select action.
func (a Action) Difficulty() (game.Difficulty, bool) {
	switch a {
	case ActionEasy:
		return game.Easy, true
	case ActionNormal:
		return game.Normal, true
	case ActionHard:
		return game.Hard, true
	case ActionHell:
		return game.Hell, true
	}
	return 0, false
}

// Keymap maps key names (as reported by the terminal layer) to actions.
var Keymap = map[string]Action{
	"up":     ActionUp,
	"w":      ActionUp,
	"down":   ActionDown,
	"s":      ActionDown,
	"left":   ActionLeft,
	"a":      ActionLeft,
	"right":  ActionRight,
	"d":      ActionRight,
	" ":      ActionToggle,
	"space":  ActionToggle,
	"p":      ActionPause,
	"enter":  ActionStart,
	"r":      ActionRestart,
	"1":      ActionEasy,
	"2":      ActionNormal,
	"3":      ActionHard,
	"4":      ActionHell,
	"q":      ActionQuit,
	"esc":    ActionQuit,
	"ctrl+c": ActionQuit,
}

// LookupKey maps a key name to an action. Letters are case-insensitive.
func LookupKey(name string) Action {
	if a, ok := Keymap[name]; ok {
		return a
	}
	if a, ok := Keymap[strings.ToLower(name)]; ok {
		return a
	}
	return ActionNone
}

// Button is an on-screen control.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonStart
	ButtonPause
	ButtonRestart
)

// Router applies inputs to a Target.
type Router struct {
	target  Target
	minDist float64
}

// NewRouter returns a Router. minSwipe is the distance below which a touch
// gesture counts as a tap; non-positive values use the default of 24.
func NewRouter(target Target, minSwipe float64) *Router {
	if minSwipe <= 0 {
		minSwipe = game.DefaultConfig.MinSwipeDistance
	}
	return &Router{target: target, minDist: minSwipe}
}

// Direction stages d. Keyboard arrows use this: they steer, they never start
// a paused or fresh game.
func (r *Router) Direction(d game.Direction) bool {
	return r.target.SetDirection(d)
}

// Key handles a keyboard key by name. It returns the action it mapped to so
// the caller can handle ActionQuit.
func (r *Router) Key(name string) Action {
	a := LookupKey(name)
	r.Apply(a)
	return a
}

// Apply performs a mapped action.
func (r *Router) Apply(a Action) {
	if d, ok := a.Direction(); ok {
		r.Direction(d)
		return
	}
	if d, ok := a.Difficulty(); ok {
		r.target.SetDifficulty(d)
		return
	}
	switch a {
	case ActionToggle:
		r.target.Toggle()
	case ActionStart:
		r.target.Start()
	case ActionPause:
		r.target.Pause()
	case ActionRestart:
		r.target.Restart()
	}
}

// Press handles an on-screen button. Directional buttons also start a game
// that is ready or paused.
func (r *Router) Press(b Button) {
	switch b {
	case ButtonUp:
		r.steerAndStart(game.Up)
	case ButtonDown:
		r.steerAndStart(game.Down)
	case ButtonLeft:
		r.steerAndStart(game.Left)
	case ButtonRight:
		r.steerAndStart(game.Right)
	case ButtonStart:
		r.target.Start()
	case ButtonPause:
		r.target.Pause()
	case ButtonRestart:
		r.target.Restart()
	}
}

// Gesture is the classification of a touch.
type Gesture struct {
	Tap       bool
	Direction game.Direction
}

// Classify turns a touch displacement into a tap or a swipe along the
// dominant axis. Ties go to the vertical axis.
func (r *Router) Classify(dx, dy float64) Gesture {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax < r.minDist && ay < r.minDist {
		return Gesture{Tap: true}
	}
	if ax > ay {
		if dx > 0 {
			return Gesture{Direction: game.Right}
		}
		return Gesture{Direction: game.Left}
	}
	if dy > 0 {
		return Gesture{Direction: game.Down}
	}
	return Gesture{Direction: game.Up}
}

// Swipe handles a completed touch with displacement (dx, dy). A tap toggles
// start/pause; a swipe steers and starts a ready or paused game.
func (r *Router) Swipe(dx, dy float64) Gesture {
	g := r.Classify(dx, dy)
	if g.Tap {
		r.target.Toggle()
		return g
	}
	r.steerAndStart(g.Direction)
	return g
}

func (r *Router) steerAndStart(d game.Direction) {
	r.target.SetDirection(d)
	switch r.target.Status() {
	case game.Ready, game.Paused:
		r.target.Start()
	}
}
