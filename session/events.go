package session

import (
	"github.com/brensch/gridsnake/game"
)

// EventKind enumerates what a Listener can be told about.
type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventResumed
	EventRestarted
	EventLevelUp
	EventNewBest
	EventGameOver
	EventDifficulty
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventRestarted:
		return "restarted"
	case EventLevelUp:
		return "level_up"
	case EventNewBest:
		return "new_best"
	case EventGameOver:
		return "game_over"
	case EventDifficulty:
		return "difficulty"
	default:
		return "unknown"
	}
}

// Event is a state change together with the snapshot taken right after it.
type Event struct {
	Kind     EventKind
	Snapshot game.Snapshot
}

// Listener observes a Controller. Both methods run on the controller's
// goroutine and must not call back into it; anything slow belongs on a
// goroutine of the listener's own.
type Listener interface {
	// OnTick is the render callback: called after every committed tick and
	// whenever a redraw is requested.
	OnTick(game.Snapshot)
	OnEvent(Event)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Tick  func(game.Snapshot)
	Event func(Event)
}

func (l ListenerFuncs) OnTick(s game.Snapshot) {
	if l.Tick != nil {
		l.Tick(s)
	}
}

func (l ListenerFuncs) OnEvent(e Event) {
	if l.Event != nil {
		l.Event(e)
	}
}
