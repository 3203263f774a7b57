// Package tui is the terminal front end: a Bubble Tea program that feeds
// keys, mouse gestures and display frames into a session.Controller and
// draws what comes back.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/input"
	"github.com/brensch/gridsnake/pacer"
	"github.com/brensch/gridsnake/session"
)

// FramePeriod is the spacing of frame messages while a game runs.
const FramePeriod = 16 * time.Millisecond

// Pixel size of a terminal cell, used to turn mouse drags into the same
// units as touch swipes.
const (
	cellPxX = 8
	cellPxY = 16
)

// FrameMsg is a render opportunity scheduled under Token.
type FrameMsg struct {
	Token pacer.Token
	At    time.Time
}

type flashOffMsg struct{}

func frameCmd(tok pacer.Token) tea.Cmd {
	return tea.Tick(FramePeriod, func(t time.Time) tea.Msg {
		return FrameMsg{Token: tok, At: t}
	})
}

// Controller is the part of session.Controller the UI needs.
type Controller interface {
	input.Target
	Token() pacer.Token
	Frame(tok pacer.Token, ts time.Time) bool
	Render()
	Snapshot() game.Snapshot
	Config() game.Config
	AddListener(l session.Listener)
}

type Model struct {
	ctrl   Controller
	router *input.Router
	cfg    game.Config

	snap       game.Snapshot
	chain      pacer.Token // token of the frame chain in flight, 0 if none
	flashUntil time.Time
	flashTick  int // tick whose flash already started, -1 if none
	now        func() time.Time

	width, height int

	pressing     bool
	pressX       int
	pressY       int
	pressButton  input.Button
	pressOnPanel bool
}

// New wires a Model to ctrl. The model registers itself as a listener, so
// build it before starting the program and do not share ctrl with another
// driver.
func New(ctrl Controller) *Model {
	cfg := ctrl.Config()
	m := &Model{
		ctrl:   ctrl,
		router: input.NewRouter(ctrl, cfg.MinSwipeDistance),
		cfg:    cfg,
		snap:      ctrl.Snapshot(),
		flashTick: -1,
		now:       time.Now,
	}
	ctrl.AddListener(session.ListenerFuncs{
		Tick:  m.onTick,
		Event: m.onEvent,
	})
	return m
}

func (m *Model) onTick(s game.Snapshot) {
	m.snap = s
	// Flash stays set on redraws until the next tick; start the border once.
	if s.Flash && s.Tick != m.flashTick {
		m.flashTick = s.Tick
		m.flashUntil = m.now().Add(m.cfg.FlashDuration)
	}
}

func (m *Model) onEvent(e session.Event) {
	m.snap = e.Snapshot
	switch e.Kind {
	case session.EventStarted, session.EventRestarted:
		m.flashTick = -1
	}
}

func (m *Model) Init() tea.Cmd {
	return m.frames()
}

// frames starts a new frame chain when the controller hands out a token the
// current chain does not carry. Chains under old tokens die on their own.
func (m *Model) frames() tea.Cmd {
	tok := m.ctrl.Token()
	if tok == 0 || tok == m.chain {
		return nil
	}
	m.chain = tok
	return frameCmd(tok)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if msg.Token != m.ctrl.Token() {
			return m, m.frames()
		}
		m.ctrl.Frame(msg.Token, msg.At)
		if m.ctrl.Token() != msg.Token {
			return m, tea.Batch(m.flashCmd(), m.frames())
		}
		return m, tea.Batch(m.flashCmd(), frameCmd(msg.Token))

	case flashOffMsg:
		return m, nil

	case tea.KeyMsg:
		if m.router.Key(msg.String()) == input.ActionQuit {
			return m, tea.Quit
		}
		return m, m.frames()

	case tea.MouseMsg:
		m.mouse(msg)
		return m, m.frames()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ctrl.Render()
		return m, nil
	}
	return m, nil
}

// flashCmd schedules a redraw for when the level-up border should go away.
func (m *Model) flashCmd() tea.Cmd {
	if !m.snap.Flash {
		return nil
	}
	return tea.Tick(m.cfg.FlashDuration, func(time.Time) tea.Msg { return flashOffMsg{} })
}

func (m *Model) mouse(msg tea.MouseMsg) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		m.pressing = true
		m.pressX, m.pressY = msg.X, msg.Y
		m.pressButton, m.pressOnPanel = m.buttonAt(msg.X, msg.Y)

	case tea.MouseActionRelease:
		if !m.pressing {
			return
		}
		m.pressing = false
		if m.pressOnPanel {
			if b, ok := m.buttonAt(msg.X, msg.Y); ok && b == m.pressButton {
				m.router.Press(b)
			}
			return
		}
		dx := float64(msg.X-m.pressX) * cellPxX
		dy := float64(msg.Y-m.pressY) * cellPxY
		m.router.Swipe(dx, dy)
	}
}

// Flashing reports whether the level-up border is showing.
func (m *Model) Flashing() bool {
	return m.now().Before(m.flashUntil)
}

// Snapshot is the state the next View will draw.
func (m *Model) Snapshot() game.Snapshot { return m.snap }
