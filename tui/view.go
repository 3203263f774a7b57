package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/input"
	"github.com/brensch/gridsnake/rules"
)

// Screen layout, top to bottom: HUD, bordered board, control bar, help.
// Each board cell is two terminal columns wide.
const (
	boardTop   = 1 // border row
	cellWidth  = 2
	helpString = "arrows/wasd steer · space start/pause · r restart · 1-4 difficulty · q quit"
)

var (
	hudStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5E7EB"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#22C55E"))
	bodyStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#15803D"))
	foodStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#EF4444"))
	emptyStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#111827"))
	overlayStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FACC15")).Background(lipgloss.Color("#111827"))
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#93C5FD"))

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151"))
	flashBorder = lipgloss.Color("#EF4444")
)

type panelButton struct {
	label  string
	button input.Button
}

var panel = []panelButton{
	{"[up]", input.ButtonUp},
	{"[down]", input.ButtonDown},
	{"[left]", input.ButtonLeft},
	{"[right]", input.ButtonRight},
	{"[start]", input.ButtonStart},
	{"[pause]", input.ButtonPause},
	{"[restart]", input.ButtonRestart},
}

func (m *Model) panelRow() int {
	return boardTop + m.snap.Rows + 2
}

// buttonAt finds the control-bar button under terminal cell (x, y).
func (m *Model) buttonAt(x, y int) (input.Button, bool) {
	if y != m.panelRow() {
		return 0, false
	}
	col := 0
	for _, b := range panel {
		if x >= col && x < col+len(b.label) {
			return b.button, true
		}
		col += len(b.label) + 1
	}
	return 0, false
}

// HUD is the status line above the board.
func HUD(s game.Snapshot, cfg game.Config) string {
	return fmt.Sprintf("Score %d   Best %d   Level %d   Speed %.1fx %s",
		s.Score, s.Best, s.Level, rules.SpeedFactor(s.Level, s.Difficulty, cfg), s.Difficulty)
}

// Overlay is the message drawn over the board, empty while running.
func Overlay(s game.Snapshot) string {
	switch s.Status {
	case game.Ready:
		return "press space to start"
	case game.Paused:
		return "paused"
	case game.Over:
		switch s.Cause {
		case game.CauseWall:
			return "hit the wall · r to restart"
		case game.CauseSelf:
			return "bit yourself · r to restart"
		case game.CauseBoardFull:
			return "board full! · r to restart"
		}
		return "game over · r to restart"
	}
	return ""
}

func (m *Model) View() string {
	s := m.snap
	if s.Cols == 0 || s.Rows == 0 {
		return ""
	}
	boardW := s.Cols*cellWidth + 2
	if m.width > 0 && (m.width < boardW || m.height < s.Rows+5) {
		return dimStyle.Render(fmt.Sprintf("terminal too small: need %dx%d", boardW, s.Rows+5))
	}

	var b strings.Builder
	b.WriteString(hudStyle.Render(HUD(s, m.cfg)))
	b.WriteByte('\n')

	style := boardStyle
	if m.Flashing() {
		style = style.BorderForeground(flashBorder)
	}
	b.WriteString(style.Render(m.board(s)))
	b.WriteByte('\n')

	labels := make([]string, len(panel))
	for i, p := range panel {
		labels[i] = buttonStyle.Render(p.label)
	}
	b.WriteString(strings.Join(labels, " "))
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render(helpString))
	return b.String()
}

func (m *Model) board(s game.Snapshot) string {
	cells := make([][]lipgloss.Style, s.Rows)
	for y := range cells {
		row := make([]lipgloss.Style, s.Cols)
		for x := range row {
			row[x] = emptyStyle
		}
		cells[y] = row
	}
	put := func(p game.Point, st lipgloss.Style) {
		if p.X >= 0 && p.X < s.Cols && p.Y >= 0 && p.Y < s.Rows {
			cells[p.Y][p.X] = st
		}
	}
	if s.HasFood {
		put(s.Food, foodStyle)
	}
	for i, p := range s.Snake {
		if i == len(s.Snake)-1 {
			put(p, headStyle)
		} else {
			put(p, bodyStyle)
		}
	}

	blank := strings.Repeat(" ", cellWidth)
	overlay := Overlay(s)
	mid := s.Rows / 2
	lines := make([]string, s.Rows)
	for y, row := range cells {
		if y == mid && overlay != "" {
			lines[y] = overlayStyle.Render(center(overlay, s.Cols*cellWidth))
			continue
		}
		var lb strings.Builder
		for _, st := range row {
			lb.WriteString(st.Render(blank))
		}
		lines[y] = lb.String()
	}
	return strings.Join(lines, "\n")
}

func center(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-w-left)
}
