package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color(string(palette.ColorIndigo))).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fieldStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	cursorStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("210"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

const help = "↑/↓ select  0-5 ←/→ level  a add  x remove  f filter  m midi  tab input  space play  q quit"

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("promptdj"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status()))
	b.WriteString("\n")
	b.WriteString(fieldStyle.Render(m.field()))
	b.WriteString("\n")

	prompts := m.display()
	for i, p := range prompts {
		b.WriteString(m.row(i, p))
		b.WriteString("\n")
	}
	if len(prompts) == 0 {
		b.WriteString(statusStyle.Render("  no prompts, press a to add one"))
		b.WriteString("\n")
	}

	if m.board.MIDIShown() {
		b.WriteString(m.devicesView())
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

// display is the snapshot as drawn: filtered prompts in neutral colour
// and the dragged prompt at its local position.
func (m *Model) display() []prompt.Prompt {
	ps := m.snap.Display()
	if m.dragging == "" {
		return ps
	}
	for i := range ps {
		if ps[i].ID == m.dragging {
			if local, ok := m.board.Local(ps[i].ID); ok {
				ps[i].X, ps[i].Y = local.X, local.Y
			}
		}
	}
	return ps
}

func (m *Model) status() string {
	state := "paused"
	if m.playing {
		state = "playing"
	}
	input := "midi off"
	if id, ok := m.board.ActiveInput(); ok {
		input = fmt.Sprintf("midi input %d", id)
		for _, d := range m.devices {
			if d.ID == id {
				input = "midi " + d.Name
			}
		}
	}
	return fmt.Sprintf("%s · %s · %d layers", state, input, len(m.background.Layers))
}

func (m *Model) field() string {
	grid := make([][]string, fieldRows)
	for r := range grid {
		grid[r] = make([]string, fieldCols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	for _, p := range m.display() {
		col, row := m.toCell(p.X, p.Y)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(string(p.Color)))
		if p.Level() > 0 {
			style = style.Bold(true)
		}
		for i, r := range label(p.Text) {
			if col+i < fieldCols {
				grid[row][col+i] = style.Render(string(r))
			}
		}
	}

	lines := make([]string, fieldRows)
	for r := range grid {
		lines[r] = strings.Join(grid[r], "")
	}
	return strings.Join(lines, "\n")
}

func label(text string) []rune {
	r := []rune(text)
	if len(r) > labelLen {
		r = r[:labelLen]
	}
	return r
}

func (m *Model) row(i int, p prompt.Prompt) string {
	marker := "  "
	if i == m.cursor {
		marker = cursorStyle.Render("> ")
	}
	name := lipgloss.NewStyle().Foreground(lipgloss.Color(string(p.Color))).Width(22).Render(p.Text)

	halo := "     "
	if scale, visible := m.board.Halo(p.ID); visible {
		halo = fmt.Sprintf("×%.2f", scale)
	}
	return fmt.Sprintf("%s%s %s cc%-3d %s", marker, name, levelBar(p.Level()), p.CC, halo)
}

func levelBar(level int) string {
	level = min(max(level, 0), intensity.MaxLevel)
	return strings.Repeat("■", level) + strings.Repeat("□", intensity.MaxLevel-level)
}

func (m *Model) devicesView() string {
	var b strings.Builder
	b.WriteString(statusStyle.Render("midi inputs:"))
	b.WriteString("\n")
	active, hasActive := m.board.ActiveInput()
	for _, d := range m.devices {
		marker := "  "
		if hasActive && d.ID == active {
			marker = "* "
		}
		b.WriteString(marker + d.Name + "\n")
	}
	return b.String()
}
