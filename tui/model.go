// Package tui is a terminal front end for a board: a field the prompts can
// be dragged around with the mouse, and a list that sets levels from the
// keyboard.
package tui

import (
	"context"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmacd/promptdj/board"
	"github.com/jmacd/promptdj/collection"
	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/visual"
)

const (
	fieldCols = 48
	fieldRows = 14

	// Screen offset of the first field cell: title and status lines
	// plus the field border.
	fieldLeft = 1
	fieldTop  = 3

	labelLen = 3
)

// Model is the bubbletea model. It reads all prompt state from the board.
type Model struct {
	ctx   context.Context
	board *board.Board

	snap       collection.Snapshot
	background visual.Background
	cursor     int
	playing    bool
	err        string
	devices    []midi.Device
	dragging   string
}

func New(ctx context.Context, b *board.Board) *Model {
	return &Model{ctx: ctx, board: b, snap: b.Snapshot()}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.refresh()
	case backgroundMsg:
		m.background = visual.Background(msg)
	case errorMsg:
		m.err = string(msg)
	case playPauseMsg:
		m.playing = !m.playing
	case midiOpenedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.devices, _ = m.board.Devices()
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.KeyMsg:
		return m, m.key(msg.String())
	}
	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.board.Snapshot()
	if m.cursor >= m.snap.Len() {
		m.cursor = max(0, m.snap.Len()-1)
	}
}

func (m *Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= m.snap.Len() {
		return "", false
	}
	return m.snap.Prompts[m.cursor].ID, true
}

func (m *Model) key(k string) tea.Cmd {
	id, ok := m.selected()

	switch k {
	case "q", "ctrl+c":
		return tea.Quit
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(max(0, m.snap.Len()-1), m.cursor+1)
	case "0", "1", "2", "3", "4", "5":
		if ok {
			m.board.SetLevel(id, int(k[0]-'0'))
		}
	case "left", "h", "right", "l":
		if ok {
			p, _ := m.snap.Get(id)
			step := 1
			if k == "left" || k == "h" {
				step = -1
			}
			m.board.SetLevel(id, min(intensity.MaxLevel, max(0, p.Level()+step)))
		}
	case "a":
		if names := m.board.AvailableNames(); len(names) > 0 {
			m.board.Add(names[0])
		}
	case "x", "delete":
		if ok {
			m.board.Remove(id)
		}
	case "f":
		if ok {
			m.toggleFilter(id)
		}
	case "m":
		if m.board.MIDIShown() {
			m.board.HideMIDI()
			return nil
		}
		return m.openMIDI()
	case "tab":
		m.nextInput()
	case " ", "p":
		m.board.PlayPause()
	}
	m.refresh()
	return nil
}

func (m *Model) openMIDI() tea.Cmd {
	ctx, b := m.ctx, m.board
	return func() tea.Msg {
		return midiOpenedMsg{err: b.OpenMIDI(ctx)}
	}
}

func (m *Model) nextInput() {
	if !m.board.MIDIShown() || len(m.devices) == 0 {
		return
	}
	next := 0
	if cur, ok := m.board.ActiveInput(); ok {
		i := slices.IndexFunc(m.devices, func(d midi.Device) bool { return d.ID == cur })
		next = (i + 1) % len(m.devices)
	}
	if err := m.board.SelectInput(m.devices[next].ID); err != nil {
		m.err = err.Error()
	}
}

func (m *Model) toggleFilter(id string) {
	var ids []string
	for f, on := range m.snap.Filtered {
		if on && f != id {
			ids = append(ids, f)
		}
	}
	if !m.snap.Filtered[id] {
		ids = append(ids, id)
	}
	m.board.SetFiltered(ids...)
}

// toBoard converts a field cell to board coordinates at the cell centre.
func (m *Model) toBoard(col, row int) (float64, float64) {
	ext := m.board.Bounds()
	return (float64(col) + 0.5) * ext.W / fieldCols, (float64(row) + 0.5) * ext.H / fieldRows
}

// toCell converts board coordinates to a field cell.
func (m *Model) toCell(x, y float64) (int, int) {
	ext := m.board.Bounds()
	if ext.W <= 0 || ext.H <= 0 {
		return 0, 0
	}
	col := int(x / ext.W * fieldCols)
	row := int(y / ext.H * fieldRows)
	return min(max(col, 0), fieldCols-1), min(max(row, 0), fieldRows-1)
}

func (m *Model) hit(col, row int) (string, bool) {
	// Later prompts draw on top.
	for i := m.snap.Len() - 1; i >= 0; i-- {
		p := m.snap.Prompts[i]
		c, r := m.toCell(p.X, p.Y)
		if r == row && col >= c && col < c+labelLen {
			return p.ID, true
		}
	}
	return "", false
}

func (m *Model) mouse(msg tea.MouseMsg) {
	col, row := msg.X-fieldLeft, msg.Y-fieldTop
	x, y := m.toBoard(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		id, ok := m.hit(col, row)
		if !ok {
			return
		}
		if d, ok := m.board.Drag(id); ok && d.PointerDown(x, y, false) {
			m.dragging = id
			m.cursor = slices.Index(m.snap.IDs(), id)
		}
	case tea.MouseActionMotion:
		if m.dragging != "" {
			m.board.Pointer().Move(x, y)
		}
	case tea.MouseActionRelease:
		if m.dragging != "" {
			m.board.Pointer().Up(x, y)
			m.dragging = ""
			m.refresh()
		}
	}
}
