// Package tui draws the board in a terminal and turns keys into actions.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"geocoin.ai/internal/protocol"
)

// Model is the client-side picture of the board. It holds only what the
// server last sent plus the cursor.
type Model struct {
	Radius  int
	Cursor  [2]int
	Markers map[[2]int]protocol.Marker
	Status  protocol.StatusView
	Popup   *protocol.PopupView
	Message string
	// Player is shown while the cursor is on the origin.
	Player protocol.PlayerMarker
}

// Command is what a key press asks for.
type Command struct {
	Action string
	Cell   [2]int
	Quit   bool
}

func NewModel(w protocol.WelcomeMsg) *Model {
	m := &Model{Radius: w.Map.Radius, Status: w.Status, Popup: w.Popup, Player: w.Map.Player}
	m.setMarkers(w.Markers)
	return m
}

func (m *Model) setMarkers(markers []protocol.Marker) {
	m.Markers = make(map[[2]int]protocol.Marker, len(markers))
	for _, mk := range markers {
		m.Markers[mk.Cell] = mk
	}
}

func (m *Model) ApplyState(st protocol.StateMsg) {
	m.Status = st.Status
	m.Popup = st.Popup
	if st.Markers != nil {
		m.setMarkers(st.Markers)
	}
}

func (m *Model) ApplyAck(ack protocol.AckMsg) {
	if ack.Accepted {
		m.Message = ""
		return
	}
	m.Message = fmt.Sprintf("%s: %s", ack.Code, ack.Message)
}

// target is the open popup's cell, else the cursor.
func (m *Model) target() [2]int {
	if m.Popup != nil {
		return m.Popup.Cell
	}
	return m.Cursor
}

// HandleKey maps a key to a command. ok is false when nothing needs sending.
func (m *Model) HandleKey(ev *tcell.EventKey) (cmd Command, ok bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		m.move(1, 0)
	case tcell.KeyDown:
		m.move(-1, 0)
	case tcell.KeyLeft:
		m.move(0, -1)
	case tcell.KeyRight:
		m.move(0, 1)
	case tcell.KeyEnter:
		return Command{Action: protocol.ActOpen, Cell: m.Cursor}, true
	case tcell.KeyEscape:
		if m.Popup == nil {
			return Command{}, false
		}
		return Command{Action: protocol.ActClose, Cell: m.Popup.Cell}, true
	case tcell.KeyCtrlC:
		return Command{Quit: true}, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return Command{Quit: true}, true
		case 'c':
			return Command{Action: protocol.ActCollect, Cell: m.target()}, true
		case 'd':
			return Command{Action: protocol.ActDeposit, Cell: m.target()}, true
		}
	}
	return Command{}, false
}

// move keeps the cursor inside [-R, R) on both axes.
func (m *Model) move(di, dj int) {
	i, j := m.Cursor[0]+di, m.Cursor[1]+dj
	if i < -m.Radius || i >= m.Radius || j < -m.Radius || j >= m.Radius {
		return
	}
	m.Cursor = [2]int{i, j}
}
