package tui

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
)

var (
	styleEmpty  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCache  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleText   = tcell.StyleDefault
	styleWarn   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// Glyph returns the rune and style for cell (i, j).
func (m *Model) Glyph(i, j int) (rune, tcell.Style) {
	if mk, ok := m.Markers[[2]int{i, j}]; ok {
		if mk.Coins == 0 {
			return 'o', styleCache
		}
		return '$', styleCache
	}
	if i == 0 && j == 0 {
		return '@', stylePlayer
	}
	return '.', styleEmpty
}

// Draw renders the grid with north up, then the status, popup and message lines.
func (m *Model) Draw(s tcell.Screen) {
	s.Clear()
	r := m.Radius
	row := 0
	for i := r - 1; i >= -r; i-- {
		for j := -r; j < r; j++ {
			ch, st := m.Glyph(i, j)
			if m.Cursor == [2]int{i, j} {
				st = st.Reverse(true)
			}
			s.SetContent((j+r)*2, row, ch, nil, st)
		}
		row++
	}
	row++
	drawText(s, 0, row, styleText, m.Status.Text)
	row++
	if m.Cursor == [2]int{0, 0} && m.Player.Label != "" {
		drawText(s, 0, row, stylePlayer, m.Player.Label)
		row++
	}
	if p := m.Popup; p != nil {
		drawText(s, 0, row, styleCache, p.Title+" ("+strconv.Itoa(p.Count)+" coins)")
		row++
		for _, c := range p.Coins {
			drawText(s, 2, row, styleText, c.ID)
			row++
		}
	}
	if m.Message != "" {
		drawText(s, 0, row, styleWarn, m.Message)
		row++
	}
	drawText(s, 0, row+1, styleEmpty, "arrows move  enter open  c collect  d deposit  esc close  q quit")
	s.Show()
}

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for _, ch := range text {
		s.SetContent(x, y, ch, nil, st)
		x++
	}
}
