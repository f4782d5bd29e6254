package tui

import (
	"math"
	"sync"

	termui "github.com/asynkron/termbench/internal/term"
)

// StatusBar renders a single animated row: a color-cycling bar while the
// agent is busy, blank otherwise. The hue-sweep math mirrors the teacher's
// gradient bar, reworked to emit term.RGB-backed Segments instead of
// lipgloss hex-color strings.
type StatusBar struct {
	mu    sync.Mutex
	busy  bool
	frame int
}

// NewStatusBar builds an idle status bar.
func NewStatusBar() *StatusBar { return &StatusBar{} }

// SetBusy toggles the animated bar on or off.
func (s *StatusBar) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = busy
	if !busy {
		s.frame = 0
	}
}

// Render draws one row: a hue-cycling bar of block characters when busy, a
// blank row otherwise so the layout never shifts.
func (s *StatusBar) Render(width int) [][]termui.Segment {
	s.mu.Lock()
	busy := s.busy
	frame := s.frame
	if busy {
		s.frame++
	}
	s.mu.Unlock()

	if width < 1 {
		width = 1
	}
	if !busy {
		return [][]termui.Segment{{termui.BlankSegment(width)}}
	}

	segments := make([]termui.Segment, 0, width)
	baseHue := math.Mod(float64(frame*5), 360)
	for i := 0; i < width; i++ {
		hue := math.Mod(baseHue+float64(i*3), 360)
		phase := (float64(i)/float64(width))*2*math.Pi + float64(frame)/8.0
		light := 0.5 + 0.18*math.Sin(phase)
		r, g, b := hslToRGB(hue, 0.85, light)
		style := termui.Style{}.WithFg(termui.RGB(r, g, b))
		segments = append(segments, termui.StyledSegment("█", style))
	}
	return [][]termui.Segment{segments}
}

// hslToRGB converts H in [0,360), S/L in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60.0
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	return clampByte(r1 + m), clampByte(g1 + m), clampByte(b1 + m)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}
