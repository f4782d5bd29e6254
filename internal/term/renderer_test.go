package term

import (
	"strings"
	"testing"
)

func cellOf(grapheme string, style Style, width int) Cell {
	return Cell{Grapheme: grapheme, Style: style, Width: width}
}

func TestRendererEmptyChanges(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	if out := r.Render(nil); out != "" {
		t.Fatalf("got %q, want empty", out)
	}
}

func TestRendererCursorPosition(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	changes := []CellChange{{X: 5, Y: 3, Cell: cellOf("A", Style{}, 1)}}
	out := r.Render(changes)
	if !strings.Contains(out, "\x1b[4;6H") {
		t.Fatalf("missing cursor move in %q", out)
	}
	if !strings.Contains(out, "A") {
		t.Fatalf("missing grapheme in %q", out)
	}
}

func TestRendererAdjacentCellsNoRedundantMove(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	changes := []CellChange{
		{X: 0, Y: 0, Cell: cellOf("A", Style{}, 1)},
		{X: 1, Y: 0, Cell: cellOf("B", Style{}, 1)},
	}
	out := r.Render(changes)
	if c := strings.Count(out, "\x1b["); c != 1 {
		t.Fatalf("escape count = %d, want 1, output: %q", c, out)
	}
}

func TestRendererFgTrueColor(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{}.WithFg(RGB(255, 128, 0))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[38;2;255;128;0m") {
		t.Fatalf("missing truecolor fg in %q", out)
	}
}

func TestRendererBgTrueColor(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{}.WithBg(RGB(0, 128, 255))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[48;2;0;128;255m") {
		t.Fatalf("missing truecolor bg in %q", out)
	}
}

func TestRendererBoldItalic(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{Bold: true, Italic: true}
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[1m") || !strings.Contains(out, "\x1b[3m") {
		t.Fatalf("missing bold/italic in %q", out)
	}
}

func TestRendererNamedColor(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{}.WithFg(Named(Red))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[31m") {
		t.Fatalf("missing named red fg in %q", out)
	}
}

func TestRendererIndexedColor(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{}.WithFg(Indexed(42))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[38;5;42m") {
		t.Fatalf("missing indexed fg in %q", out)
	}
}

func TestRendererStyleResetAtEnd(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{Bold: true}
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.HasSuffix(out, "\x1b[0m") {
		t.Fatalf("expected trailing reset in %q", out)
	}
}

func TestRendererNoResetForDefaultStyle(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", Style{}, 1)}})
	if strings.Contains(out, "\x1b[0m") {
		t.Fatalf("unexpected reset in %q", out)
	}
}

func TestRendererDropsForegroundOnTransitionToDefault(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	changes := []CellChange{
		{X: 0, Y: 0, Cell: cellOf("X", Style{}.WithFg(RGB(255, 0, 0)), 1)},
		{X: 1, Y: 0, Cell: cellOf("Y", Style{}, 1)},
	}
	out := r.Render(changes)
	if !strings.Contains(out, "\x1b[39m") {
		t.Fatalf("expected a foreground reset before Y, got %q", out)
	}
	idx := strings.Index(out, "\x1b[39m")
	yIdx := strings.Index(out, "Y")
	if idx < 0 || yIdx < 0 || idx > yIdx {
		t.Fatalf("foreground reset must precede Y, got %q", out)
	}
}

func TestRendererDropsBackgroundOnTransitionToDefault(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	changes := []CellChange{
		{X: 0, Y: 0, Cell: cellOf("X", Style{}.WithBg(RGB(0, 0, 255)), 1)},
		{X: 1, Y: 0, Cell: cellOf("Y", Style{}, 1)},
	}
	out := r.Render(changes)
	if !strings.Contains(out, "\x1b[49m") {
		t.Fatalf("expected a background reset before Y, got %q", out)
	}
}

func TestRendererSkipContinuationCells(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	changes := []CellChange{
		{X: 0, Y: 0, Cell: cellOf("世", Style{}, 2)},
		{X: 1, Y: 0, Cell: ContinuationCell},
	}
	out := r.Render(changes)
	if !strings.Contains(out, "世") {
		t.Fatalf("missing wide grapheme in %q", out)
	}
	if c := strings.Count(out, "\x1b["); c != 1 {
		t.Fatalf("escape count = %d, want 1, output: %q", c, out)
	}
}

func TestRendererSynchronizedOutputWrapping(t *testing.T) {
	r := NewRenderer(TrueColor, true)
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("A", Style{}, 1)}})
	if !strings.HasPrefix(out, "\x1b[?2026h") || !strings.HasSuffix(out, "\x1b[?2026l") {
		t.Fatalf("missing sync bracket in %q", out)
	}
}

func TestRendererNoSyncWhenDisabled(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("A", Style{}, 1)}})
	if strings.Contains(out, "\x1b[?2026h") || strings.Contains(out, "\x1b[?2026l") {
		t.Fatalf("unexpected sync bracket in %q", out)
	}
}

func TestRendererTrueColorPassthrough(t *testing.T) {
	r := NewRenderer(TrueColor, false)
	style := Style{}.WithFg(RGB(100, 200, 50))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[38;2;100;200;50m") {
		t.Fatalf("missing passthrough truecolor in %q", out)
	}
}

func TestRendererTrueColorTo256(t *testing.T) {
	r := NewRenderer(Extended256, false)
	style := Style{}.WithFg(RGB(255, 0, 0))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[38;5;") {
		t.Fatalf("expected 256-color index in %q", out)
	}
	if strings.Contains(out, "\x1b[38;2;") {
		t.Fatalf("unexpected truecolor escape under Extended256 in %q", out)
	}
}

func TestRendererTrueColorTo16(t *testing.T) {
	r := NewRenderer(Basic16, false)
	style := Style{}.WithFg(RGB(255, 0, 0))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[91m") {
		t.Fatalf("expected bright red named code in %q", out)
	}
}

func TestRendererNoColorStripsAll(t *testing.T) {
	r := NewRenderer(NoColor, false)
	style := Style{}.WithFg(RGB(255, 0, 0)).WithBg(Named(Blue))
	out := r.Render([]CellChange{{X: 0, Y: 0, Cell: cellOf("X", style, 1)}})
	if !strings.Contains(out, "\x1b[39m") || !strings.Contains(out, "\x1b[49m") {
		t.Fatalf("expected reset fg/bg in %q", out)
	}
}

func TestRgbTo256PureRed(t *testing.T) {
	if idx := rgbTo256(255, 0, 0); idx != 196 {
		t.Fatalf("idx = %d, want 196", idx)
	}
}

func TestRgbTo256Grayscale(t *testing.T) {
	if idx := rgbTo256(128, 128, 128); idx != 244 {
		t.Fatalf("idx = %d, want 244", idx)
	}
}

func TestRgbTo256Black(t *testing.T) {
	if idx := rgbTo256(0, 0, 0); idx != 16 {
		t.Fatalf("idx = %d, want 16", idx)
	}
}

func TestRgbToNamedPureRed(t *testing.T) {
	if n := rgbToNamed(255, 0, 0); n != BrightRed {
		t.Fatalf("named = %d, want BrightRed", n)
	}
}

func TestRgbToNamedPureBlack(t *testing.T) {
	if n := rgbToNamed(0, 0, 0); n != Black {
		t.Fatalf("named = %d, want Black", n)
	}
}

func TestRgbToNamedPureWhite(t *testing.T) {
	if n := rgbToNamed(255, 255, 255); n != BrightWhite {
		t.Fatalf("named = %d, want BrightWhite", n)
	}
}
