package term

import (
	"fmt"
	"strings"
)

// Renderer turns an ordered []CellChange into minimal ANSI escape-sequence
// output for a given capability level (§4.4). It never fails; a Renderer
// has no error return because invalid changes are simply skipped.
type Renderer struct {
	colorSupport       ColorSupport
	synchronizedOutput bool
}

// NewRenderer creates a renderer targeting the given color support level,
// emitting DEC 2026 synchronized-output brackets when synchronizedOutput
// is true.
func NewRenderer(colorSupport ColorSupport, synchronizedOutput bool) *Renderer {
	return &Renderer{colorSupport: colorSupport, synchronizedOutput: synchronizedOutput}
}

// Render renders a change set into a byte string, stateful across the
// change set: it tracks the last emitted cursor position and style so only
// the minimal SGR transition and cursor move are emitted per change.
func (r *Renderer) Render(changes []CellChange) string {
	if len(changes) == 0 {
		return ""
	}

	var out strings.Builder
	out.Grow(len(changes) * 16)

	if r.synchronizedOutput {
		out.WriteString("\x1b[?2026h")
	}

	haveLast := false
	lastX, lastY := 0, 0
	lastStyle := Style{}
	styleActive := false

	for _, change := range changes {
		if change.Cell.Width == 0 {
			continue
		}

		needMove := !haveLast || lastX != change.X || lastY != change.Y
		if needMove {
			fmt.Fprintf(&out, "\x1b[%d;%dH", change.Y+1, change.X+1)
		}

		r.writeStyleDiff(&out, lastStyle, change.Cell.Style, styleActive)
		lastStyle = change.Cell.Style
		styleActive = true

		out.WriteString(change.Cell.Grapheme)

		lastX = change.X + change.Cell.Width
		lastY = change.Y
		haveLast = true
	}

	if styleActive && !lastStyle.IsDefault() {
		out.WriteString("\x1b[0m")
	}

	if r.synchronizedOutput {
		out.WriteString("\x1b[?2026l")
	}

	return out.String()
}

// needsReset reports whether transitioning from prev to next requires a
// full SGR reset: true whenever an attribute that was on in prev must be
// off in next (SGR has no "turn off bold only" code in the minimal set
// used here).
func needsReset(prev, next Style) bool {
	return (prev.Bold && !next.Bold) ||
		(prev.Dim && !next.Dim) ||
		(prev.Italic && !next.Italic) ||
		(prev.Underline && !next.Underline) ||
		(prev.Reverse && !next.Reverse) ||
		(prev.Strikethrough && !next.Strikethrough)
}

func (r *Renderer) writeStyleDiff(out *strings.Builder, prev, next Style, active bool) {
	if !active || needsReset(prev, next) {
		if active && !prev.IsDefault() {
			out.WriteString("\x1b[0m")
		}
		r.writeFullStyle(out, next)
		return
	}

	if prev.HasFg != next.HasFg || (next.HasFg && prev.Fg != next.Fg) {
		if next.HasFg {
			r.writeFg(out, next)
		} else {
			writeFgColor(out, Reset)
		}
	}
	if prev.HasBg != next.HasBg || (next.HasBg && prev.Bg != next.Bg) {
		if next.HasBg {
			r.writeBg(out, next)
		} else {
			writeBgColor(out, Reset)
		}
	}
	if !prev.Bold && next.Bold {
		out.WriteString("\x1b[1m")
	}
	if !prev.Dim && next.Dim {
		out.WriteString("\x1b[2m")
	}
	if !prev.Italic && next.Italic {
		out.WriteString("\x1b[3m")
	}
	if !prev.Underline && next.Underline {
		out.WriteString("\x1b[4m")
	}
	if !prev.Reverse && next.Reverse {
		out.WriteString("\x1b[7m")
	}
	if !prev.Strikethrough && next.Strikethrough {
		out.WriteString("\x1b[9m")
	}
}

func (r *Renderer) writeFullStyle(out *strings.Builder, style Style) {
	r.writeFg(out, style)
	r.writeBg(out, style)
	if style.Bold {
		out.WriteString("\x1b[1m")
	}
	if style.Dim {
		out.WriteString("\x1b[2m")
	}
	if style.Italic {
		out.WriteString("\x1b[3m")
	}
	if style.Underline {
		out.WriteString("\x1b[4m")
	}
	if style.Reverse {
		out.WriteString("\x1b[7m")
	}
	if style.Strikethrough {
		out.WriteString("\x1b[9m")
	}
}

func (r *Renderer) writeFg(out *strings.Builder, style Style) {
	if !style.HasFg {
		return
	}
	writeFgColor(out, r.downgradeColor(style.Fg))
}

func (r *Renderer) writeBg(out *strings.Builder, style Style) {
	if !style.HasBg {
		return
	}
	writeBgColor(out, r.downgradeColor(style.Bg))
}

// downgradeColor converts c to the representation appropriate for the
// renderer's color support level.
func (r *Renderer) downgradeColor(c Color) Color {
	switch r.colorSupport {
	case TrueColor:
		return c
	case Extended256:
		if c.Kind == ColorRGB {
			return Indexed(rgbTo256(c.R, c.G, c.B))
		}
		return c
	case Basic16:
		switch c.Kind {
		case ColorRGB:
			return Named(rgbToNamed(c.R, c.G, c.B))
		case ColorIndexed:
			return Named(indexToNamed(c.Index))
		default:
			return c
		}
	default: // NoColor
		return Reset
	}
}

func writeFgColor(out *strings.Builder, c Color) {
	switch c.Kind {
	case ColorRGB:
		fmt.Fprintf(out, "\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case ColorIndexed:
		fmt.Fprintf(out, "\x1b[38;5;%dm", c.Index)
	case ColorNamed:
		fmt.Fprintf(out, "\x1b[%dm", namedFgCode(c.Named))
	default: // ColorReset
		out.WriteString("\x1b[39m")
	}
}

func writeBgColor(out *strings.Builder, c Color) {
	switch c.Kind {
	case ColorRGB:
		fmt.Fprintf(out, "\x1b[48;2;%d;%d;%dm", c.R, c.G, c.B)
	case ColorIndexed:
		fmt.Fprintf(out, "\x1b[48;5;%dm", c.Index)
	case ColorNamed:
		fmt.Fprintf(out, "\x1b[%dm", namedBgCode(c.Named))
	default: // ColorReset
		out.WriteString("\x1b[49m")
	}
}

var namedFgCodes = [16]int{
	Black: 30, Red: 31, Green: 32, Yellow: 33, Blue: 34, Magenta: 35, Cyan: 36, White: 37,
	BrightBlack: 90, BrightRed: 91, BrightGreen: 92, BrightYellow: 93,
	BrightBlue: 94, BrightMagenta: 95, BrightCyan: 96, BrightWhite: 97,
}

var namedBgCodes = [16]int{
	Black: 40, Red: 41, Green: 42, Yellow: 43, Blue: 44, Magenta: 45, Cyan: 46, White: 47,
	BrightBlack: 100, BrightRed: 101, BrightGreen: 102, BrightYellow: 103,
	BrightBlue: 104, BrightMagenta: 105, BrightCyan: 106, BrightWhite: 107,
}

func namedFgCode(n NamedColor) int { return namedFgCodes[n] }
func namedBgCode(n NamedColor) int { return namedBgCodes[n] }

// rgbTo256 converts RGB to the nearest 256-color palette index: 16-231 form
// a 6x6x6 color cube, 232-255 a 24-step grayscale ramp, with a grayscale
// shortcut when r==g==b.
func rgbTo256(r, g, b uint8) uint8 {
	if r == g && g == b {
		if r < 8 {
			return 16
		}
		if r > 248 {
			return 231
		}
		return uint8((int(r)-8)*24/240) + 232
	}

	ri := colorCubeIndex(r)
	gi := colorCubeIndex(g)
	bi := colorCubeIndex(b)
	return 16 + 36*ri + 6*gi + bi
}

func colorCubeIndex(v uint8) uint8 {
	switch {
	case v < 48:
		return 0
	case v < 115:
		return 1
	default:
		return uint8((int(v) - 35) / 40)
	}
}

// namedCandidate pairs a NamedColor with its reference RGB swatch, used by
// rgbToNamed for nearest-color matching.
type namedCandidate struct {
	name    NamedColor
	r, g, b int
}

var namedCandidates = []namedCandidate{
	{Black, 0, 0, 0},
	{Red, 128, 0, 0},
	{Green, 0, 128, 0},
	{Yellow, 128, 128, 0},
	{Blue, 0, 0, 128},
	{Magenta, 128, 0, 128},
	{Cyan, 0, 128, 128},
	{White, 192, 192, 192},
	{BrightBlack, 128, 128, 128},
	{BrightRed, 255, 0, 0},
	{BrightGreen, 0, 255, 0},
	{BrightYellow, 255, 255, 0},
	{BrightBlue, 0, 0, 255},
	{BrightMagenta, 255, 0, 255},
	{BrightCyan, 0, 255, 255},
	{BrightWhite, 255, 255, 255},
}

// rgbToNamed finds the nearest named ANSI color by squared-RGB distance
// against the fixed 16-swatch palette above.
func rgbToNamed(r, g, b uint8) NamedColor {
	best := White
	bestDist := -1
	for _, cand := range namedCandidates {
		dr := int(r) - cand.r
		dg := int(g) - cand.g
		db := int(b) - cand.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = cand.name
		}
	}
	return best
}

// indexToNamed converts a 256-color index to the nearest named 16-color.
func indexToNamed(idx uint8) NamedColor {
	switch {
	case idx <= 15:
		return NamedColor(idx)
	case idx <= 231:
		i := int(idx) - 16
		bIdx := i % 6
		gIdx := (i / 6) % 6
		rIdx := i / 36
		cube := func(level int) uint8 {
			if level == 0 {
				return 0
			}
			return uint8(55 + 40*level)
		}
		return rgbToNamed(cube(rIdx), cube(gIdx), cube(bIdx))
	default:
		gray := uint8(8 + 10*(int(idx)-232))
		return rgbToNamed(gray, gray, gray)
	}
}
