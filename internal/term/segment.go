package term

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Segment is a styled run of text — the fundamental rendering unit widgets
// emit a line as. IsControl marks a non-visible control run (width 0).
type Segment struct {
	Text      string
	Style     Style
	IsControl bool
}

// NewSegment creates a segment with the default style.
func NewSegment(text string) Segment {
	return Segment{Text: text}
}

// StyledSegment creates a segment with an explicit style.
func StyledSegment(text string, style Style) Segment {
	return Segment{Text: text, Style: style}
}

// ControlSegment creates a zero-width control segment.
func ControlSegment(text string) Segment {
	return Segment{Text: text, IsControl: true}
}

// BlankSegment creates a run of width spaces with the default style.
func BlankSegment(width int) Segment {
	return Segment{Text: strings.Repeat(" ", width)}
}

// Width returns the display width in columns; 0 for a control segment.
func (s Segment) Width() int {
	if s.IsControl {
		return 0
	}
	return runewidth.StringWidth(s.Text)
}

// IsEmpty reports whether the segment carries no text.
func (s Segment) IsEmpty() bool { return s.Text == "" }

// graphemeWidth pairs a grapheme cluster with its display width.
type graphemeWidth struct {
	text  string
	width int
}

// GraphemeWidths returns each grapheme cluster in the segment together with
// its display width. Combining marks are grouped with their base character
// by Unicode grapheme segmentation. Empty for control segments.
func (s Segment) GraphemeWidths() []graphemeWidth {
	if s.IsControl || s.Text == "" {
		return nil
	}
	var out []graphemeWidth
	gr := uniseg.NewGraphemes(s.Text)
	for gr.Next() {
		cluster := gr.Str()
		out = append(out, graphemeWidth{text: cluster, width: runewidth.StringWidth(cluster)})
	}
	return out
}

// CharCount returns the number of grapheme clusters (user-perceived
// characters), 0 for control segments.
func (s Segment) CharCount() int {
	if s.IsControl {
		return 0
	}
	return uniseg.GraphemeClusterCount(s.Text)
}

// SplitAt splits the segment at a display-column offset. If offset <= 0 it
// returns (empty, self); if offset >= width it returns (self, empty). When
// the offset falls strictly inside a width-2 grapheme, the left side is
// padded with one space and the right side starts with one space so that
// left.Width()+right.Width() == self.Width(). Combining marks travel with
// their base cluster.
func (s Segment) SplitAt(offset int) (Segment, Segment) {
	if offset <= 0 {
		return StyledSegment("", s.Style), s.clone()
	}
	width := s.Width()
	if offset >= width {
		return s.clone(), StyledSegment("", s.Style)
	}

	graphemes := s.GraphemeWidths()

	var left strings.Builder
	currentWidth := 0
	splitIdx := 0
	needLeftPad := false

	for i, g := range graphemes {
		done := false
		if currentWidth+g.width > offset {
			if currentWidth < offset && g.width > 1 {
				left.WriteByte(' ')
				needLeftPad = true
			}
			splitIdx = i
			done = true
		} else {
			left.WriteString(g.text)
			currentWidth += g.width
			if currentWidth == offset {
				j := i + 1
				for j < len(graphemes) && graphemes[j].width == 0 {
					left.WriteString(graphemes[j].text)
					j++
				}
				splitIdx = j
				done = true
			}
		}
		if done {
			break
		}
	}

	var right strings.Builder
	if needLeftPad {
		right.WriteByte(' ')
		for _, g := range graphemes[splitIdx+1:] {
			right.WriteString(g.text)
		}
	} else {
		for _, g := range graphemes[splitIdx:] {
			right.WriteString(g.text)
		}
	}

	return StyledSegment(left.String(), s.Style), StyledSegment(right.String(), s.Style)
}

// TruncateToWidth truncates to at most maxWidth display columns. A wide
// character that would straddle the boundary is excluded and replaced by one
// padding space, so a truncated result is exactly maxWidth columns wide.
func (s Segment) TruncateToWidth(maxWidth int) Segment {
	left, _ := s.SplitAt(maxWidth)
	return left
}

// PadToWidth pads with trailing spaces to reach targetWidth columns. If the
// segment is already at or past targetWidth, it is returned unchanged.
func (s Segment) PadToWidth(targetWidth int) Segment {
	current := s.Width()
	if current >= targetWidth {
		return s.clone()
	}
	return StyledSegment(s.Text+strings.Repeat(" ", targetWidth-current), s.Style)
}

func (s Segment) clone() Segment {
	return Segment{Text: s.Text, Style: s.Style, IsControl: s.IsControl}
}
