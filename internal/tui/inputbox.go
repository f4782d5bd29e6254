package tui

import (
	"strings"
	"sync"
	"unicode/utf8"

	termui "github.com/asynkron/termbench/internal/term"
)

// InputBox is a multi-line text buffer rendered as a bordered panel, the
// UTF-8-aware equivalent of the teacher's textarea widget built directly
// on the Segment model instead of bubbles/textarea.
type InputBox struct {
	mu  sync.Mutex
	buf []byte
}

// NewInputBox builds an empty input box.
func NewInputBox() *InputBox { return &InputBox{} }

// InsertByte appends a raw input byte to the buffer. Multi-byte UTF-8
// sequences arrive one byte at a time from the raw-mode reader and are
// simply concatenated; Render decodes runes at paint time.
func (b *InputBox) InsertByte(c byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, c)
}

// Backspace removes the last complete rune from the buffer.
func (b *InputBox) Backspace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return
	}
	_, size := utf8.DecodeLastRune(b.buf)
	b.buf = b.buf[:len(b.buf)-size]
}

// Reset clears the buffer.
func (b *InputBox) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = b.buf[:0]
}

// IsEmpty reports whether the buffer holds no content.
func (b *InputBox) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) == 0
}

// Value returns the buffer's current text.
func (b *InputBox) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// Height returns the panel's fixed row count for a given width: a top
// border, up to three content lines, and a bottom border.
func (b *InputBox) Height(width int) int {
	return 5
}

var borderStyle = termui.Style{}.WithFg(termui.Named(termui.BrightBlack))

// Render draws the bordered input panel, wrapping the buffer's content to
// fit the available width and padding short content with blank rows.
func (b *InputBox) Render(width int) [][]termui.Segment {
	b.mu.Lock()
	text := string(b.buf)
	b.mu.Unlock()

	if width < 3 {
		width = 3
	}
	innerWidth := width - 2
	contentRows := 3

	lines := wrapText(text, innerWidth)
	if len(lines) > contentRows {
		lines = lines[len(lines)-contentRows:]
	}
	for len(lines) < contentRows {
		lines = append(lines, "")
	}

	var rows [][]termui.Segment
	rows = append(rows, []termui.Segment{termui.StyledSegment("┌"+strings.Repeat("─", innerWidth)+"┐", borderStyle)})
	for _, line := range lines {
		padded := line
		if len(padded) < innerWidth {
			padded += strings.Repeat(" ", innerWidth-len(padded))
		}
		rows = append(rows, []termui.Segment{
			termui.StyledSegment("│", borderStyle),
			termui.NewSegment(padded),
			termui.StyledSegment("│", borderStyle),
		})
	}
	rows = append(rows, []termui.Segment{termui.StyledSegment("└"+strings.Repeat("─", innerWidth)+"┘", borderStyle)})
	return rows
}
