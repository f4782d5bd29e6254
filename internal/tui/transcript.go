package tui

import (
	"regexp"
	"strings"
	"sync"

	glamour "github.com/charmbracelet/glamour"

	termui "github.com/asynkron/termbench/internal/term"
)

type lineKind int

const (
	lineSystem lineKind = iota
	lineUser
	lineAssistant
)

type transcriptLine struct {
	kind lineKind
	text string
}

// Transcript accumulates conversation turns and renders them as wrapped,
// styled Segments, converting assistant markdown through glamour before
// handing plain wrapped lines to the render pipeline.
type Transcript struct {
	mu       sync.Mutex
	lines    []transcriptLine
	current  strings.Builder
	renderer *glamour.TermRenderer
}

// NewTranscript builds an empty transcript with a best-effort glamour
// renderer; markdown falls back to raw text if construction fails.
func NewTranscript() *Transcript {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(100),
	)
	return &Transcript{renderer: renderer}
}

// AppendUser records a user-submitted prompt.
func (t *Transcript) AppendUser(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, transcriptLine{kind: lineUser, text: text})
}

// AppendAssistantDelta accumulates a streamed text fragment into the
// in-progress assistant turn.
func (t *Transcript) AppendAssistantDelta(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.WriteString(text)
}

// FinishAssistant closes out the in-progress assistant turn, rendering its
// accumulated markdown into the transcript.
func (t *Transcript) FinishAssistant() {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := t.current.String()
	t.current.Reset()
	if strings.TrimSpace(text) == "" {
		return
	}
	rendered := text
	if t.renderer != nil {
		if out, err := t.renderer.Render(text); err == nil {
			rendered = out
		}
	}
	t.lines = append(t.lines, transcriptLine{kind: lineAssistant, text: stripANSI(rendered)})
}

// AppendSystemLine records a single-line status/tool/error notice.
func (t *Transcript) AppendSystemLine(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, transcriptLine{kind: lineSystem, text: text})
}

var ansiEscapePattern = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

func stripANSI(s string) string {
	return ansiEscapePattern.ReplaceAllString(s, "")
}

// Render word-wraps every accumulated line to width, returning the last
// height rows (bottom-anchored, matching a scrolling transcript pane).
func (t *Transcript) Render(width, height int) [][]termui.Segment {
	t.mu.Lock()
	defer t.mu.Unlock()

	var rows [][]termui.Segment
	for _, line := range t.lines {
		rows = append(rows, wrapStyled(line, width)...)
	}
	if current := t.current.String(); current != "" {
		rows = append(rows, wrapStyled(transcriptLine{kind: lineAssistant, text: current}, width)...)
	}

	if len(rows) > height {
		rows = rows[len(rows)-height:]
	}
	for len(rows) < height {
		rows = append(rows, nil)
	}
	return rows
}

func wrapStyled(line transcriptLine, width int) [][]termui.Segment {
	style := styleFor(line.kind)
	prefix := prefixFor(line.kind)
	indent := strings.Repeat(" ", len(prefix))
	contentWidth := width - len(prefix)
	if contentWidth < 1 {
		contentWidth = 1
	}

	var out [][]termui.Segment
	for _, raw := range strings.Split(line.text, "\n") {
		for i, wrapped := range wrapText(raw, contentWidth) {
			lead := prefix
			if i > 0 {
				lead = indent
			}
			out = append(out, []termui.Segment{termui.StyledSegment(lead+wrapped, style)})
		}
	}
	return out
}

func prefixFor(kind lineKind) string {
	switch kind {
	case lineUser:
		return "> "
	case lineSystem:
		return "  "
	default:
		return ""
	}
}

func styleFor(kind lineKind) termui.Style {
	switch kind {
	case lineUser:
		return termui.Style{}.WithFg(termui.Named(termui.BrightMagenta))
	case lineSystem:
		return termui.Style{}.WithFg(termui.Named(termui.BrightBlack))
	default:
		return termui.Style{}
	}
}

// wrapText breaks s into lines of at most width bytes on word boundaries; a
// single word longer than width is kept whole on its own line.
func wrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	if s == "" {
		return []string{""}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(s) {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if current.Len()+1+len(word) > width {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			continue
		}
		current.WriteString(" ")
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
