package tui

import (
	"strings"
	"testing"
)

func TestTranscriptAppendUserAppearsInRender(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("hello there")

	rows := tr.Render(40, 10)
	found := false
	for _, row := range rows {
		for _, seg := range row {
			if strings.Contains(seg.Text, "hello there") {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected user line in rendered rows")
	}
}

func TestTranscriptFinishAssistantClearsCurrent(t *testing.T) {
	tr := NewTranscript()
	tr.AppendAssistantDelta("partial")
	tr.FinishAssistant()
	if tr.current.Len() != 0 {
		t.Fatal("expected current buffer reset after FinishAssistant")
	}
}

func TestTranscriptRenderPadsToHeight(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("one line")
	rows := tr.Render(40, 5)
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
}

func TestTranscriptRenderTruncatesToHeight(t *testing.T) {
	tr := NewTranscript()
	for i := 0; i < 20; i++ {
		tr.AppendSystemLine("line")
	}
	rows := tr.Render(40, 5)
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
}

func TestWrapTextBreaksOnWordBoundaries(t *testing.T) {
	lines := wrapText("the quick brown fox jumps", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Fatalf("line %q exceeds width 10", l)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps" {
		t.Fatalf("lines = %v lost content", lines)
	}
}
