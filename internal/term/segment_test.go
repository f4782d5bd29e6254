package term

import "testing"

func TestSegmentASCIIWidth(t *testing.T) {
	if w := NewSegment("hello").Width(); w != 5 {
		t.Fatalf("width = %d, want 5", w)
	}
}

func TestSegmentEmptyWidth(t *testing.T) {
	if w := NewSegment("").Width(); w != 0 {
		t.Fatalf("width = %d, want 0", w)
	}
}

func TestSegmentControlWidthIsZero(t *testing.T) {
	if w := ControlSegment("\x1b[1m").Width(); w != 0 {
		t.Fatalf("width = %d, want 0", w)
	}
}

func TestSegmentCJKWidth(t *testing.T) {
	if w := NewSegment("世界").Width(); w != 4 {
		t.Fatalf("width = %d, want 4", w)
	}
}

func TestSegmentSplitASCII(t *testing.T) {
	l, r := NewSegment("hello").SplitAt(3)
	if l.Text != "hel" || r.Text != "lo" {
		t.Fatalf("got (%q, %q)", l.Text, r.Text)
	}
}

func TestSegmentSplitAtZero(t *testing.T) {
	l, r := NewSegment("hello").SplitAt(0)
	if l.Text != "" || r.Text != "hello" {
		t.Fatalf("got (%q, %q)", l.Text, r.Text)
	}
}

func TestSegmentSplitAtEnd(t *testing.T) {
	l, r := NewSegment("hello").SplitAt(5)
	if l.Text != "hello" || r.Text != "" {
		t.Fatalf("got (%q, %q)", l.Text, r.Text)
	}
}

func TestSegmentSplitBeyondEnd(t *testing.T) {
	l, r := NewSegment("hi").SplitAt(100)
	if l.Text != "hi" || r.Text != "" {
		t.Fatalf("got (%q, %q)", l.Text, r.Text)
	}
}

func TestSegmentIsEmpty(t *testing.T) {
	if !NewSegment("").IsEmpty() {
		t.Fatal("expected empty")
	}
	if NewSegment("x").IsEmpty() {
		t.Fatal("expected non-empty")
	}
}

func TestSegmentStyledPreservesStyleOnSplit(t *testing.T) {
	s := StyledSegment("hello", Style{Bold: true})
	l, r := s.SplitAt(2)
	if !l.Style.Bold || !r.Style.Bold {
		t.Fatal("expected bold preserved on both sides")
	}
}

func TestSegmentEmojiWidthIsTwo(t *testing.T) {
	if w := NewSegment("\U0001F600").Width(); w != 2 {
		t.Fatalf("width = %d, want 2", w)
	}
}

func TestSegmentEmojiAtSplitBoundary(t *testing.T) {
	s := NewSegment("A\U0001F600B")
	if w := s.Width(); w != 4 {
		t.Fatalf("width = %d, want 4", w)
	}

	l, r := s.SplitAt(1)
	if l.Text != "A" || r.Text != "\U0001F600B" {
		t.Fatalf("split(1) got (%q, %q)", l.Text, r.Text)
	}

	l2, r2 := s.SplitAt(2)
	if l2.Text != "A " || l2.Width() != 2 {
		t.Fatalf("split(2) left = %q width %d", l2.Text, l2.Width())
	}
	if r2.Text != " B" {
		t.Fatalf("split(2) right = %q", r2.Text)
	}
}

func TestSegmentCombiningDiacriticsWidth(t *testing.T) {
	s := NewSegment("é")
	if w := s.Width(); w != 1 {
		t.Fatalf("width = %d, want 1", w)
	}
	if c := s.CharCount(); c != 1 {
		t.Fatalf("char count = %d, want 1", c)
	}
}

func TestSegmentMixedASCIIEmojiCJK(t *testing.T) {
	s := NewSegment("Hi\U0001F600世")
	if w := s.Width(); w != 6 {
		t.Fatalf("width = %d, want 6", w)
	}
	if c := s.CharCount(); c != 4 {
		t.Fatalf("char count = %d, want 4", c)
	}
}

func TestSegmentGraphemeWidthsReturnsCorrectValues(t *testing.T) {
	s := NewSegment("A世B")
	widths := s.GraphemeWidths()
	if len(widths) != 3 {
		t.Fatalf("len = %d, want 3", len(widths))
	}
	if widths[0].text != "A" || widths[0].width != 1 {
		t.Fatalf("widths[0] = %+v", widths[0])
	}
	if widths[1].text != "世" || widths[1].width != 2 {
		t.Fatalf("widths[1] = %+v", widths[1])
	}
	if widths[2].text != "B" || widths[2].width != 1 {
		t.Fatalf("widths[2] = %+v", widths[2])
	}
}

func TestSegmentCharCountReturnsGraphemeClusterCount(t *testing.T) {
	if c := NewSegment("Hello").CharCount(); c != 5 {
		t.Fatalf("char count = %d, want 5", c)
	}
	if c := NewSegment("").CharCount(); c != 0 {
		t.Fatalf("char count = %d, want 0", c)
	}
	if c := NewSegment("世界").CharCount(); c != 2 {
		t.Fatalf("char count = %d, want 2", c)
	}
	if c := ControlSegment("ESC").CharCount(); c != 0 {
		t.Fatalf("control char count = %d, want 0", c)
	}
}

func TestSegmentSplitPreservesCombiningMarks(t *testing.T) {
	s := NewSegment("aéb")
	if w := s.Width(); w != 3 {
		t.Fatalf("width = %d, want 3", w)
	}
	if c := s.CharCount(); c != 3 {
		t.Fatalf("char count = %d, want 3", c)
	}

	l, r := s.SplitAt(1)
	if l.Text != "a" || r.Text != "éb" {
		t.Fatalf("split(1) got (%q, %q)", l.Text, r.Text)
	}

	l2, r2 := s.SplitAt(2)
	if l2.Text != "aé" || r2.Text != "b" {
		t.Fatalf("split(2) got (%q, %q)", l2.Text, r2.Text)
	}
}

func TestSegmentEmptySegmentGraphemeOperations(t *testing.T) {
	s := NewSegment("")
	if len(s.GraphemeWidths()) != 0 {
		t.Fatal("expected no graphemes")
	}
	if s.CharCount() != 0 {
		t.Fatal("expected zero char count")
	}
	l, r := s.SplitAt(0)
	if l.Text != "" || r.Text != "" {
		t.Fatalf("got (%q, %q)", l.Text, r.Text)
	}
}

func TestSegmentGraphemeWidthsEmptyForControl(t *testing.T) {
	s := ControlSegment("\x1b[1m")
	if len(s.GraphemeWidths()) != 0 {
		t.Fatal("expected empty grapheme widths for control segment")
	}
}

func TestSegmentTruncateToWidthASCIIExactFit(t *testing.T) {
	tr := NewSegment("hello").TruncateToWidth(5)
	if tr.Text != "hello" || tr.Width() != 5 {
		t.Fatalf("got %q width %d", tr.Text, tr.Width())
	}
}

func TestSegmentTruncateToWidthCutsBeforeWideCharAtBoundary(t *testing.T) {
	s := NewSegment("A世B")
	if s.Width() != 4 {
		t.Fatalf("width = %d, want 4", s.Width())
	}
	tr := s.TruncateToWidth(2)
	if tr.Width() != 2 || tr.Text != "A " {
		t.Fatalf("got %q width %d", tr.Text, tr.Width())
	}
}

func TestSegmentTruncateToWidthZeroGivesEmpty(t *testing.T) {
	tr := NewSegment("hello").TruncateToWidth(0)
	if tr.Text != "" || tr.Width() != 0 {
		t.Fatalf("got %q width %d", tr.Text, tr.Width())
	}
}

func TestSegmentTruncateToWidthBeyondLengthUnchanged(t *testing.T) {
	tr := NewSegment("hi").TruncateToWidth(100)
	if tr.Text != "hi" || tr.Width() != 2 {
		t.Fatalf("got %q width %d", tr.Text, tr.Width())
	}
}

func TestSegmentPadToWidthAddsTrailingSpaces(t *testing.T) {
	p := NewSegment("AB").PadToWidth(5)
	if p.Text != "AB   " || p.Width() != 5 {
		t.Fatalf("got %q width %d", p.Text, p.Width())
	}
}

func TestSegmentPadToWidthAlreadyAtTargetUnchanged(t *testing.T) {
	p := NewSegment("hello").PadToWidth(5)
	if p.Text != "hello" {
		t.Fatalf("got %q", p.Text)
	}
}

func TestSegmentPadToWidthAlreadyWiderUnchanged(t *testing.T) {
	p := NewSegment("hello world").PadToWidth(5)
	if p.Text != "hello world" {
		t.Fatalf("got %q", p.Text)
	}
}

func TestSegmentStylePreservedThroughTruncationAndPadding(t *testing.T) {
	style := Style{Bold: true}
	s := StyledSegment("hello world", style)

	tr := s.TruncateToWidth(5)
	if !tr.Style.Equal(style) {
		t.Fatal("expected bold preserved through truncation")
	}

	p := s.PadToWidth(20)
	if !p.Style.Equal(style) {
		t.Fatal("expected bold preserved through padding")
	}
}

func TestSegmentZWJFamilyEmojiWidth(t *testing.T) {
	s := NewSegment("\U0001F468‍\U0001F469‍\U0001F467")
	if w := s.Width(); w != 2 {
		t.Fatalf("width = %d, want 2", w)
	}
}

func TestSegmentZWJFamilyEmojiGraphemeWidths(t *testing.T) {
	s := NewSegment("\U0001F468‍\U0001F469‍\U0001F467")
	widths := s.GraphemeWidths()
	if len(widths) != 1 {
		t.Fatalf("len = %d, want 1", len(widths))
	}
	if widths[0].width != 2 {
		t.Fatalf("width = %d, want 2", widths[0].width)
	}
}

func TestSegmentFlagEmojiWidth(t *testing.T) {
	s := NewSegment("\U0001F1FA\U0001F1F8")
	if w := s.Width(); w != 2 {
		t.Fatalf("width = %d, want 2", w)
	}
}

func TestSegmentSkinToneEmojiWidth(t *testing.T) {
	s := NewSegment("\U0001F44D\U0001F3FD")
	if w := s.Width(); w != 2 {
		t.Fatalf("width = %d, want 2", w)
	}
}

func TestSegmentSplitAtZWJEmojiBoundary(t *testing.T) {
	s := NewSegment("A\U0001F468‍\U0001F469‍\U0001F467B")
	if w := s.Width(); w != 4 {
		t.Fatalf("width = %d, want 4", w)
	}

	l, r := s.SplitAt(1)
	if l.Text != "A" || l.Width() != 1 {
		t.Fatalf("left = %q width %d", l.Text, l.Width())
	}
	if r.Width() != 3 {
		t.Fatalf("right width = %d, want 3", r.Width())
	}
}

func TestSegmentCharCountWithComplexEmoji(t *testing.T) {
	s := NewSegment("\U0001F468‍\U0001F469‍\U0001F467")
	if c := s.CharCount(); c != 1 {
		t.Fatalf("char count = %d, want 1", c)
	}
}

func TestSegmentMixedASCIIZWJEmojiCJK(t *testing.T) {
	s := NewSegment("Hi\U0001F468‍\U0001F469‍\U0001F467世!")
	if w := s.Width(); w != 7 {
		t.Fatalf("width = %d, want 7", w)
	}
	if c := s.CharCount(); c != 5 {
		t.Fatalf("char count = %d, want 5", c)
	}
}

func TestSegmentKeycapSequenceHandling(t *testing.T) {
	s := NewSegment("#️⃣")
	if c := s.CharCount(); c != 1 {
		t.Fatalf("char count = %d, want 1", c)
	}
	if w := s.Width(); w < 1 || w > 2 {
		t.Fatalf("width = %d, want 1 or 2", w)
	}
}
