package term

import (
	"strings"
	"testing"
)

func TestRenderContextEndFrameWritesChanges(t *testing.T) {
	var out strings.Builder
	rc := NewRenderContext(&out, 10, 2, NewRenderer(TrueColor, false), nil)

	rc.BeginFrame()
	rc.Current().Set(0, 0, Cell{Grapheme: "A", Width: 1})
	if err := rc.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if !strings.Contains(out.String(), "A") {
		t.Fatalf("expected rendered output to contain A, got %q", out.String())
	}
}

func TestRenderContextSecondFrameOnlyDiffs(t *testing.T) {
	var out strings.Builder
	rc := NewRenderContext(&out, 10, 2, NewRenderer(TrueColor, false), nil)

	rc.BeginFrame()
	rc.Current().Set(0, 0, Cell{Grapheme: "A", Width: 1})
	_ = rc.EndFrame()
	out.Reset()

	rc.BeginFrame()
	rc.Current().Set(0, 0, Cell{Grapheme: "A", Width: 1})
	if err := rc.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if out.String() != "" {
		t.Fatalf("expected no output for unchanged frame, got %q", out.String())
	}
}

func TestRenderContextHandleResizeForcesRedraw(t *testing.T) {
	var out strings.Builder
	rc := NewRenderContext(&out, 10, 2, NewRenderer(TrueColor, false), nil)

	rc.BeginFrame()
	rc.Current().Set(0, 0, Cell{Grapheme: "A", Width: 1})
	_ = rc.EndFrame()

	rc.HandleResize(20, 4)
	w, h := rc.Size()
	if w != 20 || h != 4 {
		t.Fatalf("size = %d,%d want 20,4", w, h)
	}

	out.Reset()
	rc.BeginFrame()
	rc.Current().Set(0, 0, Cell{Grapheme: "A", Width: 1})
	if err := rc.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if !strings.Contains(out.String(), "A") {
		t.Fatalf("expected redraw after resize, got %q", out.String())
	}
}

func TestRenderContextComposesCompositorLayers(t *testing.T) {
	var out strings.Builder
	compositor := NewCompositor(10, 2)
	compositor.AddWidget(NewLayer(1, NewRect(0, 0, 1, 1), 0, [][]Segment{{NewSegment("Z")}}))

	rc := NewRenderContext(&out, 10, 2, NewRenderer(TrueColor, false), compositor)
	rc.BeginFrame()
	if err := rc.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if !strings.Contains(out.String(), "Z") {
		t.Fatalf("expected composited layer in output, got %q", out.String())
	}
}
