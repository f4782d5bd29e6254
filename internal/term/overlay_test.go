package term

import "testing"

func TestScreenStackEmpty(t *testing.T) {
	s := NewScreenStack()
	if !s.IsEmpty() {
		t.Fatal("expected empty stack")
	}
}

func TestScreenStackPushIncrementsLen(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 5}}
	id := s.Push(config, [][]Segment{{NewSegment("hi")}})
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestScreenStackPopReturnsTopmost(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 5}}
	s.Push(config, nil)
	id2 := s.Push(config, nil)

	popped, ok := s.Pop()
	if !ok || popped != id2 {
		t.Fatalf("popped = %v, %v, want %v, true", popped, ok, id2)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestScreenStackPopEmptyReturnsFalse(t *testing.T) {
	s := NewScreenStack()
	if _, ok := s.Pop(); ok {
		t.Fatal("expected pop on empty stack to report not-ok")
	}
}

func TestScreenStackRemoveByID(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 5}}
	id1 := s.Push(config, nil)
	s.Push(config, nil)

	if !s.Remove(id1) {
		t.Fatal("expected remove to succeed")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestScreenStackRemoveNonexistentReturnsFalse(t *testing.T) {
	s := NewScreenStack()
	if s.Remove(999) {
		t.Fatal("expected remove of unknown id to fail")
	}
}

func TestScreenStackClearRemovesAll(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 5}}
	s.Push(config, nil)
	s.Push(config, nil)
	s.Clear()
	if !s.IsEmpty() {
		t.Fatal("expected stack empty after clear")
	}
}

func TestResolvePositionCenter(t *testing.T) {
	pos := ResolvePosition(CenterOverlay(), Size{Width: 20, Height: 10}, Size{Width: 80, Height: 24})
	if pos.X != 30 || pos.Y != 7 {
		t.Fatalf("pos = %+v, want {30 7}", pos)
	}
}

func TestResolvePositionAt(t *testing.T) {
	pos := ResolvePosition(AtOverlay(Position{X: 5, Y: 3}), Size{Width: 20, Height: 10}, Size{Width: 80, Height: 24})
	if pos.X != 5 || pos.Y != 3 {
		t.Fatalf("pos = %+v, want {5 3}", pos)
	}
}

func TestResolvePositionAnchoredBelow(t *testing.T) {
	anchor := NewRect(30, 5, 10, 2)
	pos := ResolvePosition(AnchoredOverlay(anchor, PlacementBelow), Size{Width: 20, Height: 3}, Size{Width: 80, Height: 24})
	if pos.X != 25 {
		t.Fatalf("x = %d, want 25", pos.X)
	}
	if pos.Y != 7 {
		t.Fatalf("y = %d, want 7", pos.Y)
	}
}

func TestResolvePositionAnchoredAbove(t *testing.T) {
	anchor := NewRect(30, 10, 10, 2)
	pos := ResolvePosition(AnchoredOverlay(anchor, PlacementAbove), Size{Width: 20, Height: 3}, Size{Width: 80, Height: 24})
	if pos.X != 25 {
		t.Fatalf("x = %d, want 25", pos.X)
	}
	if pos.Y != 7 {
		t.Fatalf("y = %d, want 7", pos.Y)
	}
}

func TestResolvePositionAnchoredRight(t *testing.T) {
	anchor := NewRect(10, 10, 5, 4)
	pos := ResolvePosition(AnchoredOverlay(anchor, PlacementRight), Size{Width: 8, Height: 3}, Size{Width: 80, Height: 24})
	if pos.X != 15 {
		t.Fatalf("x = %d, want 15", pos.X)
	}
	if pos.Y != 11 {
		t.Fatalf("y = %d, want 11", pos.Y)
	}
}

func TestDimLayerCoversScreen(t *testing.T) {
	layer := createDimLayer(Size{Width: 80, Height: 24}, 999)
	if layer.ZIndex != 999 {
		t.Fatalf("z = %d, want 999", layer.ZIndex)
	}
	if layer.Region.Width != 80 || layer.Region.Height != 24 {
		t.Fatalf("region = %+v", layer.Region)
	}
	if len(layer.Lines) != 24 {
		t.Fatalf("lines = %d, want 24", len(layer.Lines))
	}
}

func TestDimLayerStyleIsDim(t *testing.T) {
	layer := createDimLayer(Size{Width: 10, Height: 2}, 500)
	if len(layer.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(layer.Lines))
	}
	if !layer.Lines[0][0].Style.Dim {
		t.Fatal("expected dim style on dim layer segment")
	}
}

func TestApplyToCompositorAddsLayers(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 3}}
	s.Push(config, [][]Segment{{NewSegment("test")}})

	compositor := NewCompositor(80, 24)
	s.ApplyToCompositor(compositor, Size{Width: 80, Height: 24})

	buf := NewScreenBuffer(80, 24)
	compositor.Compose(buf)

	if cell := buf.At(35, 10); cell.Grapheme != "t" {
		t.Fatalf("grapheme = %q, want t", cell.Grapheme)
	}
}

func TestApplyWithDimBackground(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: AtOverlay(Position{X: 5, Y: 5}), Size: Size{Width: 10, Height: 3}, DimBackground: true}
	s.Push(config, [][]Segment{{NewSegment("modal")}})

	compositor := NewCompositor(80, 24)
	s.ApplyToCompositor(compositor, Size{Width: 80, Height: 24})

	buf := NewScreenBuffer(80, 24)
	compositor.Compose(buf)

	if cell := buf.At(0, 0); !cell.Style.Dim {
		t.Fatal("expected dim style at corner")
	}
	if cell := buf.At(5, 5); cell.Grapheme != "m" {
		t.Fatalf("grapheme = %q, want m", cell.Grapheme)
	}
}

func TestRemoveOverlayClearsDim(t *testing.T) {
	s := NewScreenStack()
	config := OverlayConfig{Position: CenterOverlay(), Size: Size{Width: 10, Height: 3}, DimBackground: true}
	id := s.Push(config, [][]Segment{{NewSegment("x")}})

	if !s.Remove(id) {
		t.Fatal("expected remove to succeed")
	}
	if !s.IsEmpty() {
		t.Fatal("expected stack empty after remove")
	}

	compositor := NewCompositor(80, 24)
	s.ApplyToCompositor(compositor, Size{Width: 80, Height: 24})

	buf := NewScreenBuffer(80, 24)
	compositor.Compose(buf)

	if cell := buf.At(0, 0); cell.Style.Dim {
		t.Fatal("expected no dim style after overlay removed")
	}
}

func TestTwoOverlaysStacked(t *testing.T) {
	s := NewScreenStack()
	config1 := OverlayConfig{Position: AtOverlay(Position{X: 10, Y: 5}), Size: Size{Width: 10, Height: 3}}
	s.Push(config1, [][]Segment{{NewSegment("first")}})

	config2 := OverlayConfig{Position: AtOverlay(Position{X: 10, Y: 5}), Size: Size{Width: 10, Height: 3}}
	s.Push(config2, [][]Segment{{NewSegment("second")}})

	compositor := NewCompositor(80, 24)
	s.ApplyToCompositor(compositor, Size{Width: 80, Height: 24})

	buf := NewScreenBuffer(80, 24)
	compositor.Compose(buf)

	if cell := buf.At(10, 5); cell.Grapheme != "s" {
		t.Fatalf("grapheme = %q, want s (topmost overlay)", cell.Grapheme)
	}
}
