package term

// OverlayID identifies a pushed overlay for later removal.
type OverlayID uint64

// Placement is an overlay's position relative to an anchor rectangle.
type Placement int

const (
	PlacementAbove Placement = iota
	PlacementBelow
	PlacementLeft
	PlacementRight
)

// OverlayPositionKind distinguishes the positioning strategies below.
type OverlayPositionKind int

const (
	PositionCenter OverlayPositionKind = iota
	PositionAt
	PositionAnchored
)

// OverlayPosition is a sum over the three ways to place an overlay: centered
// on screen, at a fixed coordinate, or anchored relative to a rectangle with
// a Placement.
type OverlayPosition struct {
	Kind      OverlayPositionKind
	At        Position
	Anchor    Rect
	Placement Placement
}

// CenterOverlay positions an overlay at screen center.
func CenterOverlay() OverlayPosition { return OverlayPosition{Kind: PositionCenter} }

// AtOverlay positions an overlay at a fixed coordinate.
func AtOverlay(pos Position) OverlayPosition { return OverlayPosition{Kind: PositionAt, At: pos} }

// AnchoredOverlay positions an overlay relative to an anchor rectangle.
func AnchoredOverlay(anchor Rect, placement Placement) OverlayPosition {
	return OverlayPosition{Kind: PositionAnchored, Anchor: anchor, Placement: placement}
}

// OverlayConfig configures a pushed overlay: its placement strategy, size,
// z-index offset from the stack's base, and whether a dim layer should be
// inserted behind it.
type OverlayConfig struct {
	Position       OverlayPosition
	Size           Size
	ZOffset        int
	DimBackground  bool
}

type overlayEntry struct {
	id     OverlayID
	config OverlayConfig
	lines  [][]Segment
}

// ScreenStack manages a stack of overlay layers (modals, toasts, tooltips)
// with automatic z-indexing 10 apart, position resolution, and optional
// background dimming (§4.5).
type ScreenStack struct {
	overlays []overlayEntry
	nextID   OverlayID
	baseZ    int
}

// NewScreenStack creates an empty stack with base z-index 1000.
func NewScreenStack() *ScreenStack {
	return &ScreenStack{nextID: 1, baseZ: 1000}
}

// Push adds an overlay, returning its ID for later removal.
func (s *ScreenStack) Push(config OverlayConfig, lines [][]Segment) OverlayID {
	id := s.nextID
	s.nextID++
	s.overlays = append(s.overlays, overlayEntry{id: id, config: config, lines: lines})
	return id
}

// Pop removes the topmost overlay, reporting its ID.
func (s *ScreenStack) Pop() (OverlayID, bool) {
	if len(s.overlays) == 0 {
		return 0, false
	}
	last := s.overlays[len(s.overlays)-1]
	s.overlays = s.overlays[:len(s.overlays)-1]
	return last.id, true
}

// Remove deletes the overlay with the given ID, reporting whether it was
// found.
func (s *ScreenStack) Remove(id OverlayID) bool {
	for i, e := range s.overlays {
		if e.id == id {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every overlay.
func (s *ScreenStack) Clear() { s.overlays = nil }

// Len reports the number of overlays on the stack.
func (s *ScreenStack) Len() int { return len(s.overlays) }

// IsEmpty reports whether the stack has no overlays.
func (s *ScreenStack) IsEmpty() bool { return len(s.overlays) == 0 }

// ResolvePosition resolves an overlay position to absolute screen
// coordinates given the overlay's own size and the screen size.
func ResolvePosition(position OverlayPosition, size, screen Size) Position {
	switch position.Kind {
	case PositionAt:
		return position.At
	case PositionAnchored:
		anchor := position.Anchor
		switch position.Placement {
		case PlacementAbove:
			x := satSub(satAdd(anchor.X, anchor.Width/2), size.Width/2)
			y := satSub(anchor.Y, size.Height)
			return Position{X: x, Y: y}
		case PlacementBelow:
			x := satSub(satAdd(anchor.X, anchor.Width/2), size.Width/2)
			y := satAdd(anchor.Y, anchor.Height)
			return Position{X: x, Y: y}
		case PlacementLeft:
			x := satSub(anchor.X, size.Width)
			y := satSub(satAdd(anchor.Y, anchor.Height/2), size.Height/2)
			return Position{X: x, Y: y}
		case PlacementRight:
			x := satAdd(anchor.X, anchor.Width)
			y := satSub(satAdd(anchor.Y, anchor.Height/2), size.Height/2)
			return Position{X: x, Y: y}
		default:
			return Position{}
		}
	default: // PositionCenter
		x := satSub(screen.Width, size.Width) / 2
		y := satSub(screen.Height, size.Height) / 2
		return Position{X: x, Y: y}
	}
}

// ApplyToCompositor adds every overlay (and, where configured, its dim
// layer) to compositor as Layers at their resolved screen position, in
// insertion order with z-indices spaced 10 apart from the stack's base.
func (s *ScreenStack) ApplyToCompositor(compositor *Compositor, screen Size) {
	for i, entry := range s.overlays {
		z := s.baseZ + i*10 + entry.config.ZOffset

		if entry.config.DimBackground {
			compositor.AddWidget(createDimLayer(screen, z-1))
		}

		pos := ResolvePosition(entry.config.Position, entry.config.Size, screen)
		region := NewRect(pos.X, pos.Y, entry.config.Size.Width, entry.config.Size.Height)
		compositor.AddWidget(NewLayer(uint64(entry.id), region, z, entry.lines))
	}
}

// createDimLayer builds a full-screen dim layer for background dimming
// behind a modal overlay.
func createDimLayer(screen Size, zIndex int) Layer {
	dimStyle := Style{Dim: true}
	lines := make([][]Segment, screen.Height)
	for i := range lines {
		lines[i] = []Segment{StyledSegment(blankRow(screen.Width), dimStyle)}
	}
	return NewLayer(0, NewRect(0, 0, screen.Width, screen.Height), zIndex, lines)
}

func blankRow(width int) string {
	if width <= 0 {
		return ""
	}
	row := make([]byte, width)
	for i := range row {
		row[i] = ' '
	}
	return string(row)
}
