package term

import "sort"

// Layer is a rectangular stack of pre-rendered lines with a z-index, the
// unit the Compositor composes onto a ScreenBuffer (§4.5).
type Layer struct {
	ID      uint64
	Region  Rect
	ZIndex  int
	Lines   [][]Segment
}

// NewLayer constructs a layer. Lines are indexed row-major starting at
// Region.Position; a line shorter than Region.Width leaves the remainder
// of that row untouched by this layer.
func NewLayer(id uint64, region Rect, zIndex int, lines [][]Segment) Layer {
	return Layer{ID: id, Region: region, ZIndex: zIndex, Lines: lines}
}

// Compositor holds a set of layers and resolves them onto a ScreenBuffer in
// ascending z-index order, so higher z-index layers paint over lower ones.
type Compositor struct {
	width, height int
	layers        []Layer
}

// NewCompositor creates an empty compositor sized to width x height.
func NewCompositor(width, height int) *Compositor {
	return &Compositor{width: width, height: height}
}

// AddWidget appends a layer to the compositor's stack.
func (c *Compositor) AddWidget(l Layer) {
	c.layers = append(c.layers, l)
}

// Remove deletes all layers with the given ID, reporting whether any were
// found.
func (c *Compositor) Remove(id uint64) bool {
	kept := c.layers[:0]
	removed := false
	for _, l := range c.layers {
		if l.ID == id {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	c.layers = kept
	return removed
}

// Clear removes every layer.
func (c *Compositor) Clear() {
	c.layers = nil
}

// Resize updates the compositor's screen dimensions. Existing layers are
// left as-is; out-of-bounds cells are simply skipped during Compose.
func (c *Compositor) Resize(width, height int) {
	c.width, c.height = width, height
}

// Compose paints every layer onto buf in ascending z-index order using a
// stable sort so same-z layers keep insertion order (later-added wins ties,
// matching last-write-wins semantics for overlapping regions).
func (c *Compositor) Compose(buf *ScreenBuffer) {
	ordered := make([]Layer, len(c.layers))
	copy(ordered, c.layers)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })

	for _, layer := range ordered {
		for row, segments := range layer.Lines {
			y := layer.Region.Y + row
			if y < 0 || y >= c.height {
				continue
			}
			x := layer.Region.X
			for _, seg := range segments {
				for _, gw := range seg.GraphemeWidths() {
					if x >= 0 && x < c.width {
						width := gw.width
						if width <= 0 {
							width = 1
						}
						buf.Set(x, y, Cell{Grapheme: gw.text, Style: seg.Style, Width: width})
						for cx := x + 1; cx < x+width && cx < c.width; cx++ {
							buf.Set(cx, y, ContinuationCell)
						}
					}
					x += gw.width
				}
			}
		}
	}
}
