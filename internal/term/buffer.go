package term

// CellChange is one row-major ordered diff record: a cell at (X, Y) differs
// between two buffers.
type CellChange struct {
	X, Y int
	Cell Cell
}

// ScreenBuffer is a (W, H) grid of cells in row-major order — the canonical
// in-memory image of a frame. It never emits escape sequences.
type ScreenBuffer struct {
	w, h  int
	cells []Cell
}

// NewScreenBuffer allocates a W×H buffer filled with BlankCell.
func NewScreenBuffer(w, h int) *ScreenBuffer {
	b := &ScreenBuffer{w: w, h: h, cells: make([]Cell, w*h)}
	b.Clear()
	return b
}

// Size returns the buffer's (width, height).
func (b *ScreenBuffer) Size() (int, int) { return b.w, b.h }

// Clear resets every cell to BlankCell.
func (b *ScreenBuffer) Clear() {
	for i := range b.cells {
		b.cells[i] = BlankCell
	}
}

func (b *ScreenBuffer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.w && y < b.h
}

// Set writes a cell at (x, y). Out-of-range writes are no-ops.
func (b *ScreenBuffer) Set(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.w+x] = c
}

// At reads the cell at (x, y). Out-of-range reads return BlankCell.
func (b *ScreenBuffer) At(x, y int) Cell {
	if !b.inBounds(x, y) {
		return BlankCell
	}
	return b.cells[y*b.w+x]
}

// Resize changes the buffer's dimensions, preserving the upper-left overlap
// and filling any new cells with BlankCell.
func (b *ScreenBuffer) Resize(w, h int) {
	next := make([]Cell, w*h)
	for i := range next {
		next[i] = BlankCell
	}
	minW, minH := b.w, b.h
	if w < minW {
		minW = w
	}
	if h < minH {
		minH = h
	}
	for y := 0; y < minH; y++ {
		for x := 0; x < minW; x++ {
			next[y*w+x] = b.cells[y*b.w+x]
		}
	}
	b.w, b.h, b.cells = w, h, next
}

// Diff produces the ordered (row-major) sequence of cells that differ
// between prev and b. A changed width-2 cell additionally emits the
// continuation cell at the column to its right, so a renderer can
// invalidate a stale right half left over from the previous frame. prev and
// b must share dimensions; with mismatched sizes only the overlapping
// region is compared, cell by cell, and cells outside it are not reported
// (the caller is expected to Resize before diffing after a resize).
func (b *ScreenBuffer) Diff(prev *ScreenBuffer) []CellChange {
	var changes []CellChange
	w, h := b.w, b.h
	if prev.w != w || prev.h != h {
		w, h = min(w, prev.w), min(h, prev.h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cur := b.At(x, y)
			old := prev.At(x, y)
			if cur == old {
				continue
			}
			changes = append(changes, CellChange{X: x, Y: y, Cell: cur})
			if cur.Width == 2 && x+1 < b.w {
				changes = append(changes, CellChange{X: x + 1, Y: y, Cell: ContinuationCell})
			}
		}
	}
	return changes
}
