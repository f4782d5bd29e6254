package term

// Cell is the content of a single terminal column: a grapheme cluster, a
// Style, and a display width in {0, 1, 2}. A continuation cell has Width 0
// and an empty Grapheme; it occupies the column immediately right of a
// width-2 cell and exists only to reserve that column in the buffer.
type Cell struct {
	Grapheme string
	Style    Style
	Width    int
}

// BlankCell is (" ", default style, width 1).
var BlankCell = Cell{Grapheme: " ", Width: 1}

// ContinuationCell is the zero-width sentinel placed right of a width-2 cell.
var ContinuationCell = Cell{Grapheme: "", Width: 0}

// IsContinuation reports whether c is a continuation sentinel.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Grapheme == ""
}
