package term

import "io"

// RenderContext drives the per-frame lifecycle over a double-buffered
// ScreenBuffer pair, an optional Compositor, and a Renderer (§4.6).
type RenderContext struct {
	out        io.Writer
	renderer   *Renderer
	compositor *Compositor
	current    *ScreenBuffer
	previous   *ScreenBuffer
	width      int
	height     int
}

// NewRenderContext constructs a context writing rendered frames to out,
// sized to width x height. compositor may be nil, in which case the caller
// is responsible for drawing directly into Current() each frame.
func NewRenderContext(out io.Writer, width, height int, renderer *Renderer, compositor *Compositor) *RenderContext {
	return &RenderContext{
		out:        out,
		renderer:   renderer,
		compositor: compositor,
		current:    NewScreenBuffer(width, height),
		previous:   NewScreenBuffer(width, height),
		width:      width,
		height:     height,
	}
}

// Current returns the buffer the application should draw into this frame.
func (rc *RenderContext) Current() *ScreenBuffer { return rc.current }

// BeginFrame swaps current and previous, then clears the new current buffer
// so the application starts each frame from blank cells.
func (rc *RenderContext) BeginFrame() {
	rc.current, rc.previous = rc.previous, rc.current
	rc.current.Clear()
}

// EndFrame composes the compositor's layers (if any) into current, diffs
// against previous, renders the minimal escape sequence output, and writes
// it to the underlying stream.
func (rc *RenderContext) EndFrame() error {
	if rc.compositor != nil {
		rc.compositor.Compose(rc.current)
	}
	changes := rc.current.Diff(rc.previous)
	output := rc.renderer.Render(changes)
	if output == "" {
		return nil
	}
	_, err := io.WriteString(rc.out, output)
	return err
}

// HandleResize reallocates both buffers fresh at the new dimensions rather
// than preserving content via ScreenBuffer.Resize: a resized previous buffer
// that kept its old overlapping cells would diff as unchanged wherever the
// next frame happens to redraw the same content, silently skipping cells a
// real terminal at the new size has never actually painted. Starting both
// buffers blank guarantees the next frame's diff covers everything it
// draws.
func (rc *RenderContext) HandleResize(width, height int) {
	rc.width, rc.height = width, height
	rc.current = NewScreenBuffer(width, height)
	rc.previous = NewScreenBuffer(width, height)
	if rc.compositor != nil {
		rc.compositor.Resize(width, height)
	}
}

// Size returns the context's current dimensions.
func (rc *RenderContext) Size() (int, int) { return rc.width, rc.height }
