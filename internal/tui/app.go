// Package tui implements the interactive front end (§12): a transcript,
// multi-line input box, and animated status bar painted through
// internal/term's own Cell/Segment/Compositor/RenderContext pipeline rather
// than a third-party terminal renderer.
package tui

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/asynkron/termbench/internal/agent"
	termui "github.com/asynkron/termbench/internal/term"
)

const (
	layerTranscript uint64 = iota + 1
	layerStatusBar
	layerInputBox
)

// App wires an agent loop to the terminal renderer: it owns raw-mode entry
// and exit, the render context and compositor, and the transcript/input/
// status-bar widgets.
type App struct {
	loop   *agent.Loop
	events <-chan agent.AgentEvent
	fd     int

	rawState *term.State
	rc       *termui.RenderContext
	comp     *termui.Compositor
	caps     termui.CapabilityProfile

	transcript *Transcript
	input      *InputBox
	status     *StatusBar

	width, height int

	mu sync.Mutex
}

// NewApp builds an App driving loop, rendering to stdout and reading raw
// keystrokes from stdin. events delivers loop's AgentEvents: the channel
// loop was constructed with or, as in cmd/termbench, a copy fanned out from
// it. The caller retains ownership of loop so it can also be driven outside
// the TUI (e.g. a non-interactive mode).
func NewApp(loop *agent.Loop, events <-chan agent.AgentEvent) (*App, error) {
	fd := int(os.Stdin.Fd())
	width, height, err := term.GetSize(fd)
	if err != nil {
		width, height = 80, 24
	}

	comp := termui.NewCompositor(width, height)

	return &App{
		loop:       loop,
		events:     events,
		fd:         fd,
		comp:       comp,
		transcript: NewTranscript(),
		input:      NewInputBox(),
		status:     NewStatusBar(),
		width:      width,
		height:     height,
	}, nil
}

// detectCapabilities starts from the unknown-terminal profile, treats a set
// TMUX variable as a tmux multiplexer, runs the live queries over
// stdin/stdout, and then applies NO_COLOR.
func detectCapabilities() termui.CapabilityProfile {
	kind := termui.TerminalUnknown
	mux := termui.MultiplexerNone
	if os.Getenv("TMUX") != "" {
		mux = termui.MultiplexerTmux
	}
	querier := termui.NewLiveQuerier(os.Stdin, os.Stdout, 50*time.Millisecond)
	caps := termui.DetectCapabilities(kind, mux, querier)
	return termui.ApplyNoColor(caps, os.Getenv("NO_COLOR"))
}

// Run enters raw mode, drives the render loop until ctx is cancelled or the
// user quits, and restores the terminal on the way out.
func (a *App) Run(ctx context.Context) error {
	rawState, err := term.MakeRaw(a.fd)
	if err != nil {
		return fmt.Errorf("tui: enter raw mode: %w", err)
	}
	a.rawState = rawState
	defer func() { _ = term.Restore(a.fd, a.rawState) }()

	a.caps = detectCapabilities()
	renderer := termui.NewRenderer(a.caps.Color, a.caps.SynchronizedOutput)
	a.rc = termui.NewRenderContext(os.Stdout, a.width, a.height, renderer, a.comp)

	fmt.Fprint(os.Stdout, "\x1b[?1049h\x1b[2J\x1b[H")
	defer fmt.Fprint(os.Stdout, "\x1b[?1049l")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte, 256)
	go a.readKeys(runCtx, keys)

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer signal.Stop(resize)

	a.redraw()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case b := <-keys:
			if a.handleKey(runCtx, b) {
				return nil
			}
			a.redraw()
		case <-resize:
			a.handleResize()
		case evt := <-a.events:
			a.handleAgentEvent(evt)
			a.redraw()
		}
	}
}

func (a *App) readKeys(ctx context.Context, out chan<- byte) {
	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return
		}
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) handleResize() {
	width, height, err := term.GetSize(a.fd)
	if err != nil {
		return
	}
	a.width, a.height = width, height
	a.rc.HandleResize(width, height)
	a.redraw()
}

// handleKey feeds a byte to the input box, submitting the buffered prompt
// on Enter (0x0D) and quitting on Ctrl+C (0x03) or Esc (0x1B) with an empty
// buffer. Returns true when the app should exit.
func (a *App) handleKey(ctx context.Context, b byte) bool {
	switch b {
	case 0x03:
		return true
	case 0x1B:
		if a.input.IsEmpty() {
			return true
		}
		a.input.Reset()
		return false
	case 0x0D, 0x0A:
		prompt := strings.TrimSpace(a.input.Value())
		if prompt == "" {
			return false
		}
		a.input.Reset()
		a.transcript.AppendUser(prompt)
		a.status.SetBusy(true)
		go func() {
			_, _ = a.loop.Run(ctx, prompt)
		}()
		return false
	case 0x7F, 0x08:
		a.input.Backspace()
		return false
	default:
		a.input.InsertByte(b)
		return false
	}
}

func (a *App) handleAgentEvent(evt agent.AgentEvent) {
	switch evt.Kind {
	case agent.EventTextDelta:
		a.transcript.AppendAssistantDelta(evt.Text)
	case agent.EventTextComplete:
		a.transcript.FinishAssistant()
	case agent.EventToolCall:
		a.transcript.AppendSystemLine(fmt.Sprintf("→ %s", evt.ToolCall.Name))
	case agent.EventToolResult:
		a.transcript.AppendSystemLine(fmt.Sprintf("← %s", summarizeToolResult(evt.ToolResult)))
	case agent.EventError:
		a.transcript.AppendSystemLine("error: " + evt.ErrorMessage)
	case agent.EventTurnEnd:
		if evt.Reason != agent.TurnEndToolUse {
			a.status.SetBusy(false)
		}
	}
}

func summarizeToolResult(r agent.ToolResultInfo) string {
	if r.IsError {
		return "error: " + r.Content
	}
	if len(r.Content) > 80 {
		return r.Content[:80] + "…"
	}
	return r.Content
}

// redraw composes the transcript, status bar, and input box into the
// compositor and flushes a frame.
func (a *App) redraw() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rc.BeginFrame()
	a.comp.Clear()

	inputHeight := a.input.Height(a.width)
	statusHeight := 1
	transcriptHeight := a.height - inputHeight - statusHeight
	if transcriptHeight < 1 {
		transcriptHeight = 1
	}

	a.comp.AddWidget(termui.NewLayer(layerTranscript, termui.NewRect(0, 0, a.width, transcriptHeight), 0,
		a.transcript.Render(a.width, transcriptHeight)))
	a.comp.AddWidget(termui.NewLayer(layerStatusBar, termui.NewRect(0, transcriptHeight, a.width, statusHeight), 0,
		a.status.Render(a.width)))
	a.comp.AddWidget(termui.NewLayer(layerInputBox, termui.NewRect(0, transcriptHeight+statusHeight, a.width, inputHeight), 0,
		a.input.Render(a.width)))

	_ = a.rc.EndFrame()
}
