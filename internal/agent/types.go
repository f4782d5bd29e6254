// Package agent implements the multi-turn dialog loop (C8): per-turn
// accumulation of streamed content, sequential tool dispatch, and the UI
// event stream a front end consumes to render progress.
package agent

import "github.com/asynkron/termbench/internal/provider"

// AgentEventKind discriminates the AgentEvent sum type.
type AgentEventKind string

const (
	EventTurnStart    AgentEventKind = "turn_start"
	EventTurnEnd      AgentEventKind = "turn_end"
	EventTextDelta    AgentEventKind = "text_delta"
	EventTextComplete AgentEventKind = "text_complete"
	EventThinkingDelta AgentEventKind = "thinking_delta"
	EventToolCall     AgentEventKind = "tool_call"
	EventToolResult   AgentEventKind = "tool_result"
	EventError        AgentEventKind = "error"
)

// TurnEndReason explains why a turn stopped accumulating.
type TurnEndReason string

const (
	TurnEndToolUse   TurnEndReason = "tool_use"
	TurnEndMaxTokens TurnEndReason = "max_tokens"
	TurnEndEndTurn   TurnEndReason = "end_turn"
	TurnEndMaxTurns  TurnEndReason = "max_turns"
	TurnEndError     TurnEndReason = "error"
)

// ToolCallInfo accumulates one tool invocation across ContentBlockStart and
// any InputJsonDelta events sharing its content-block index.
type ToolCallInfo struct {
	ID         string
	Name       string
	InputJSON  string
	ParsedArgs []byte
}

// ToolResultInfo is the outcome of executing one ToolCallInfo.
type ToolResultInfo struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// AgentEvent is one item in the stream a front end consumes while a turn
// runs (§4.8, §12's interactive TUI front end).
type AgentEvent struct {
	Kind AgentEventKind

	// TurnEnd
	Reason TurnEndReason

	// TextDelta / TextComplete / ThinkingDelta
	Text string

	// ToolCall
	ToolCall ToolCallInfo

	// ToolResult
	ToolResult ToolResultInfo

	// Error
	ErrorMessage string
}

// Config bounds a Run invocation.
type Config struct {
	Model         string
	System        string
	MaxTokens     int
	MaxTurns      int
	Temperature   float64
	ThinkingBudget int
}

// DefaultConfig returns sane defaults for interactive use.
func DefaultConfig(model string) Config {
	return Config{
		Model:     model,
		MaxTokens: 4096,
		MaxTurns:  25,
	}
}

// Loop drives a multi-turn conversation against a streaming provider,
// executing tool calls sequentially between turns.
type Loop struct {
	provider provider.StreamingProvider
	config   Config
	tools    *ToolRegistry
	messages []provider.Message
	events   chan AgentEvent
}

// NewLoop constructs a Loop. events, if non-nil, receives every AgentEvent
// Run emits; the caller is responsible for draining it concurrently with
// Run (a front end typically ranges over it on its own goroutine).
func NewLoop(p provider.StreamingProvider, config Config, tools *ToolRegistry, events chan AgentEvent) *Loop {
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &Loop{provider: p, config: config, tools: tools, events: events}
}

// Messages returns a snapshot of the accumulated conversation history.
func (l *Loop) Messages() []provider.Message {
	return append([]provider.Message(nil), l.messages...)
}

// Append seeds the loop's history with a previously persisted message, for
// resuming a session before the first Run call.
func (l *Loop) Append(m provider.Message) {
	l.messages = append(l.messages, m)
}

func (l *Loop) emit(evt AgentEvent) {
	if l.events == nil {
		return
	}
	l.events <- evt
}
