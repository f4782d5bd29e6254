// Package provider implements the streaming pipeline (C7): a canonical
// StreamEvent model, SSE wire decoding, per-family adapters (Anthropic,
// OpenAI, and an in-process mock), retryable HTTP error classification, and
// the error taxonomy (nine Kind values plus KindPatch) shared with the rest
// of the module.
package provider

import (
	"context"
	"encoding/json"
)

// Role distinguishes a Message's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentBlockKind discriminates the ContentBlock sum type.
type ContentBlockKind string

const (
	BlockText       ContentBlockKind = "text"
	BlockToolUse    ContentBlockKind = "tool_use"
	BlockToolResult ContentBlockKind = "tool_result"
)

// ContentBlock is one block of a Message's content: text, a tool invocation
// request, or a tool result being fed back to the model.
type ContentBlock struct {
	Kind       ContentBlockKind
	Text       string
	ToolUseID  string
	ToolName   string
	ToolInput  json.RawMessage
	ToolResult string
}

// TextBlock constructs a text content block.
func TextBlock(text string) ContentBlock { return ContentBlock{Kind: BlockText, Text: text} }

// ToolUseBlock constructs a tool-invocation content block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// ToolResultBlock constructs a tool-result content block.
func ToolResultBlock(toolUseID, result string) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolUseID: toolUseID, ToolResult: result}
}

// Message is one turn of conversation history.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// UserMessage constructs a single-text-block user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// ToolResultMessage constructs a user message carrying a tool result, the
// shape providers expect for feeding tool output back into the next turn.
func ToolResultMessage(toolUseID, result string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{ToolResultBlock(toolUseID, result)}}
}

// ToolDefinition describes a callable tool to a provider.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// CompletionRequest is the provider-agnostic completion request shape
// (§4.7): model id, history, optional system prompt, sampling params, and
// tool definitions.
type CompletionRequest struct {
	Model         string
	Messages      []Message
	System        string
	MaxTokens     int
	Tools         []ToolDefinition
	ThinkingBudget int
	StopSequences []string
	Temperature   float64
	Stream        bool
}

// Usage carries token accounting reported by the provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// StopReason explains why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopToolUse      StopReason = "tool_use"
	StopStopSequence StopReason = "stop_sequence"
)

// ContentDeltaKind discriminates the ContentDelta sum type.
type ContentDeltaKind string

const (
	DeltaText       ContentDeltaKind = "text_delta"
	DeltaInputJSON  ContentDeltaKind = "input_json_delta"
	DeltaThinking   ContentDeltaKind = "thinking_delta"
)

// ContentDelta is an incremental update to a content block in progress.
type ContentDelta struct {
	Kind        ContentDeltaKind
	Text        string
	PartialJSON string
}

// StreamEventKind discriminates the canonical StreamEvent sum type (§3).
type StreamEventKind string

const (
	EventMessageStart      StreamEventKind = "message_start"
	EventContentBlockStart StreamEventKind = "content_block_start"
	EventContentBlockDelta StreamEventKind = "content_block_delta"
	EventContentBlockStop  StreamEventKind = "content_block_stop"
	EventMessageDelta      StreamEventKind = "message_delta"
	EventMessageStop       StreamEventKind = "message_stop"
	EventPing              StreamEventKind = "ping"
	EventError             StreamEventKind = "error"
)

// StreamEvent is the canonical wire-independent event every adapter
// produces, dispatched on Kind (§3, §4.7). Exactly one MessageStart opens a
// stream; each content block is introduced by ContentBlockStart with a
// unique Index, followed by zero or more ContentBlockDelta events sharing
// that Index, terminated by ContentBlockStop{Index}; the stream ends with
// MessageDelta (carrying an optional StopReason) followed by MessageStop.
// The Anthropic and mock adapters follow this order; OpenAIProvider.Stream
// does not for function-call deltas (see its doc).
type StreamEvent struct {
	Kind StreamEventKind

	// MessageStart
	MessageID string
	Model     string
	Usage     Usage

	// ContentBlockStart
	Index        int
	ContentBlock ContentBlock

	// ContentBlockDelta
	Delta ContentDelta

	// MessageDelta
	StopReason *StopReason

	// Error
	ErrorMessage string
}

// StreamResult pairs a StreamEvent with any error the producer hit decoding
// or transporting it — the Go shape of the reference implementation's
// `Result<StreamEvent>` channel item (§4.7).
type StreamResult struct {
	Event StreamEvent
	Err   error
}

// StreamingProvider streams a completion as a bounded channel of
// StreamResult (capacity ~64, §5's backpressure policy). Cancelling ctx
// signals cancellation to the producer. A caller that stops draining the
// channel without cancelling ctx does not stop the producer: it stays
// blocked on its next send once the buffer is full.
type StreamingProvider interface {
	Stream(ctx context.Context, request CompletionRequest) (<-chan StreamResult, error)
}
