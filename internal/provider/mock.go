package provider

import (
	"context"
	"encoding/json"
)

// MockProvider replays a fixed sequence of StreamEvents over a channel,
// ignoring the CompletionRequest it's given. Grounded on the reference
// agent test harness's MockProvider — a deterministic stand-in used to
// exercise the turn loop without a live network call.
type MockProvider struct {
	Events []StreamEvent
	// Err, if set, is delivered as the sole StreamResult instead of Events.
	Err error
}

// NewTextMockProvider builds a MockProvider that replays a single text
// response ending in end_turn, mirroring mock_text_provider(text) in the
// reference test harness.
func NewTextMockProvider(text string) *MockProvider {
	endTurn := StopEndTurn
	return &MockProvider{
		Events: []StreamEvent{
			{Kind: EventMessageStart, MessageID: "mock-msg", Model: "mock-model"},
			{Kind: EventContentBlockStart, Index: 0, ContentBlock: TextBlock("")},
			{Kind: EventContentBlockDelta, Index: 0, Delta: ContentDelta{Kind: DeltaText, Text: text}},
			{Kind: EventContentBlockStop, Index: 0},
			{Kind: EventMessageDelta, StopReason: &endTurn},
			{Kind: EventMessageStop},
		},
	}
}

// NewToolCallMockProvider builds a MockProvider that replays a single
// tool-use response: a ContentBlockStart{ToolUse} carrying the given name
// and input, followed by the block's closing events and a tool_use stop
// reason.
func NewToolCallMockProvider(toolUseID, name string, input json.RawMessage) *MockProvider {
	toolUse := StopToolUse
	return &MockProvider{
		Events: []StreamEvent{
			{Kind: EventMessageStart, MessageID: "mock-msg", Model: "mock-model"},
			{Kind: EventContentBlockStart, Index: 0, ContentBlock: ToolUseBlock(toolUseID, name, input)},
			{Kind: EventContentBlockStop, Index: 0},
			{Kind: EventMessageDelta, StopReason: &toolUse},
			{Kind: EventMessageStop},
		},
	}
}

// Stream replays the configured Events (or Err) over a freshly-created
// channel, respecting ctx cancellation the same way a real adapter would.
func (m *MockProvider) Stream(ctx context.Context, request CompletionRequest) (<-chan StreamResult, error) {
	out := make(chan StreamResult, 64)
	go func() {
		defer close(out)
		if m.Err != nil {
			select {
			case out <- StreamResult{Err: m.Err}:
			case <-ctx.Done():
			}
			return
		}
		for _, evt := range m.Events {
			select {
			case out <- StreamResult{Event: evt}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
