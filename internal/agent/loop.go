package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asynkron/termbench/internal/provider"
)

// Run drives turns against the provider until the model stops requesting
// tool use, a turn errors, or config.MaxTurns is reached. userMessage is
// appended to history before the first turn. Returns the text accumulated
// across all turns and, per §9's stream-error-scope resolution, a non-nil
// error only when a turn's stream itself failed (the loop still returns
// whatever text had accumulated up to that point).
func (l *Loop) Run(ctx context.Context, userMessage string) (string, error) {
	l.messages = append(l.messages, provider.UserMessage(userMessage))

	var accumulatedText string

	for turn := 0; turn < l.config.MaxTurns; turn++ {
		l.emit(AgentEvent{Kind: EventTurnStart})

		text, toolCalls, stopReason, err := l.runTurn(ctx)
		accumulatedText += text

		if err != nil {
			l.emit(AgentEvent{Kind: EventTurnEnd, Reason: TurnEndError})
			return accumulatedText, err
		}

		assistantContent := make([]provider.ContentBlock, 0, len(toolCalls)+1)
		if text != "" {
			assistantContent = append(assistantContent, provider.TextBlock(text))
		}
		for _, tc := range toolCalls {
			assistantContent = append(assistantContent, provider.ToolUseBlock(tc.ID, tc.Name, json.RawMessage(tc.InputJSON)))
		}
		if len(assistantContent) > 0 {
			l.messages = append(l.messages, provider.Message{Role: provider.RoleAssistant, Content: assistantContent})
		}

		if len(toolCalls) == 0 {
			reason := endReasonFor(stopReason)
			l.emit(AgentEvent{Kind: EventTurnEnd, Reason: reason})
			return accumulatedText, nil
		}

		l.executeToolCalls(ctx, toolCalls)

		l.emit(AgentEvent{Kind: EventTurnEnd, Reason: TurnEndToolUse})
	}

	l.emit(AgentEvent{Kind: EventTurnEnd, Reason: TurnEndMaxTurns})
	return accumulatedText, nil
}

func endReasonFor(stopReason *provider.StopReason) TurnEndReason {
	if stopReason == nil {
		return TurnEndEndTurn
	}
	switch *stopReason {
	case provider.StopMaxTokens:
		return TurnEndMaxTokens
	case provider.StopToolUse:
		return TurnEndToolUse
	default:
		return TurnEndEndTurn
	}
}

// runTurn drains one provider stream, accumulating text and tool calls per
// §4.8: ContentBlockStart{ToolUse} pushes a new ToolCallInfo,
// ContentBlockDelta{TextDelta} accumulates and emits TextDelta,
// ContentBlockDelta{InputJsonDelta} appends to the ToolCallInfo whose index
// matches the delta's (§9's InputJsonDelta-by-index resolution),
// ContentBlockDelta{ThinkingDelta} emits ThinkingDelta, MessageDelta
// captures the stop reason, and Error aborts the turn.
func (l *Loop) runTurn(ctx context.Context) (string, []ToolCallInfo, *provider.StopReason, error) {
	req := provider.CompletionRequest{
		Model:          l.config.Model,
		Messages:       l.messages,
		System:         l.config.System,
		MaxTokens:      l.config.MaxTokens,
		Tools:          l.tools.Definitions(),
		ThinkingBudget: l.config.ThinkingBudget,
		Temperature:    l.config.Temperature,
		Stream:         true,
	}

	stream, err := l.provider.Stream(ctx, req)
	if err != nil {
		return "", nil, nil, err
	}

	var text string
	toolCallsByIndex := make(map[int]*ToolCallInfo)
	var toolOrder []int
	var stopReason *provider.StopReason

	for result := range stream {
		if result.Err != nil {
			return text, collectToolCalls(toolCallsByIndex, toolOrder), stopReason, result.Err
		}

		evt := result.Event
		switch evt.Kind {
		case provider.EventContentBlockStart:
			if evt.ContentBlock.Kind == provider.BlockToolUse {
				toolCallsByIndex[evt.Index] = &ToolCallInfo{ID: evt.ContentBlock.ToolUseID, Name: evt.ContentBlock.ToolName}
				toolOrder = append(toolOrder, evt.Index)
			}

		case provider.EventContentBlockDelta:
			switch evt.Delta.Kind {
			case provider.DeltaText:
				text += evt.Delta.Text
				l.emit(AgentEvent{Kind: EventTextDelta, Text: evt.Delta.Text})
			case provider.DeltaInputJSON:
				if tc, ok := toolCallsByIndex[evt.Index]; ok {
					tc.InputJSON += evt.Delta.PartialJSON
				}
			case provider.DeltaThinking:
				l.emit(AgentEvent{Kind: EventThinkingDelta, Text: evt.Delta.Text})
			}

		case provider.EventMessageDelta:
			stopReason = evt.StopReason

		case provider.EventError:
			l.emit(AgentEvent{Kind: EventError, ErrorMessage: evt.ErrorMessage})
			return text, collectToolCalls(toolCallsByIndex, toolOrder), stopReason, fmt.Errorf("agent: stream error: %s", evt.ErrorMessage)

		case provider.EventMessageStop:
			// terminal event; loop exits when the channel closes
		}
	}

	if text != "" {
		l.emit(AgentEvent{Kind: EventTextComplete, Text: text})
	}

	toolCalls := collectToolCalls(toolCallsByIndex, toolOrder)
	for i := range toolCalls {
		l.emit(AgentEvent{Kind: EventToolCall, ToolCall: toolCalls[i]})
	}

	return text, toolCalls, stopReason, nil
}

func collectToolCalls(byIndex map[int]*ToolCallInfo, order []int) []ToolCallInfo {
	calls := make([]ToolCallInfo, 0, len(order))
	for _, idx := range order {
		if tc, ok := byIndex[idx]; ok {
			calls = append(calls, *tc)
		}
	}
	return calls
}

// executeToolCalls runs each tool call sequentially in ContentBlockStart
// order (§4.8.f's sequential-dispatch contract) and appends a
// ToolResultMessage for each, so the next turn's request carries every
// result regardless of whether execution or JSON parsing failed.
func (l *Loop) executeToolCalls(ctx context.Context, toolCalls []ToolCallInfo) {
	for _, tc := range toolCalls {
		input := tc.InputJSON
		if input == "" {
			input = "{}"
		}
		var parsed json.RawMessage
		if !json.Valid([]byte(input)) {
			l.emit(AgentEvent{Kind: EventError, ErrorMessage: fmt.Sprintf("malformed tool input for %s, using empty object", tc.Name)})
			parsed = json.RawMessage("{}")
		} else {
			parsed = json.RawMessage(input)
		}

		result, err := l.tools.Execute(ctx, tc.Name, parsed)
		isError := err != nil
		if isError {
			result = err.Error()
		}

		l.emit(AgentEvent{Kind: EventToolResult, ToolResult: ToolResultInfo{ToolUseID: tc.ID, Content: result, IsError: isError}})

		l.messages = append(l.messages, provider.ToolResultMessage(tc.ID, result))
	}
}
