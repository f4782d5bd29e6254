package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const anthropicVersion = "2023-06-01"
const defaultAnthropicBaseURL = "https://api.anthropic.com"

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicProvider adapts the Anthropic Messages API to StreamingProvider,
// grounded on the reference implementation's SSE event dispatch table.
type AnthropicProvider struct {
	config AnthropicConfig
	client *http.Client
}

// NewAnthropicProvider constructs an adapter. An empty BaseURL defaults to
// the public Anthropic API.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, AuthError("anthropic: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultAnthropicBaseURL
	}
	return &AnthropicProvider{
		config: config,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (p *AnthropicProvider) url() string {
	return p.config.BaseURL + "/v1/messages"
}

func (p *AnthropicProvider) headers(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// wireRequest is the Anthropic Messages API request body shape.
type wireRequest struct {
	Model       string          `json:"model"`
	Messages    []wireMessage   `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
	Tools       []wireTool      `json:"tools,omitempty"`
	StopSeqs    []string        `json:"stop_sequences,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []wireContent  `json:"content"`
}

type wireContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

func buildWireRequest(req CompletionRequest) wireRequest {
	wr := wireRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		StopSeqs:    req.StopSequences,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		wm := wireMessage{Role: string(m.Role)}
		for _, b := range m.Content {
			switch b.Kind {
			case BlockText:
				wm.Content = append(wm.Content, wireContent{Type: "text", Text: b.Text})
			case BlockToolUse:
				wm.Content = append(wm.Content, wireContent{Type: "tool_use", ID: b.ToolUseID, Name: b.ToolName, Input: b.ToolInput})
			case BlockToolResult:
				wm.Content = append(wm.Content, wireContent{Type: "tool_result", ToolUseID: b.ToolUseID, Content: b.ToolResult})
			}
		}
		wr.Messages = append(wr.Messages, wm)
	}
	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return wr
}

// Stream opens a streaming completion request and returns a channel of
// decoded StreamEvents. The HTTP request and response headers are
// validated before the channel is returned; decode failures afterward are
// delivered as the channel's last StreamResult (§7: mid-stream failure ->
// Streaming error).
func (p *AnthropicProvider) Stream(ctx context.Context, request CompletionRequest) (<-chan StreamResult, error) {
	body, err := json.Marshal(buildWireRequest(request))
	if err != nil {
		return nil, InvalidRequestError(err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url(), bytes.NewReader(body))
	if err != nil {
		return nil, NetworkError(err)
	}
	p.headers(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		classified := classifyHTTPError("anthropic", resp.StatusCode, string(respBody))
		return nil, classified.err
	}

	out := make(chan StreamResult, 64)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		decoder := newSSEDecoder(resp.Body)
		eventType := ""
		for {
			evt, derr := decoder.Next()
			if derr != nil {
				if derr != io.EOF {
					select {
					case out <- StreamResult{Err: StreamingError(derr.Error())}:
					case <-ctx.Done():
					}
				}
				return
			}
			eventType = evt.eventType
			if eventType == "done" {
				return
			}
			parsed, ok := ParseAnthropicSSEEvent(eventType, evt.data)
			if !ok {
				continue
			}
			select {
			case out <- StreamResult{Event: parsed}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Internal wire shapes for SSE payload deserialization.

type sseMessageStart struct {
	Message struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

type sseContentBlockStart struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content_block"`
}

type sseContentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type sseContentBlockStop struct {
	Index int `json:"index"`
}

type sseMessageDelta struct {
	Delta struct {
		StopReason *string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type sseError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseAnthropicSSEEvent dispatches a decoded SSE frame into a canonical
// StreamEvent, returning (zero, false) for an unrecognized event type or a
// malformed payload — grounded directly on the reference adapter's
// parse_sse_event dispatch table.
func ParseAnthropicSSEEvent(eventType, data string) (StreamEvent, bool) {
	switch eventType {
	case "message_start":
		var m sseMessageStart
		if json.Unmarshal([]byte(data), &m) != nil {
			return StreamEvent{}, false
		}
		return StreamEvent{
			Kind:      EventMessageStart,
			MessageID: m.Message.ID,
			Model:     m.Message.Model,
			Usage:     Usage{InputTokens: m.Message.Usage.InputTokens, OutputTokens: m.Message.Usage.OutputTokens},
		}, true

	case "content_block_start":
		var c sseContentBlockStart
		if json.Unmarshal([]byte(data), &c) != nil {
			return StreamEvent{}, false
		}
		var block ContentBlock
		switch c.ContentBlock.Type {
		case "tool_use":
			block = ToolUseBlock(c.ContentBlock.ID, c.ContentBlock.Name, c.ContentBlock.Input)
		default:
			block = TextBlock(c.ContentBlock.Text)
		}
		return StreamEvent{Kind: EventContentBlockStart, Index: c.Index, ContentBlock: block}, true

	case "content_block_delta":
		var c sseContentBlockDelta
		if json.Unmarshal([]byte(data), &c) != nil {
			return StreamEvent{}, false
		}
		var delta ContentDelta
		switch c.Delta.Type {
		case "input_json_delta":
			delta = ContentDelta{Kind: DeltaInputJSON, PartialJSON: c.Delta.PartialJSON}
		case "thinking_delta":
			delta = ContentDelta{Kind: DeltaThinking, Text: c.Delta.Text}
		default:
			delta = ContentDelta{Kind: DeltaText, Text: c.Delta.Text}
		}
		return StreamEvent{Kind: EventContentBlockDelta, Index: c.Index, Delta: delta}, true

	case "content_block_stop":
		var c sseContentBlockStop
		if json.Unmarshal([]byte(data), &c) != nil {
			return StreamEvent{}, false
		}
		return StreamEvent{Kind: EventContentBlockStop, Index: c.Index}, true

	case "message_delta":
		var m sseMessageDelta
		if json.Unmarshal([]byte(data), &m) != nil {
			return StreamEvent{}, false
		}
		var reason *StopReason
		if m.Delta.StopReason != nil {
			sr := StopReason(*m.Delta.StopReason)
			reason = &sr
		}
		return StreamEvent{Kind: EventMessageDelta, StopReason: reason, Usage: Usage{OutputTokens: m.Usage.OutputTokens}}, true

	case "message_stop":
		return StreamEvent{Kind: EventMessageStop}, true

	case "ping":
		return StreamEvent{Kind: EventPing}, true

	case "error":
		var e sseError
		if json.Unmarshal([]byte(data), &e) != nil {
			return StreamEvent{}, false
		}
		return StreamEvent{Kind: EventError, ErrorMessage: e.Error.Message}, true

	default:
		return StreamEvent{}, false
	}
}
