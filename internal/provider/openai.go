package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIProvider adapts the OpenAI Responses API to StreamingProvider.
// Grounded on the teacher's openai_client.go (request shape: the system
// prompt as a leading "system" input, each message sent under its own role
// with its text and tool-result blocks joined into one text item, flat
// function-tool definitions) and openai_stream_parser.go (dispatch on each
// data payload's "type" field over a bufio-line SSE read), generalized here
// to emit canonical StreamEvents instead of the teacher's single-ToolCall
// accumulator.
type OpenAIProvider struct {
	config OpenAIConfig
	client *http.Client
}

// NewOpenAIProvider constructs an adapter. An empty BaseURL defaults to the
// public OpenAI API.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, AuthError("openai: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		config: config,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (p *OpenAIProvider) url() string { return p.config.BaseURL + "/responses" }

type openAIContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIInputMessage struct {
	Role    string               `json:"role"`
	Content []openAIContentItem  `json:"content"`
}

type openAITool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIRequestBody struct {
	Model  string               `json:"model"`
	Input  []openAIInputMessage `json:"input"`
	Stream bool                 `json:"stream"`
	Tools  []openAITool         `json:"tools,omitempty"`
}

func buildOpenAIRequest(req CompletionRequest) openAIRequestBody {
	body := openAIRequestBody{Model: req.Model, Stream: true}

	if req.System != "" {
		body.Input = append(body.Input, openAIInputMessage{
			Role:    "system",
			Content: []openAIContentItem{{Type: "input_text", Text: req.System}},
		})
	}
	for _, m := range req.Messages {
		role := string(m.Role)
		contentType := "input_text"
		if role == "assistant" {
			contentType = "output_text"
		}
		var text string
		for _, b := range m.Content {
			if b.Kind == BlockText {
				text += b.Text
			} else if b.Kind == BlockToolResult {
				text += b.ToolResult
			}
		}
		body.Input = append(body.Input, openAIInputMessage{
			Role:    role,
			Content: []openAIContentItem{{Type: contentType, Text: text}},
		})
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, openAITool{Type: "function", Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	return body
}

// Stream opens a streaming Responses API request and translates its event
// stream into canonical StreamEvents. Only output text becomes a complete
// content block (Index 0). Function-call argument deltas are forwarded as
// InputJsonDelta events at Index 1 with no ContentBlockStart or
// ContentBlockStop for that index, and the stop reason is end_turn or nil,
// never tool_use. Tool-use blocks in the request history are not sent.
func (p *OpenAIProvider) Stream(ctx context.Context, request CompletionRequest) (<-chan StreamResult, error) {
	body, err := json.Marshal(buildOpenAIRequest(request))
	if err != nil {
		return nil, InvalidRequestError(err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url(), bytes.NewReader(body))
	if err != nil {
		return nil, NetworkError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NetworkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		classified := classifyHTTPError("openai", resp.StatusCode, string(respBody))
		return nil, classified.err
	}

	out := make(chan StreamResult, 64)
	go p.consume(ctx, resp.Body, out)
	return out, nil
}

func (p *OpenAIProvider) consume(ctx context.Context, body io.ReadCloser, out chan<- StreamResult) {
	defer close(out)
	defer body.Close()

	send := func(r StreamResult) bool {
		select {
		case out <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	send(StreamResult{Event: StreamEvent{Kind: EventMessageStart, Model: p.config.Model}})
	send(StreamResult{Event: StreamEvent{Kind: EventContentBlockStart, Index: 0, ContentBlock: TextBlock("")}})

	decoder := newSSEDecoder(body)
	textOpen := true
	var stopReason *StopReason

	for {
		evt, err := decoder.Next()
		if err != nil {
			if err != io.EOF {
				send(StreamResult{Err: StreamingError(err.Error())})
			}
			break
		}
		if evt.eventType == "done" {
			break
		}

		var payload map[string]any
		if json.Unmarshal([]byte(evt.data), &payload) != nil {
			continue
		}
		typ, _ := payload["type"].(string)

		switch typ {
		case "response.output_text.delta":
			if text, _ := payload["delta"].(string); text != "" {
				if !send(StreamResult{Event: StreamEvent{Kind: EventContentBlockDelta, Index: 0, Delta: ContentDelta{Kind: DeltaText, Text: text}}}) {
					return
				}
			}
		case "response.function_call_arguments.delta":
			partial, _ := payload["delta"].(string)
			if !send(StreamResult{Event: StreamEvent{Kind: EventContentBlockDelta, Index: 1, Delta: ContentDelta{Kind: DeltaInputJSON, PartialJSON: partial}}}) {
				return
			}
		case "response.completed", "response.output_text.done":
			reason := StopEndTurn
			stopReason = &reason
		}
	}

	if textOpen {
		send(StreamResult{Event: StreamEvent{Kind: EventContentBlockStop, Index: 0}})
	}
	send(StreamResult{Event: StreamEvent{Kind: EventMessageDelta, StopReason: stopReason}})
	send(StreamResult{Event: StreamEvent{Kind: EventMessageStop}})
}
