package provider

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one decoded `event:`/`data:` frame from an SSE stream. Data
// lines are joined with "\n" per the SSE spec when a frame carries more
// than one.
type sseEvent struct {
	eventType string
	data      string
}

// sseDecoder reads Server-Sent Events from an underlying stream, splitting
// frames on a blank line and retaining any unconsumed suffix across reads
// (§9: a line-buffered bufio.Reader holds any partial line between reads,
// following the teacher's openai_stream_parser.go line-at-a-time idiom
// rather than anthropic.rs's manual "\n\n"-index buffer scan).
type sseDecoder struct {
	reader    *bufio.Reader
	eventType string
	dataLines []string
}

// newSSEDecoder wraps r for line-buffered SSE decoding.
func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{reader: bufio.NewReader(r)}
}

// Next returns the next decoded event, or io.EOF when the stream ends
// cleanly. A line beginning with ":" is a comment/keepalive and is
// skipped. The literal "[DONE]" data payload (OpenAI's stream terminator)
// is surfaced as an event with eventType "done" so callers can stop without
// treating it as a parse failure.
func (d *sseDecoder) Next() (sseEvent, error) {
	for {
		line, err := d.reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		if trimmed == "" {
			if len(d.dataLines) > 0 || d.eventType != "" {
				evt := sseEvent{eventType: d.eventType, data: strings.Join(d.dataLines, "\n")}
				d.eventType = ""
				d.dataLines = nil
				if evt.data == "[DONE]" {
					evt.eventType = "done"
				}
				return evt, nil
			}
			if err != nil {
				return sseEvent{}, err
			}
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, ":"):
			// comment/keepalive, ignore
		case strings.HasPrefix(trimmed, "event:"):
			d.eventType = strings.TrimSpace(strings.TrimPrefix(trimmed, "event:"))
		case strings.HasPrefix(trimmed, "data:"):
			d.dataLines = append(d.dataLines, strings.TrimPrefix(strings.TrimPrefix(trimmed, "data:"), " "))
		}

		if err != nil {
			if len(d.dataLines) > 0 || d.eventType != "" {
				evt := sseEvent{eventType: d.eventType, data: strings.Join(d.dataLines, "\n")}
				d.eventType = ""
				d.dataLines = nil
				if evt.data == "[DONE]" {
					evt.eventType = "done"
				}
				return evt, nil
			}
			return sseEvent{}, err
		}
	}
}
