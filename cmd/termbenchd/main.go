// Command termbenchd runs a minimal HTTP server that streams one agent turn
// per request over Server-Sent Events, adapted from the teacher's standalone
// SSE example to forward internal/agent's AgentEvent stream instead of the
// old runtime's Output stream.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/asynkron/termbench/internal/agent"
	"github.com/asynkron/termbench/internal/provider"
)

func sseWrite(w http.ResponseWriter, flusher http.Flusher, event string, data string) error {
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func streamHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	model := os.Getenv("TERMBENCH_MODEL")
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	streamingProvider, err := provider.NewAnthropicProvider(provider.AnthropicConfig{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:  model,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build provider: %v", err), http.StatusInternalServerError)
		return
	}

	prompt := strings.TrimSpace(r.URL.Query().Get("q"))
	if prompt == "" {
		prompt = "Say hello with a few words."
	}

	// One loop per request, so concurrent clients never share history.
	events := make(chan agent.AgentEvent, 64)
	tools := agent.NewDefaultToolRegistry(".")
	loop := agent.NewLoop(streamingProvider, agent.DefaultConfig(model), tools, events)

	go func() {
		defer close(events)
		if _, err := loop.Run(r.Context(), prompt); err != nil {
			log.Printf("agent run error: %v", err)
		}
	}()

	if _, err := fmt.Fprint(w, ": connected\n\n"); err == nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				_ = sseWrite(w, flusher, "end", "turn complete")
				return
			}
			forwardEvent(w, flusher, evt)
		}
	}
}

func forwardEvent(w http.ResponseWriter, flusher http.Flusher, evt agent.AgentEvent) {
	switch evt.Kind {
	case agent.EventTextDelta:
		_ = sseWrite(w, flusher, "assistant_delta", evt.Text)
	case agent.EventTextComplete:
		_ = sseWrite(w, flusher, "assistant_message", evt.Text)
	case agent.EventToolCall:
		data, _ := json.Marshal(evt.ToolCall)
		_ = sseWrite(w, flusher, "tool_call", string(data))
	case agent.EventToolResult:
		data, _ := json.Marshal(evt.ToolResult)
		_ = sseWrite(w, flusher, "tool_result", string(data))
	case agent.EventError:
		_ = sseWrite(w, flusher, "error", evt.ErrorMessage)
	case agent.EventTurnEnd:
		_ = sseWrite(w, flusher, "status", string(evt.Reason))
	default:
		_ = sseWrite(w, flusher, "event", evt.Text)
	}
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", streamHandler)

	addr := os.Getenv("TERMBENCH_LISTEN")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	log.Printf("SSE server listening on %s (GET /stream?q=your+prompt)", addr)
	log.Fatal(srv.ListenAndServe())
}
