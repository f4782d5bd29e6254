// Command termbench bootstraps a provider, the agent turn loop, session
// persistence, and either the interactive terminal UI or a headless event
// printer, following the teacher's cmd/main.go bootstrap shape.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/asynkron/termbench/internal/agent"
	"github.com/asynkron/termbench/internal/applog"
	"github.com/asynkron/termbench/internal/bootprobe"
	"github.com/asynkron/termbench/internal/provider"
	"github.com/asynkron/termbench/internal/session"
	"github.com/asynkron/termbench/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	defaultModel := os.Getenv("TERMBENCH_MODEL")
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-5-20250929"
	}
	defaultProvider := os.Getenv("TERMBENCH_PROVIDER")
	if defaultProvider == "" {
		defaultProvider = "anthropic"
	}
	defaultSessionDir := os.Getenv("TERMBENCH_SESSION_DIR")
	if defaultSessionDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		defaultSessionDir = filepath.Join(home, ".termbench", "sessions")
	}

	var (
		providerName = flag.String("provider", defaultProvider, "completion provider: anthropic or openai")
		model        = flag.String("model", defaultModel, "model identifier to use for completions")
		systemPrompt = flag.String("system", "", "system prompt forwarded to the model")
		sessionDir   = flag.String("session-dir", defaultSessionDir, "base directory for persisted sessions")
		resumeID     = flag.String("resume", "", "resume an existing session by id instead of starting fresh")
		noTUI        = flag.Bool("no-tui", false, "print agent events to stdout instead of launching the terminal UI")
		maxTurns     = flag.Int("max-turns", 0, "override the agent loop's max-turns-per-run limit (0 keeps the default)")
	)
	flag.Parse()

	logger := applog.NewDefaultZeroLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	streamingProvider, err := buildProvider(*providerName, *model)
	if err != nil {
		logger.Error(ctx, "failed to build provider", err)
		return 2
	}

	store, err := session.NewStore(*sessionDir)
	if err != nil {
		logger.Error(ctx, "failed to open session store", err)
		return 1
	}

	sessionID, autoSaver, err := openSession(store, *resumeID)
	if err != nil {
		logger.Error(ctx, "failed to open session", err)
		return 1
	}
	defer autoSaver.Shutdown()
	logger.Info(ctx, "session ready", applog.F("session_id", string(sessionID)))

	cwd, err := os.Getwd()
	if err != nil {
		logger.Error(ctx, "failed to determine working directory", err)
		return 1
	}
	probeCtx := bootprobe.NewContext(cwd)
	probeResult, probeSummary, combinedSystem := bootprobe.BuildAugmentation(probeCtx, *systemPrompt, logger)
	if probeResult.HasCapabilities() && probeSummary != "" {
		logger.Info(ctx, "detected project tooling", applog.F("summary", probeSummary))
	}

	config := agent.DefaultConfig(*model)
	config.System = combinedSystem
	if *maxTurns > 0 {
		config.MaxTurns = *maxTurns
	}

	tools := agent.NewDefaultToolRegistry(".")
	rawEvents := make(chan agent.AgentEvent, 64)
	loop := agent.NewLoop(streamingProvider, config, tools, rawEvents)
	for _, m := range autoSaver.Messages() {
		loop.Append(m)
	}

	if *noTUI {
		go persistAgentEvents(loop, autoSaver, rawEvents)
		return runHeadless(ctx, loop)
	}

	// rawEvents is consumed exactly once, here, and fanned out to uiEvents
	// so persistence and the UI each see every event without racing each
	// other for the same channel receive.
	uiEvents := make(chan agent.AgentEvent, 64)
	go fanOutAgentEvents(loop, autoSaver, rawEvents, uiEvents)

	app, err := tui.NewApp(loop, uiEvents)
	if err != nil {
		logger.Error(ctx, "failed to initialize terminal UI", err)
		return 1
	}
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "tui exited with error", err)
		return 1
	}
	return 0
}

func buildProvider(name, model string) (provider.StreamingProvider, error) {
	switch strings.ToLower(name) {
	case "anthropic":
		return provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:  model,
		})
	case "openai":
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  model,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic or openai)", name)
	}
}

func openSession(store *session.Store, resumeID string) (session.ID, *session.AutoSaver, error) {
	if resumeID != "" {
		id := session.ID(resumeID)
		metadata, err := store.LoadManifest(id)
		if err != nil {
			return "", nil, fmt.Errorf("resume session %s: %w", resumeID, err)
		}
		node, err := store.LoadTree(id)
		if err != nil {
			node = session.NewRootNode(id)
		}
		saver, err := session.NewAutoSaver(store, session.DefaultAutoSaveConfig(), id, metadata, node)
		if err != nil {
			return "", nil, err
		}
		messages, err := store.LoadMessages(id)
		if err != nil {
			return "", nil, err
		}
		for _, m := range messages {
			saver.AddMessage(m)
		}
		return id, saver, nil
	}

	id := session.NewID()
	metadata := session.NewMetadata()
	node := session.NewRootNode(id)
	saver, err := session.NewAutoSaver(store, session.DefaultAutoSaveConfig(), id, metadata, node)
	if err != nil {
		return "", nil, err
	}
	return id, saver, nil
}

// persistAgentEvents drains events in headless mode, persisting newly
// appended messages to autoSaver at each turn boundary with no UI to also
// fan out to.
func persistAgentEvents(loop *agent.Loop, autoSaver *session.AutoSaver, events <-chan agent.AgentEvent) {
	persisted := 0
	for evt := range events {
		if evt.Kind != agent.EventTurnEnd {
			continue
		}
		messages := loop.Messages()
		for _, m := range messages[persisted:] {
			autoSaver.AddMessage(m)
		}
		persisted = len(messages)
	}
}

// fanOutAgentEvents is the sole reader of in, persisting newly appended
// messages to autoSaver at each turn boundary and republishing every event
// to out for the UI to consume. It snapshots loop.Messages() after each
// turn boundary rather than tapping the event stream's text deltas, since
// only the loop's own message list carries the exact content blocks a
// provider expects to see replayed.
func fanOutAgentEvents(loop *agent.Loop, autoSaver *session.AutoSaver, in <-chan agent.AgentEvent, out chan<- agent.AgentEvent) {
	defer close(out)
	persisted := 0
	for evt := range in {
		if evt.Kind == agent.EventTurnEnd {
			messages := loop.Messages()
			for _, m := range messages[persisted:] {
				autoSaver.AddMessage(m)
			}
			persisted = len(messages)
		}
		out <- evt
	}
}

func runHeadless(ctx context.Context, loop *agent.Loop) int {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return 0
		}
		text, err := loop.Run(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		data, _ := json.Marshal(text)
		fmt.Printf("%s\n", strings.Trim(string(data), `"`))
	}
}
