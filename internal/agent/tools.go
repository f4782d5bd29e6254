package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/asynkron/termbench/internal/provider"
	"github.com/asynkron/termbench/pkg/patch"
	"github.com/xeipuuv/gojsonschema"
)

const maxToolOutputBytes = 50 * 1024

// ToolHandler executes a tool call's parsed-JSON input and returns the
// string fed back to the model as a ToolResult block.
type ToolHandler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool pairs a provider-facing definition with its Go implementation.
type Tool struct {
	Definition provider.ToolDefinition
	Handler    ToolHandler
}

// ToolRegistry is a name-keyed dispatch table, mirroring the teacher's
// CommandExecutor dispatch-by-name shape but for model-invoked tools
// instead of shell-sourced plan steps.
type ToolRegistry struct {
	tools map[string]Tool
}

// NewToolRegistry builds an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// NewDefaultToolRegistry builds a registry with the five built-in tools
// (read_file, write_file, apply_patch, bash, grep), the subset sufficient to
// exercise C8's sequential tool-dispatch contract end to end. apply_patch,
// bash and grep work relative to workingDir; read_file and write_file use the
// path they are given as-is.
func NewDefaultToolRegistry(workingDir string) *ToolRegistry {
	r := NewToolRegistry()
	r.Register(readFileTool())
	r.Register(writeFileTool())
	r.Register(applyPatchTool(workingDir))
	r.Register(bashTool(workingDir))
	r.Register(grepTool(workingDir))
	return r
}

// Register installs a tool, overwriting any existing entry with the same
// name.
func (r *ToolRegistry) Register(t Tool) {
	r.tools[t.Definition.Name] = t
}

// Definitions returns every registered tool's provider-facing definition,
// the shape a CompletionRequest.Tools field expects.
func (r *ToolRegistry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	return defs
}

// Execute validates input against the tool's schema and dispatches to its
// handler, returning an error for an unknown tool name or a schema
// violation rather than invoking the handler with malformed input.
func (r *ToolRegistry) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("tool: unknown tool %q", name)
	}
	if len(tool.Definition.InputSchema) > 0 {
		if err := validateToolInput(tool.Definition.InputSchema, input); err != nil {
			return "", err
		}
	}
	return tool.Handler(ctx, input)
}

func validateToolInput(schema, input json.RawMessage) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("tool: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("tool: input failed schema validation: %s", strings.Join(issues, "; "))
}

func rawSchema(s string) json.RawMessage { return json.RawMessage(s) }

func readFileTool() Tool {
	return Tool{
		Definition: provider.ToolDefinition{
			Name:        "read_file",
			Description: "Read the contents of a file at the given path.",
			InputSchema: rawSchema(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		},
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("read_file: %w", err)
			}
			data, err := os.ReadFile(args.Path)
			if err != nil {
				return "", fmt.Errorf("read_file: %w", err)
			}
			return truncateToolOutput(string(data)), nil
		},
	}
}

func writeFileTool() Tool {
	return Tool{
		Definition: provider.ToolDefinition{
			Name:        "write_file",
			Description: "Write content to a file at the given path, creating or overwriting it.",
			InputSchema: rawSchema(`{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`),
		},
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Path    string `json:"path"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("write_file: %w", err)
			}
			if err := os.WriteFile(args.Path, []byte(args.Content), 0o644); err != nil {
				return "", fmt.Errorf("write_file: %w", err)
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path), nil
		},
	}
}

// applyPatchTool parses and applies an apply_patch-formatted payload
// (*** Add/Update/Delete File directives with unified-diff hunks) against
// the filesystem rooted at workingDir, returning a per-file status summary.
func applyPatchTool(workingDir string) Tool {
	return Tool{
		Definition: provider.ToolDefinition{
			Name:        "apply_patch",
			Description: "Apply a patch (*** Begin Patch / Add File / Update File / Delete File with unified-diff hunks) to one or more files.",
			InputSchema: rawSchema(`{"type":"object","properties":{"patch":{"type":"string"}},"required":["patch"]}`),
		},
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Patch string `json:"patch"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("apply_patch: %w", err)
			}
			results, err := patch.ApplyFilesystemPatch(ctx, args.Patch, patch.FilesystemOptions{WorkingDir: workingDir})
			if err != nil {
				var patchErr *patch.Error
				if errors.As(err, &patchErr) {
					return "", patchErr.AsProviderError()
				}
				return "", fmt.Errorf("apply_patch: %w", err)
			}
			lines := make([]string, 0, len(results))
			for _, r := range results {
				lines = append(lines, fmt.Sprintf("%s %s", r.Status, r.Path))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

func bashTool(workingDir string) Tool {
	return Tool{
		Definition: provider.ToolDefinition{
			Name:        "bash",
			Description: "Run a shell command and return its combined stdout/stderr.",
			InputSchema: rawSchema(`{"type":"object","properties":{"command":{"type":"string"},"timeout_sec":{"type":"integer"}},"required":["command"]}`),
		},
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Command    string `json:"command"`
				TimeoutSec int    `json:"timeout_sec"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("bash: %w", err)
			}
			timeout := time.Duration(args.TimeoutSec) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(runCtx, "bash", "-lc", args.Command)
			cmd.Dir = workingDir

			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out
			runErr := cmd.Run()

			result := truncateToolOutput(out.String())
			if runErr != nil {
				return result, fmt.Errorf("bash: %w", runErr)
			}
			return result, nil
		},
	}
}

func grepTool(workingDir string) Tool {
	return Tool{
		Definition: provider.ToolDefinition{
			Name:        "grep",
			Description: "Search files under a directory for lines matching a regular expression.",
			InputSchema: rawSchema(`{"type":"object","properties":{"pattern":{"type":"string"},"path":{"type":"string"}},"required":["pattern"]}`),
		},
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Pattern string `json:"pattern"`
				Path    string `json:"path"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("grep: %w", err)
			}
			if _, err := regexp.Compile(args.Pattern); err != nil {
				return "", fmt.Errorf("grep: %w", err)
			}

			searchRoot := args.Path
			if searchRoot == "" {
				searchRoot = workingDir
			}

			cmd := exec.CommandContext(ctx, "grep", "-rn", "-E", args.Pattern, searchRoot)
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out
			runErr := cmd.Run()

			var exitErr *exec.ExitError
			if runErr != nil {
				if asExitError(runErr, &exitErr) && exitErr.ExitCode() == 1 {
					return "no matches", nil
				}
				return truncateToolOutput(out.String()), fmt.Errorf("grep: %w", runErr)
			}
			return truncateToolOutput(out.String()), nil
		},
	}
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

func truncateToolOutput(output string) string {
	if len(output) <= maxToolOutputBytes {
		return output
	}
	return output[len(output)-maxToolOutputBytes:] + "\n…(truncated, showing last " + strconv.Itoa(maxToolOutputBytes) + " bytes)"
}
