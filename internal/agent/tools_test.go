package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileToolReadsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewDefaultToolRegistry(dir)
	input, _ := json.Marshal(map[string]string{"path": path})
	result, err := registry.Execute(context.Background(), "read_file", input)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if result != "hello" {
		t.Fatalf("result = %q", result)
	}
}

func TestWriteFileToolWritesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")

	registry := NewDefaultToolRegistry(dir)
	input, _ := json.Marshal(map[string]string{"path": path, "content": "written"})
	if _, err := registry.Execute(context.Background(), "write_file", input); err != nil {
		t.Fatalf("err = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "written" {
		t.Fatalf("content = %q", string(data))
	}
}

func TestBashToolRunsCommand(t *testing.T) {
	registry := NewDefaultToolRegistry(t.TempDir())
	input, _ := json.Marshal(map[string]string{"command": "echo hi"})
	result, err := registry.Execute(context.Background(), "bash", input)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if result != "hi\n" {
		t.Fatalf("result = %q", result)
	}
}

func TestGrepToolFindsMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("needle here\nnothing\n"), 0o644)

	registry := NewDefaultToolRegistry(dir)
	input, _ := json.Marshal(map[string]string{"pattern": "needle", "path": dir})
	result, err := registry.Execute(context.Background(), "grep", input)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if result == "" {
		t.Fatal("expected match output")
	}
}

func TestApplyPatchToolAddsFile(t *testing.T) {
	dir := t.TempDir()

	registry := NewDefaultToolRegistry(dir)
	patchBody := "*** Begin Patch\n" +
		"*** Add File: new.txt\n" +
		"+hello from patch\n" +
		"*** End Patch\n"
	input, _ := json.Marshal(map[string]string{"patch": patchBody})
	result, err := registry.Execute(context.Background(), "apply_patch", input)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if result == "" {
		t.Fatal("expected a non-empty result summary")
	}

	data, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	if err != nil {
		t.Fatalf("expected new.txt to exist: %v", err)
	}
	if string(data) != "hello from patch\n" {
		t.Fatalf("content = %q", string(data))
	}
}

func TestApplyPatchToolRejectsMalformedPatch(t *testing.T) {
	registry := NewDefaultToolRegistry(t.TempDir())
	unterminated := "*** Begin Patch\n*** Add File: x.txt\n+y\n"
	input, _ := json.Marshal(map[string]string{"patch": unterminated})
	if _, err := registry.Execute(context.Background(), "apply_patch", input); err == nil {
		t.Fatal("expected error for a patch missing its End Patch terminator")
	}
}

func TestToolRegistryRejectsUnknownTool(t *testing.T) {
	registry := NewToolRegistry()
	_, err := registry.Execute(context.Background(), "does_not_exist", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestToolRegistryRejectsSchemaViolation(t *testing.T) {
	registry := NewDefaultToolRegistry(t.TempDir())
	_, err := registry.Execute(context.Background(), "read_file", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected schema validation error for missing required field")
	}
}

func TestToolRegistryDefinitionsIncludeAllFive(t *testing.T) {
	registry := NewDefaultToolRegistry(t.TempDir())
	defs := registry.Definitions()
	if len(defs) != 5 {
		t.Fatalf("len(defs) = %d, want 5", len(defs))
	}
	names := make(map[string]bool)
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{"read_file", "write_file", "apply_patch", "bash", "grep"} {
		if !names[want] {
			t.Fatalf("missing tool %q in %v", want, names)
		}
	}
}
