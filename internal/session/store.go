package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/asynkron/termbench/internal/provider"
)

const messagesDirName = "messages"

// Store persists sessions under a base directory, one subdirectory per
// session id, following the manifest.json/tree.json/messages/ layout.
type Store struct {
	basePath string
}

// NewStore builds a store rooted at basePath, creating it if absent.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("session: create base path: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// BasePath returns the store's root directory.
func (s *Store) BasePath() string { return s.basePath }

func (s *Store) sessionDir(id ID) string {
	return filepath.Join(s.basePath, string(id))
}

func (s *Store) manifestPath(id ID) string {
	return filepath.Join(s.sessionDir(id), "manifest.json")
}

func (s *Store) treePath(id ID) string {
	return filepath.Join(s.sessionDir(id), "tree.json")
}

func (s *Store) messagesDir(id ID) string {
	return filepath.Join(s.sessionDir(id), messagesDirName)
}

// EnsureSessionDir creates a session's directory tree, including its
// messages subdirectory.
func (s *Store) EnsureSessionDir(id ID) error {
	if err := os.MkdirAll(s.messagesDir(id), 0o755); err != nil {
		return fmt.Errorf("session: ensure session dir: %w", err)
	}
	return nil
}

// writeAtomic writes data to path via a temp-file-then-rename, so a reader
// never observes a partially written file.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("session: rename temp file: %w", err)
	}
	return nil
}

// SaveManifest writes a session's metadata.
func (s *Store) SaveManifest(id ID, metadata Metadata) error {
	if err := s.EnsureSessionDir(id); err != nil {
		return err
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal manifest: %w", err)
	}
	return writeAtomic(s.manifestPath(id), data)
}

// LoadManifest reads a session's metadata.
func (s *Store) LoadManifest(id ID) (Metadata, error) {
	var metadata Metadata
	data, err := os.ReadFile(s.manifestPath(id))
	if err != nil {
		return metadata, fmt.Errorf("session: read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("session: unmarshal manifest: %w", err)
	}
	return metadata, nil
}

// SaveTree writes a session's tree-position node.
func (s *Store) SaveTree(node Node) error {
	if err := s.EnsureSessionDir(node.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal tree node: %w", err)
	}
	return writeAtomic(s.treePath(node.ID), data)
}

// LoadTree reads a session's tree-position node.
func (s *Store) LoadTree(id ID) (Node, error) {
	var node Node
	data, err := os.ReadFile(s.treePath(id))
	if err != nil {
		return node, fmt.Errorf("session: read tree node: %w", err)
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return node, fmt.Errorf("session: unmarshal tree node: %w", err)
	}
	return node, nil
}

// messageTypeLabel derives the on-disk filename tag for a message, mirroring
// storage.rs's {index}-{type}.json convention, with type distinguished by
// the message's role and whether any of its content blocks is a tool_use
// (assistant) or tool_result (user) block.
func messageTypeLabel(m provider.Message) string {
	if m.Role == provider.RoleAssistant {
		for _, block := range m.Content {
			if block.Kind == provider.BlockToolUse {
				return "tool_call"
			}
		}
		return "assistant"
	}
	for _, block := range m.Content {
		if block.Kind == provider.BlockToolResult {
			return "tool_result"
		}
	}
	return "user"
}

// SaveMessage writes a single message at the given index.
func (s *Store) SaveMessage(id ID, index int, message provider.Message) error {
	if err := s.EnsureSessionDir(id); err != nil {
		return err
	}
	data, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal message: %w", err)
	}
	label := messageTypeLabel(message)
	path := filepath.Join(s.messagesDir(id), fmt.Sprintf("%d-%s.json", index, label))
	return writeAtomic(path, data)
}

// LoadMessages reads every message file in a session's messages directory,
// ordered by the numeric index encoded in its filename prefix.
func (s *Store) LoadMessages(id ID) ([]provider.Message, error) {
	entries, err := os.ReadDir(s.messagesDir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read messages dir: %w", err)
	}

	type indexedFile struct {
		index int
		name  string
	}
	files := make([]indexedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		prefix := strings.SplitN(entry.Name(), "-", 2)[0]
		idx, err := strconv.Atoi(prefix)
		if err != nil {
			idx = int(^uint(0) >> 1) // unparsable prefixes sort last
		}
		files = append(files, indexedFile{index: idx, name: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	messages := make([]provider.Message, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(s.messagesDir(id), f.name))
		if err != nil {
			return nil, fmt.Errorf("session: read message file %s: %w", f.name, err)
		}
		var message provider.Message
		if err := json.Unmarshal(data, &message); err != nil {
			return nil, fmt.Errorf("session: unmarshal message file %s: %w", f.name, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// ListSessions enumerates every session id with a manifest in the store,
// the listing tree.go walks to build the fork tree.
func (s *Store) ListSessions() ([]ID, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read base path: %w", err)
	}
	var ids []ID
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := ID(entry.Name())
		if _, err := os.Stat(s.manifestPath(id)); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
