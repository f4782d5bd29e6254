// Package session implements persistent session storage (§3, §6.3):
// manifest/tree/message directory layout with atomic write-temp-rename,
// debounced autosave with bounded retry, and session forking with ASCII
// tree rendering (§12).
package session

import (
	"time"

	"github.com/google/uuid"
)

// ID identifies a session, persisted as its on-disk directory name.
type ID string

// NewID generates a fresh session id.
func NewID() ID {
	return ID(uuid.New().String())
}

// Prefix returns a short human-friendly form of the id for tree rendering.
func (id ID) Prefix() string {
	s := string(id)
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

// Metadata carries the bookkeeping fields stored in a session's
// manifest.json.
type Metadata struct {
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	LastActive  time.Time `json:"last_active"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// NewMetadata returns metadata stamped with the current time.
func NewMetadata() Metadata {
	now := time.Now()
	return Metadata{Created: now, Modified: now, LastActive: now}
}

// AddTag appends tag if not already present.
func (m *Metadata) AddTag(tag string) {
	for _, existing := range m.Tags {
		if existing == tag {
			return
		}
	}
	m.Tags = append(m.Tags, tag)
}

// HasTag reports whether tag is present.
func (m Metadata) HasTag(tag string) bool {
	for _, existing := range m.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Node is a session's position in the fork tree, persisted as tree.json.
type Node struct {
	ID       ID   `json:"id"`
	ParentID *ID  `json:"parent_id,omitempty"`
	ChildIDs []ID `json:"child_ids,omitempty"`
}

// NewRootNode builds a node with no parent.
func NewRootNode(id ID) Node {
	return Node{ID: id}
}

// NewChildNode builds a node forked from parent.
func NewChildNode(id, parent ID) Node {
	return Node{ID: id, ParentID: &parent}
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool { return n.ParentID == nil }

// AddChild appends a child id if not already present.
func (n *Node) AddChild(id ID) {
	for _, existing := range n.ChildIDs {
		if existing == id {
			return
		}
	}
	n.ChildIDs = append(n.ChildIDs, id)
}
