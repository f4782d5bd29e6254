package session

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TreeNode is one session's position in the rendered fork tree, carrying its
// metadata and children alongside its persisted Node.
type TreeNode struct {
	ID           ID
	Metadata     Metadata
	Node         Node
	Children     []*TreeNode
	MessageCount int
}

// RenderOptions narrows a tree render to sessions matching a date window
// and/or tag set, and optionally marks one node with a highlight arrow.
type RenderOptions struct {
	HighlightID *ID
	AfterDate   *time.Time
	BeforeDate  *time.Time
	Tags        []string
}

// BuildSessionTree loads every session in store and nests them into a
// forest rooted at each session with no parent.
func BuildSessionTree(store *Store) ([]*TreeNode, error) {
	ids, err := store.ListSessions()
	if err != nil {
		return nil, err
	}

	byID := make(map[ID]*TreeNode, len(ids))
	for _, id := range ids {
		metadata, err := store.LoadManifest(id)
		if err != nil {
			continue
		}
		node, err := store.LoadTree(id)
		if err != nil {
			node = NewRootNode(id)
		}
		messages, err := store.LoadMessages(id)
		count := 0
		if err == nil {
			count = len(messages)
		}
		byID[id] = &TreeNode{ID: id, Metadata: metadata, Node: node, MessageCount: count}
	}

	var roots []*TreeNode
	for _, node := range byID {
		if node.Node.IsRoot() {
			roots = append(roots, node)
			continue
		}
	}
	for _, node := range byID {
		if node.Node.IsRoot() {
			continue
		}
		parent, ok := byID[*node.Node.ParentID]
		if !ok {
			// Parent no longer present on disk; treat as an orphaned root
			// rather than dropping the session from the forest.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortTreeNodes(roots)
	for _, node := range byID {
		sortTreeNodes(node.Children)
	}
	return roots, nil
}

func sortTreeNodes(nodes []*TreeNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Metadata.Created.Before(nodes[j].Metadata.Created)
	})
}

// RenderTree draws an ASCII connector tree of nodes, applying opts' date and
// tag filters and marking opts.HighlightID with an arrow.
func RenderTree(nodes []*TreeNode, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString("Session Tree\n")
	b.WriteString("────────────\n\n")
	for i, node := range nodes {
		renderNode(&b, node, opts, "", i == len(nodes)-1)
	}
	return b.String()
}

func renderNode(b *strings.Builder, node *TreeNode, opts RenderOptions, prefix string, isLast bool) {
	if !passesFilters(node, opts) {
		return
	}

	connector := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	highlight := ""
	if opts.HighlightID != nil && *opts.HighlightID == node.ID {
		highlight = "➤ "
	}

	title := node.Metadata.Title
	if title == "" {
		title = "(untitled)"
	}

	fmt.Fprintf(b, "%s%s%s%s │ %s │ %d msgs │ %s\n",
		prefix, connector, highlight, node.ID.Prefix(), title, node.MessageCount,
		node.Metadata.LastActive.Format("2006-01-02 15:04"))

	for i, child := range node.Children {
		renderNode(b, child, opts, childPrefix, i == len(node.Children)-1)
	}
}

func passesFilters(node *TreeNode, opts RenderOptions) bool {
	if opts.AfterDate != nil && node.Metadata.LastActive.Before(*opts.AfterDate) {
		return false
	}
	if opts.BeforeDate != nil && node.Metadata.LastActive.After(*opts.BeforeDate) {
		return false
	}
	for _, tag := range opts.Tags {
		if !node.Metadata.HasTag(tag) {
			return false
		}
	}
	return true
}

// FindInTree searches nodes depth-first for targetID.
func FindInTree(nodes []*TreeNode, targetID ID) *TreeNode {
	for _, node := range nodes {
		if node.ID == targetID {
			return node
		}
		if found := FindInTree(node.Children, targetID); found != nil {
			return found
		}
	}
	return nil
}

// Fork branches a new session from sourceID's current message history: it
// shallow-copies the source's messages into a new session directory and
// links the new session as sourceID's child in the fork tree. There is no
// single-function reference for this operation; it is assembled from the
// same storage and tree primitives the reference implementation uses to
// build and render sessions.
func Fork(store *Store, sourceID ID) (ID, error) {
	sourceMessages, err := store.LoadMessages(sourceID)
	if err != nil {
		return "", fmt.Errorf("session: fork: load source messages: %w", err)
	}
	sourceMetadata, err := store.LoadManifest(sourceID)
	if err != nil {
		return "", fmt.Errorf("session: fork: load source manifest: %w", err)
	}
	sourceNode, err := store.LoadTree(sourceID)
	if err != nil {
		sourceNode = NewRootNode(sourceID)
	}

	childID := NewID()
	childMetadata := NewMetadata()
	childMetadata.Title = sourceMetadata.Title
	childMetadata.Tags = append([]string(nil), sourceMetadata.Tags...)

	if err := store.SaveManifest(childID, childMetadata); err != nil {
		return "", fmt.Errorf("session: fork: save child manifest: %w", err)
	}
	for i, m := range sourceMessages {
		if err := store.SaveMessage(childID, i, m); err != nil {
			return "", fmt.Errorf("session: fork: save child message %d: %w", i, err)
		}
	}

	childNode := NewChildNode(childID, sourceID)
	if err := store.SaveTree(childNode); err != nil {
		return "", fmt.Errorf("session: fork: save child tree node: %w", err)
	}

	sourceNode.AddChild(childID)
	if err := store.SaveTree(sourceNode); err != nil {
		return "", fmt.Errorf("session: fork: update source tree node: %w", err)
	}

	return childID, nil
}
