package editor

import (
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// Copy puts the selected nodes and the edges between them on the
// clipboard. It reports false when nothing is selected.
func (s *Session) Copy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selectionLocked()
	if s.closed || !s.clip.Copy(s.model, sel) {
		return false
	}
	observability.Editor().OnClipboard("copy", len(sel))
	return true
}

// Cut copies the selection and deletes it.
func (s *Session) Cut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selectionLocked()
	if s.closed || !s.clip.Cut(s.model, sel) {
		return false
	}
	s.pruneSelectionLocked()
	s.touch()
	observability.Editor().OnClipboard("cut", len(sel))
	return true
}

// Paste inserts the clipboard contents and selects the pasted nodes.
// It returns nil when the clipboard is empty.
func (s *Session) Paste() []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	nodes, _ := s.clip.Paste(s.model)
	return s.insertedLocked("paste", nodes)
}

// Duplicate copies the selection next to itself without changing the
// clipboard, and selects the copies.
func (s *Session) Duplicate() []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	nodes, _ := s.clip.Duplicate(s.model, s.selectionLocked())
	return s.insertedLocked("duplicate", nodes)
}

func (s *Session) insertedLocked(op string, nodes []graph.Node) []graph.Node {
	if len(nodes) == 0 {
		return nil
	}
	clear(s.selected)
	clear(s.selectedEdges)
	for _, n := range nodes {
		s.selected[n.ID] = true
	}
	s.touch()
	observability.Editor().OnClipboard(op, len(nodes))
	return nodes
}

// CanPaste reports whether the clipboard holds anything.
func (s *Session) CanPaste() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.clip.Empty()
}
