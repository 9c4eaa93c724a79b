package editor

import (
	"encoding/json"
	"errors"
	"strings"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// =============================================================================
// Nodes
// =============================================================================

// AddNode inserts n. An empty id is generated from the type.
func (s *Session) AddNode(n graph.Node) (graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.Node{}, ErrClosed
	}
	if n.ID == "" {
		n.ID = s.newID(n.TypeOrDefault())
	}
	if err := s.model.AddNode(n); err != nil {
		s.warn(err)
		return graph.Node{}, err
	}
	s.touch()
	stored, _ := s.model.Node(n.ID)
	return stored, nil
}

// DropPayload is the palette drag-and-drop transfer payload.
type DropPayload struct {
	Type string         `json:"type"`
	Meta map[string]any `json:"meta"`
}

// TouchDrop is the touch-input variant of a palette drop.
type TouchDrop struct {
	NodeType string         `json:"nodeType"`
	NodeMeta map[string]any `json:"nodeMeta"`
	Position graph.Position `json:"position"`
}

// Drop instantiates a node from a palette transfer payload at pos. The node
// gets a fresh "<type>-<uuid>" id and the defaults of its config schema as
// data. A malformed payload is reported and leaves the graph unchanged.
func (s *Session) Drop(data []byte, pos graph.Position) (graph.Node, error) {
	var p DropPayload
	if err := json.Unmarshal(data, &p); err != nil {
		err = ferrors.Wrap(ferrors.ErrCodeInvalidDrop, err, "malformed drop payload")
		s.warn(err)
		return graph.Node{}, err
	}
	return s.instantiate(p.Type, pos)
}

// HandleTouchDrop instantiates a node from a touch drop event.
func (s *Session) HandleTouchDrop(ev TouchDrop) (graph.Node, error) {
	return s.instantiate(ev.NodeType, ev.Position)
}

func (s *Session) instantiate(typ string, pos graph.Position) (graph.Node, error) {
	typ = strings.TrimSpace(typ)
	if err := ferrors.ValidateNodeType(typ); err != nil {
		err = ferrors.Wrap(ferrors.ErrCodeInvalidDrop, err, "drop: %s", ferrors.UserMessage(err))
		s.warn(err)
		return graph.Node{}, err
	}
	reg := s.validator.Registry()
	def, known := reg.Lookup(typ)
	if !known && reg.Len() > 0 {
		err := ferrors.New(ferrors.ErrCodeInvalidDrop, "unknown node type %q", typ)
		s.warn(err)
		return graph.Node{}, err
	}

	n := graph.Node{Type: typ, Position: pos, Data: graph.Data(def.Schema().Defaults())}
	added, err := s.AddNode(n)
	if err != nil {
		return graph.Node{}, err
	}
	s.logger.Debug("node dropped", "id", added.ID, "type", typ)
	return added, nil
}

// RemoveNodes deletes the given nodes and their incident edges. Unknown ids
// are ignored. It returns the number of removed nodes.
func (s *Session) RemoveNodes(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.removeNodesLocked(ids)
}

func (s *Session) removeNodesLocked(ids []string) int {
	removed := 0
	for _, id := range ids {
		if edges := s.model.RemoveNode(id); edges != nil {
			removed++
		}
	}
	if removed > 0 {
		s.pruneSelectionLocked()
		s.touch()
	}
	return removed
}

// DeleteSelection removes the selected nodes with their edges and the
// selected edges. It reports whether anything was removed.
func (s *Session) DeleteSelection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	changed := false
	for id := range s.selectedEdges {
		if s.model.RemoveEdge(id) {
			changed = true
		}
	}
	if s.removeNodesLocked(s.selectionLocked()) > 0 {
		changed = true
	} else if changed {
		s.pruneSelectionLocked()
		s.touch()
	}
	return changed
}

// UpdateNodeData merges patch into the node's data after checking it
// against the node type's config schema.
func (s *Session) UpdateNodeData(id string, patch graph.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	typ, ok := s.model.NodeType(id)
	if !ok {
		err := ferrors.New(ferrors.ErrCodeNotFound, "node %q not found", id)
		s.warn(err)
		return err
	}
	def, _ := s.validator.Registry().Lookup(typ)
	if err := def.Schema().CheckPatch(patch); err != nil {
		err = ferrors.Wrap(ferrors.ErrCodeInvalidNode, err, "node %s", id)
		s.warn(err)
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	s.model.UpdateNodeData(id, patch)
	s.touch()
	return nil
}

// =============================================================================
// Moving and Dragging
// =============================================================================

// Move sets a node's position. Outside a drag each move is its own edit.
func (s *Session) Move(id string, p graph.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.model.MoveNode(id, p) {
		return false
	}
	s.touch()
	return true
}

// DragStart begins a drag gesture. Moves until DragEnd form one history
// entry.
func (s *Session) DragStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.dragging {
		return
	}
	s.dragging = true
	s.history.BeginDrag()
}

// DragMove moves the given nodes by delta during a drag.
func (s *Session) DragMove(delta graph.Position, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	moved := false
	for _, id := range ids {
		n, ok := s.model.Node(id)
		if ok && s.model.MoveNode(id, n.Position.Add(delta)) {
			moved = true
		}
	}
	if moved {
		s.rev++
		if !s.dragging {
			s.history.Touch()
		}
	}
}

// DragEnd finishes a drag and records it.
func (s *Session) DragEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dragging {
		return
	}
	s.dragging = false
	s.history.EndDrag()
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// =============================================================================
// Edges
// =============================================================================

// Connect adds an edge after validating it. A refused connection is
// reported as a warning and returned; the graph is unchanged.
func (s *Session) Connect(e graph.Edge) (graph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.Edge{}, ErrClosed
	}
	stored, err := s.model.AddEdge(e)
	if err != nil {
		var rej *graph.Rejection
		if errors.As(err, &rej) {
			observability.Editor().OnConnectRejected(string(rej.Reason), e.Source, e.Target)
			s.logger.Debug("connection rejected", "reason", rej.Reason, "source", e.Source, "target", e.Target)
		}
		s.warn(err)
		return graph.Edge{}, err
	}
	s.touch()
	return stored, nil
}

// Disconnect removes edges by id and returns how many existed.
func (s *Session) Disconnect(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	removed := 0
	for _, id := range ids {
		if s.model.RemoveEdge(id) {
			removed++
		}
	}
	if removed > 0 {
		s.pruneSelectionLocked()
		s.touch()
	}
	return removed
}
