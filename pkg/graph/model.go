package graph

import (
	"slices"

	"github.com/google/uuid"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

// Model is the authoritative in-memory graph of an editing session.
//
// Every edge added through [Model.AddEdge] has passed the [Validator].
// Edge endpoints always refer to nodes present in the model: removing a
// node removes its incident edges in the same operation.
//
// The zero value is not usable; create models with [NewModel].
// Model is not safe for concurrent use without external synchronization.
type Model struct {
	nodes     map[string]*Node
	order     []string // node ids in insertion order
	edges     []Edge
	edgeIDs   map[string]struct{}
	validator *Validator
	newEdgeID func() string
}

// NewModel returns an empty model that validates connections with v.
// A nil validator means a permissive validator without a registry.
func NewModel(v *Validator) *Model {
	if v == nil {
		v = NewValidator(nil)
	}
	return &Model{
		nodes:     make(map[string]*Node),
		edgeIDs:   make(map[string]struct{}),
		validator: v,
		newEdgeID: func() string { return "e-" + uuid.NewString() },
	}
}

// Validator returns the validator that guards [Model.AddEdge].
func (m *Model) Validator() *Validator { return m.validator }

// Len returns the number of nodes and edges.
func (m *Model) Len() (nodes, edges int) { return len(m.order), len(m.edges) }

// Empty reports whether the model has no nodes and no edges.
func (m *Model) Empty() bool { return len(m.order) == 0 && len(m.edges) == 0 }

// NodeType implements [NodeTypes].
func (m *Model) NodeType(id string) (string, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return "", false
	}
	return n.TypeOrDefault(), true
}

// Node returns a copy of the node with the given id.
func (m *Model) Node(id string) (Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// HasNode reports whether a node with the given id exists.
func (m *Model) HasNode(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (m *Model) Nodes() []Node {
	out := make([]Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id].Clone())
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (m *Model) Edges() []Edge {
	return CloneEdges(m.edges)
}

// Edge returns the edge with the given id.
func (m *Model) Edge(id string) (Edge, bool) {
	if i := m.edgeIndex(id); i >= 0 {
		return m.edges[i], true
	}
	return Edge{}, false
}

// =============================================================================
// Node Mutations
// =============================================================================

// AddNode inserts n. The id must be valid and unused. An empty type
// becomes [DefaultNodeType] and nil data becomes an empty map.
func (m *Model) AddNode(n Node) error {
	if err := ferrors.ValidateNodeID(n.ID); err != nil {
		return err
	}
	if _, exists := m.nodes[n.ID]; exists {
		return ferrors.New(ferrors.ErrCodeDuplicateID, "node %q already exists", n.ID)
	}
	n = n.Clone()
	n.Type = n.TypeOrDefault()
	n.Position = n.Position.Rounded()
	m.nodes[n.ID] = &n
	m.order = append(m.order, n.ID)
	return nil
}

// RemoveNode deletes the node and every edge touching it. It returns the
// removed edges, or nil if the node does not exist.
func (m *Model) RemoveNode(id string) []Edge {
	if _, ok := m.nodes[id]; !ok {
		return nil
	}
	delete(m.nodes, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })

	var removed []Edge
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			delete(m.edgeIDs, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	clear(m.edges[len(kept):])
	m.edges = kept
	if removed == nil {
		removed = []Edge{}
	}
	return removed
}

// UpdateNodeData merges patch into the node's data. Keys in patch replace
// existing keys; other keys are kept. It reports whether the node exists.
func (m *Model) UpdateNodeData(id string, patch Data) bool {
	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	if n.Data == nil {
		n.Data = Data{}
	}
	for k, v := range patch {
		n.Data[k] = cloneValue(v)
	}
	return true
}

// MoveNode sets the node's position. It reports whether the node exists.
func (m *Model) MoveNode(id string, p Position) bool {
	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	n.Position = p.Rounded()
	return true
}

// =============================================================================
// Edge Mutations
// =============================================================================

// AddEdge validates and inserts e. Empty handles are resolved to the node
// type defaults and an empty id is generated. The stored edge is returned.
//
// A connection refused by the validator returns a *[Rejection]; the model
// is left unchanged. Structural problems (unknown endpoints, duplicate ids)
// return an *[ferrors.Error].
func (m *Model) AddEdge(e Edge) (Edge, error) {
	if _, ok := m.nodes[e.Source]; !ok {
		return Edge{}, ferrors.New(ferrors.ErrCodeNotFound, "source node %q not found", e.Source)
	}
	if _, ok := m.nodes[e.Target]; !ok {
		return Edge{}, ferrors.New(ferrors.ErrCodeNotFound, "target node %q not found", e.Target)
	}
	if e.ID != "" {
		if _, exists := m.edgeIDs[e.ID]; exists {
			return Edge{}, ferrors.New(ferrors.ErrCodeDuplicateID, "edge %q already exists", e.ID)
		}
	}

	resolved, rej := m.validator.Check(e, m, m.edges)
	if rej != nil {
		return Edge{}, rej
	}
	if resolved.ID == "" {
		resolved.ID = m.uniqueEdgeID()
	}
	m.edges = append(m.edges, resolved)
	m.edgeIDs[resolved.ID] = struct{}{}
	return resolved, nil
}

// RemoveEdge deletes the edge with the given id and reports whether it
// existed.
func (m *Model) RemoveEdge(id string) bool {
	i := m.edgeIndex(id)
	if i < 0 {
		return false
	}
	m.edges = slices.Delete(m.edges, i, i+1)
	delete(m.edgeIDs, id)
	return true
}

// =============================================================================
// Bulk Replacement
// =============================================================================

// ReplaceAll swaps the whole graph for the given nodes and edges. It is used
// to hydrate a loaded graph and to apply history entries, so it bypasses
// the connection checks of [Model.AddEdge]. It still keeps the model
// consistent: nodes with invalid or duplicate ids are dropped, edges with
// missing endpoints or duplicate ids are dropped, empty edge ids are
// generated and empty handles are resolved. It returns the number of
// dropped items.
func (m *Model) ReplaceAll(nodes []Node, edges []Edge) int {
	dropped := 0
	m.nodes = make(map[string]*Node, len(nodes))
	m.order = make([]string, 0, len(nodes))
	m.edges = make([]Edge, 0, len(edges))
	m.edgeIDs = make(map[string]struct{}, len(edges))

	for _, n := range nodes {
		if err := m.AddNode(n); err != nil {
			dropped++
		}
	}
	for _, e := range edges {
		if !m.HasNode(e.Source) || !m.HasNode(e.Target) {
			dropped++
			continue
		}
		if e.ID == "" {
			e.ID = m.uniqueEdgeID()
		}
		if _, exists := m.edgeIDs[e.ID]; exists {
			dropped++
			continue
		}
		e = m.validator.Resolve(e, m)
		m.edges = append(m.edges, e)
		m.edgeIDs[e.ID] = struct{}{}
	}
	return dropped
}

// Clear removes all nodes and edges.
func (m *Model) Clear() {
	m.ReplaceAll(nil, nil)
}

func (m *Model) edgeIndex(id string) int {
	if _, ok := m.edgeIDs[id]; !ok {
		return -1
	}
	return slices.IndexFunc(m.edges, func(e Edge) bool { return e.ID == id })
}

func (m *Model) uniqueEdgeID() string {
	for {
		id := m.newEdgeID()
		if _, exists := m.edgeIDs[id]; !exists {
			return id
		}
	}
}
