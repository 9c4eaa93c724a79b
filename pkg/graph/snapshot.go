package graph

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// =============================================================================
// Snapshot - Canonical Graph Serialization
// =============================================================================

// Snapshot is the canonical, order-independent form of a graph. Two graphs
// that differ only in node or edge order, or in sub-millimetre position
// noise, produce byte-identical snapshots.
type Snapshot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// Serializer normalizes graphs into snapshots and save payloads.
//
// Normalization:
//   - nodes and edges are sorted by id
//   - positions are rounded to three decimals; non-finite values become 0
//   - empty node types become [DefaultNodeType] and nil data becomes {}
//   - empty edge handles are resolved to the node type defaults
//   - edges without an id are named "edge-<index>" by input position
type Serializer struct {
	validator *Validator
}

// NewSerializer returns a serializer that resolves handles with v.
func NewSerializer(v *Validator) *Serializer {
	if v == nil {
		v = NewValidator(nil)
	}
	return &Serializer{validator: v}
}

// Normalize returns sorted, normalized copies of nodes and edges.
func (s *Serializer) Normalize(nodes []Node, edges []Edge) ([]Node, []Edge) {
	types := IndexTypes(nodes)

	outNodes := make([]Node, len(nodes))
	for i, n := range nodes {
		outNodes[i] = Node{
			ID:       n.ID,
			Type:     n.TypeOrDefault(),
			Position: n.Position.Rounded(),
			Data:     n.Data.Clone(),
		}
	}
	slices.SortStableFunc(outNodes, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })

	outEdges := make([]Edge, len(edges))
	for i, e := range edges {
		e = s.validator.Resolve(e, types)
		if e.ID == "" {
			e.ID = fmt.Sprintf("edge-%d", i)
		}
		outEdges[i] = e
	}
	slices.SortStableFunc(outEdges, func(a, b Edge) int { return strings.Compare(a.ID, b.ID) })

	return outNodes, outEdges
}

// Snapshot builds the canonical snapshot of a graph.
func (s *Serializer) Snapshot(nodes []Node, edges []Edge, name, description string) Snapshot {
	n, e := s.Normalize(nodes, edges)
	return Snapshot{Name: name, Description: description, Nodes: n, Edges: e}
}

// Serialize returns the canonical snapshot string of a graph, suitable for
// equality comparison.
func (s *Serializer) Serialize(nodes []Node, edges []Edge, name, description string) string {
	return s.Snapshot(nodes, edges, name, description).String()
}

// String encodes the snapshot as compact JSON. Map keys inside node data
// are emitted in sorted order.
func (snap Snapshot) String() string {
	data, err := json.Marshal(snap)
	if err != nil {
		// Node data that cannot be encoded still needs a stable identity.
		return fmt.Sprintf("%#v", snap)
	}
	return string(data)
}

// Deserialize decodes a snapshot string produced by [Serializer.Serialize].
func Deserialize(data string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range snap.Nodes {
		if snap.Nodes[i].Data == nil {
			snap.Nodes[i].Data = Data{}
		}
	}
	return snap, nil
}

// =============================================================================
// Payload - Save Format
// =============================================================================

// DefaultGraphName is used when a graph is saved without a name.
const DefaultGraphName = "Untitled graph"

// Payload is the document sent to storage when a graph is saved.
type Payload struct {
	Name        string  `json:"name" bson:"name"`
	Description *string `json:"description" bson:"description"`
	IsActive    bool    `json:"is_active" bson:"is_active"`
	Nodes       []Node  `json:"nodes" bson:"nodes"`
	Edges       []Edge  `json:"edges" bson:"edges"`
}

// Payload builds the save payload of a graph. An empty name becomes
// [DefaultGraphName] and an empty description becomes null.
func (s *Serializer) Payload(nodes []Node, edges []Edge, name, description string) Payload {
	n, e := s.Normalize(nodes, edges)
	p := Payload{
		Name:     cmp.Or(name, DefaultGraphName),
		IsActive: true,
		Nodes:    n,
		Edges:    e,
	}
	if description != "" {
		p.Description = &description
	}
	return p
}

// DescriptionText returns the description, or "" when it is null.
func (p Payload) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// Graph returns the nodes and edges of the payload ready for
// [Model.ReplaceAll]. Nil data becomes an empty map and edges without an
// id are named "edge-<index>".
func (p Payload) Graph() ([]Node, []Edge) {
	nodes := CloneNodes(p.Nodes)
	for i := range nodes {
		if nodes[i].Data == nil {
			nodes[i].Data = Data{}
		}
	}
	edges := CloneEdges(p.Edges)
	for i := range edges {
		if edges[i].ID == "" {
			edges[i].ID = fmt.Sprintf("edge-%d", i)
		}
	}
	return nodes, edges
}
