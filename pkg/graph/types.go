package graph

import "math"

// DefaultNodeType is used for nodes that arrive without a type.
const DefaultNodeType = "custom"

// =============================================================================
// Node - Pipeline Step
// =============================================================================

// Position is a canvas coordinate. X grows rightward and Y grows downward.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Rounded returns p with both coordinates rounded to three decimals.
// Non-finite coordinates become 0.
func (p Position) Rounded() Position {
	return Position{X: roundCoordinate(p.X), Y: roundCoordinate(p.Y)}
}

// Data is the free-form configuration of a node, shaped by its type's
// config schema. Values are JSON-compatible.
type Data map[string]any

// Clone returns a deep copy of d. Nested maps and slices are copied; other
// values are shared.
func (d Data) Clone() Data {
	if d == nil {
		return Data{}
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// Node is a step in the pipeline graph.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Type     string   `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	Data     Data     `json:"data" bson:"data"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// TypeOrDefault returns the node type, or [DefaultNodeType] when empty.
func (n Node) TypeOrDefault() string {
	if n.Type == "" {
		return DefaultNodeType
	}
	return n.Type
}

// =============================================================================
// Edge - Port Connection
// =============================================================================

// Edge connects an output handle of one node to an input handle of another.
// An empty handle means "the default handle for that node type".
type Edge struct {
	ID           string `json:"id" bson:"id"`
	Source       string `json:"source" bson:"source"`
	SourceHandle string `json:"sourceHandle" bson:"sourceHandle"`
	Target       string `json:"target" bson:"target"`
	TargetHandle string `json:"targetHandle" bson:"targetHandle"`
}

// CloneNodes returns deep copies of nodes.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges returns a copy of edges.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// NodeTypes resolves node ids to node types.
type NodeTypes interface {
	NodeType(id string) (string, bool)
}

// TypeIndex is a [NodeTypes] built from a node slice.
type TypeIndex map[string]string

// IndexTypes indexes the types of nodes by id. Nodes with an empty id are
// skipped and empty types become [DefaultNodeType].
func IndexTypes(nodes []Node) TypeIndex {
	idx := make(TypeIndex, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		idx[n.ID] = n.TypeOrDefault()
	}
	return idx
}

// NodeType implements [NodeTypes].
func (t TypeIndex) NodeType(id string) (string, bool) {
	typ, ok := t[id]
	return typ, ok
}

// =============================================================================
// Internal Helpers
// =============================================================================

func roundCoordinate(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case Data:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
