// Package clipboard implements copy, cut, paste and duplicate for graph
// selections.
//
// Copying captures the selected nodes and the edges whose both endpoints are
// selected. Pasting re-inserts them with fresh ids and an offset so the copy
// does not sit on top of the original. Repeated pastes of the same contents
// step further away each time.
package clipboard

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// DefaultOffset is the displacement applied to each paste.
var DefaultOffset = graph.Position{X: 50, Y: 50}

// Contents is what the clipboard holds.
type Contents struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// Empty reports whether the contents hold no nodes.
func (c Contents) Empty() bool { return len(c.Nodes) == 0 }

// Clone returns a deep copy of c.
func (c Contents) Clone() Contents {
	return Contents{Nodes: graph.CloneNodes(c.Nodes), Edges: graph.CloneEdges(c.Edges)}
}

// Option configures a Manager.
type Option func(*Manager)

// WithOffset sets the per-paste displacement.
func WithOffset(p graph.Position) Option {
	return func(m *Manager) { m.offset = p }
}

// WithIDFunc replaces the node id generator. It receives the node type.
func WithIDFunc(fn func(nodeType string) string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newNodeID = fn
		}
	}
}

// WithLogger sets the logger used to report edges dropped on paste.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager holds the clipboard contents of one editing session.
// It is not safe for concurrent use.
type Manager struct {
	contents  Contents
	pastes    int
	offset    graph.Position
	newNodeID func(string) string
	newEdgeID func() string
	logger    *log.Logger
}

// New returns an empty clipboard.
func New(opts ...Option) *Manager {
	m := &Manager{
		offset:    DefaultOffset,
		newNodeID: NodeID,
		newEdgeID: func() string { return "e-" + uuid.NewString() },
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NodeID returns a fresh node id of the form "<type>-<uuid>".
func NodeID(nodeType string) string {
	if nodeType == "" {
		nodeType = graph.DefaultNodeType
	}
	return nodeType + "-" + uuid.NewString()
}

// Contents returns a copy of the clipboard contents.
func (m *Manager) Contents() Contents { return m.contents.Clone() }

// Empty reports whether there is anything to paste.
func (m *Manager) Empty() bool { return m.contents.Empty() }

// Copy stores the selected nodes and the edges internal to the selection.
// Unknown ids are ignored. It reports false, leaving the clipboard as it
// was, when nothing known is selected.
func (m *Manager) Copy(model *graph.Model, nodeIDs []string) bool {
	c := Capture(model, nodeIDs)
	if c.Empty() {
		return false
	}
	m.contents = c
	m.pastes = 0
	return true
}

// Cut copies the selection and then removes the selected nodes with their
// edges from model.
func (m *Manager) Cut(model *graph.Model, nodeIDs []string) bool {
	if !m.Copy(model, nodeIDs) {
		return false
	}
	for _, n := range m.contents.Nodes {
		model.RemoveNode(n.ID)
	}
	return true
}

// Paste inserts the clipboard contents into model with fresh ids, offset
// from the originals by one more step than the previous paste. It returns
// the inserted nodes and edges.
func (m *Manager) Paste(model *graph.Model) ([]graph.Node, []graph.Edge) {
	if m.contents.Empty() {
		return nil, nil
	}
	m.pastes++
	shift := graph.Position{X: m.offset.X * float64(m.pastes), Y: m.offset.Y * float64(m.pastes)}
	return m.insert(model, m.contents, shift)
}

// Duplicate copies the selection into model in one step, offset once,
// without touching the clipboard contents.
func (m *Manager) Duplicate(model *graph.Model, nodeIDs []string) ([]graph.Node, []graph.Edge) {
	c := Capture(model, nodeIDs)
	if c.Empty() {
		return nil, nil
	}
	return m.insert(model, c, m.offset)
}

func (m *Manager) insert(model *graph.Model, c Contents, shift graph.Position) ([]graph.Node, []graph.Edge) {
	nodes, edges := Remap(c, shift, m.newNodeID, m.newEdgeID)

	added := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if err := model.AddNode(n); err != nil {
			m.logger.Debug("paste: node skipped", "id", n.ID, "err", err)
			continue
		}
		added = append(added, n)
	}
	var addedEdges []graph.Edge
	for _, e := range edges {
		stored, err := model.AddEdge(e)
		if err != nil {
			m.logger.Debug("paste: edge dropped", "source", e.Source, "target", e.Target, "err", err)
			continue
		}
		addedEdges = append(addedEdges, stored)
	}
	return added, addedEdges
}

// Capture collects the known nodes among nodeIDs and the edges of model
// whose endpoints are both among them. Node order follows nodeIDs.
func Capture(model *graph.Model, nodeIDs []string) Contents {
	selected := make(map[string]bool, len(nodeIDs))
	var c Contents
	for _, id := range nodeIDs {
		if selected[id] {
			continue
		}
		n, ok := model.Node(id)
		if !ok {
			continue
		}
		selected[id] = true
		c.Nodes = append(c.Nodes, n)
	}
	for _, e := range model.Edges() {
		if selected[e.Source] && selected[e.Target] {
			c.Edges = append(c.Edges, e)
		}
	}
	return c
}

// Remap returns copies of c with fresh node and edge ids, positions shifted
// by shift, and edges rewired to the new node ids. Edges whose endpoints are
// not both in c are dropped.
func Remap(c Contents, shift graph.Position, newNodeID func(string) string, newEdgeID func() string) ([]graph.Node, []graph.Edge) {
	idMap := make(map[string]string, len(c.Nodes))
	nodes := make([]graph.Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		n = n.Clone()
		fresh := newNodeID(n.TypeOrDefault())
		idMap[n.ID] = fresh
		n.ID = fresh
		n.Position = n.Position.Add(shift)
		nodes = append(nodes, n)
	}

	edges := make([]graph.Edge, 0, len(c.Edges))
	for _, e := range c.Edges {
		src, okSrc := idMap[e.Source]
		dst, okDst := idMap[e.Target]
		if !okSrc || !okDst {
			continue
		}
		e.ID = newEdgeID()
		e.Source, e.Target = src, dst
		edges = append(edges, e)
	}
	return nodes, edges
}
