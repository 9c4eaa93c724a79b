package clipboard

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/registry"
)

func newModel(t *testing.T) *graph.Model {
	t.Helper()
	reg := registry.New(
		&registry.NodeDef{Type: "text.source", Outputs: map[string]registry.OutputPort{"out": {Type: "text"}}},
		&registry.NodeDef{Type: "llm.prompt", Inputs: map[string]registry.InputPort{"in": {Type: "text"}}},
	)
	m := graph.NewModel(graph.NewValidator(reg))
	for _, n := range []graph.Node{
		{ID: "a", Type: "text.source", Position: graph.Position{X: 0, Y: 0}, Data: graph.Data{"text": "hi"}},
		{ID: "b", Type: "llm.prompt", Position: graph.Position{X: 0, Y: 100}},
		{ID: "c", Type: "llm.prompt", Position: graph.Position{X: 200, Y: 100}},
	} {
		if err := m.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.AddEdge(graph.Edge{ID: "ab", Source: "a", Target: "b"}); err != nil {
		t.Fatal(err)
	}
	return m
}

func counterIDs() func(string) string {
	n := 0
	return func(typ string) string {
		n++
		return fmt.Sprintf("%s-%d", typ, n)
	}
}

func TestCopyPaste(t *testing.T) {
	m := newModel(t)
	cb := New(WithIDFunc(counterIDs()))

	if !cb.Copy(m, []string{"a", "b", "ghost"}) {
		t.Fatal("Copy returned false")
	}
	if got := cb.Contents(); len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("Contents = %d nodes, %d edges, want 2/1", len(got.Nodes), len(got.Edges))
	}

	nodes, edges := cb.Paste(m)
	if len(nodes) != 2 || len(edges) != 1 {
		t.Fatalf("Paste = %d nodes, %d edges, want 2/1", len(nodes), len(edges))
	}
	if nodes[0].ID != "text.source-1" || nodes[1].ID != "llm.prompt-2" {
		t.Errorf("ids = %s, %s", nodes[0].ID, nodes[1].ID)
	}
	if nodes[0].Position != (graph.Position{X: 50, Y: 50}) {
		t.Errorf("first paste position = %v, want {50 50}", nodes[0].Position)
	}
	if edges[0].Source != nodes[0].ID || edges[0].Target != nodes[1].ID {
		t.Errorf("edge not rewired: %+v", edges[0])
	}
	if nodes[0].Data["text"] != "hi" {
		t.Error("data should be carried over")
	}

	again, _ := cb.Paste(m)
	if again[0].Position != (graph.Position{X: 100, Y: 100}) {
		t.Errorf("second paste position = %v, want {100 100}", again[0].Position)
	}
	if again[0].ID == nodes[0].ID {
		t.Error("second paste reused ids")
	}

	if n, e := m.Len(); n != 7 || e != 3 {
		t.Errorf("model = %d nodes, %d edges, want 7/3", n, e)
	}
}

func TestCopyExcludesBoundaryEdges(t *testing.T) {
	m := newModel(t)
	cb := New()
	cb.Copy(m, []string{"b", "c"})
	if got := cb.Contents(); len(got.Edges) != 0 {
		t.Errorf("edge a->b should not be copied: %v", got.Edges)
	}
}

func TestCopyNothing(t *testing.T) {
	m := newModel(t)
	cb := New()
	if cb.Copy(m, nil) || cb.Copy(m, []string{"ghost"}) {
		t.Error("empty selection should not copy")
	}
	if !cb.Empty() {
		t.Error("clipboard should stay empty")
	}
	if nodes, edges := cb.Paste(m); nodes != nil || edges != nil {
		t.Error("paste of empty clipboard should do nothing")
	}
}

func TestCut(t *testing.T) {
	m := newModel(t)
	cb := New()
	if !cb.Cut(m, []string{"a", "b"}) {
		t.Fatal("Cut returned false")
	}
	if m.HasNode("a") || m.HasNode("b") {
		t.Error("cut nodes should be removed")
	}
	if _, e := m.Len(); e != 0 {
		t.Errorf("cut should remove incident edges, %d left", e)
	}

	nodes, edges := cb.Paste(m)
	if len(nodes) != 2 || len(edges) != 1 {
		t.Errorf("paste after cut = %d/%d, want 2/1", len(nodes), len(edges))
	}
}

func TestDuplicate(t *testing.T) {
	m := newModel(t)
	cb := New()
	cb.Copy(m, []string{"c"})

	nodes, edges := cb.Duplicate(m, []string{"a", "b"})
	if len(nodes) != 2 || len(edges) != 1 {
		t.Fatalf("Duplicate = %d/%d, want 2/1", len(nodes), len(edges))
	}
	if !strings.HasPrefix(nodes[0].ID, "text.source-") {
		t.Errorf("id = %s, want text.source-<uuid>", nodes[0].ID)
	}
	if got := cb.Contents(); len(got.Nodes) != 1 || got.Nodes[0].ID != "c" {
		t.Error("duplicate must not replace the clipboard")
	}
}

func TestRemapDropsForeignEdges(t *testing.T) {
	c := Contents{
		Nodes: []graph.Node{{ID: "x", Type: "t"}},
		Edges: []graph.Edge{{ID: "e", Source: "x", Target: "outside"}},
	}
	nodes, edges := Remap(c, graph.Position{X: 1, Y: 2}, counterIDs(), func() string { return "new" })
	if len(nodes) != 1 || len(edges) != 0 {
		t.Errorf("Remap = %d/%d, want 1/0", len(nodes), len(edges))
	}
	if nodes[0].Position != (graph.Position{X: 1, Y: 2}) {
		t.Errorf("Position = %v", nodes[0].Position)
	}
	if c.Nodes[0].ID != "x" {
		t.Error("Remap must not modify its input")
	}
}
