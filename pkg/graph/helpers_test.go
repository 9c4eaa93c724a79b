package graph

import (
	"testing"

	"github.com/matzehuels/flowbuilder/pkg/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(
		&registry.NodeDef{
			Type:    "text.source",
			Outputs: map[string]registry.OutputPort{"out": {Type: "text"}},
		},
		&registry.NodeDef{
			Type:    "llm.prompt",
			Inputs:  map[string]registry.InputPort{"in": {Type: "text", Required: true}},
			Outputs: map[string]registry.OutputPort{"out": {Type: "text"}},
		},
		&registry.NodeDef{
			Type:   "image.render",
			Inputs: map[string]registry.InputPort{"in": {Type: "image"}},
		},
		&registry.NodeDef{
			Type:    "any.sink",
			Inputs:  map[string]registry.InputPort{"in": {Type: "any"}, "meta": {Type: "json"}},
			Outputs: map[string]registry.OutputPort{"out": {Type: "any"}},
		},
		&registry.NodeDef{
			Type:          "telegram.webhook",
			Outputs:       map[string]registry.OutputPort{"envelope": {Type: "message"}},
			DefaultOutput: "envelope",
		},
		&registry.NodeDef{
			Type:   "telegram.response",
			Inputs: map[string]registry.InputPort{"payload": {Type: "message,text"}},
		},
	)
}

func newTestModel(t *testing.T, nodes ...Node) *Model {
	t.Helper()
	m := NewModel(NewValidator(testRegistry(t)))
	for _, n := range nodes {
		if err := m.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	return m
}

func node(id, typ string) Node {
	return Node{ID: id, Type: typ, Data: Data{}}
}
