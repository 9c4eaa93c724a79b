package graph_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/registry"
)

func Example() {
	reg := registry.New(
		&registry.NodeDef{
			Type:    "text.source",
			Outputs: map[string]registry.OutputPort{"out": {Type: "text"}},
		},
		&registry.NodeDef{
			Type:   "image.render",
			Inputs: map[string]registry.InputPort{"in": {Type: "image"}},
		},
	)
	m := graph.NewModel(graph.NewValidator(reg))
	_ = m.AddNode(graph.Node{ID: "src", Type: "text.source"})
	_ = m.AddNode(graph.Node{ID: "img", Type: "image.render"})

	_, err := m.AddEdge(graph.Edge{Source: "src", Target: "img"})
	var rej *graph.Rejection
	if errors.As(err, &rej) {
		fmt.Println("rejected:", rej.Reason)
	}
	// Output:
	// rejected: incompatible-ports
}

func ExampleSerializer_Serialize() {
	s := graph.NewSerializer(nil)
	snap := s.Serialize(
		[]graph.Node{{ID: "b", Position: graph.Position{X: 10.00004}}, {ID: "a"}},
		[]graph.Edge{{ID: "e1", Source: "a", Target: "b"}},
		"demo", "",
	)
	fmt.Println(snap)
	// Output:
	// {"name":"demo","description":"","nodes":[{"id":"a","type":"custom","position":{"x":0,"y":0},"data":{}},{"id":"b","type":"custom","position":{"x":10,"y":0},"data":{}}],"edges":[{"id":"e1","source":"a","sourceHandle":"out","target":"b","targetHandle":"in"}]}
}
