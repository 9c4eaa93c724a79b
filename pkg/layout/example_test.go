package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/layout"
)

func ExampleAutoLayout() {
	nodes := []graph.Node{
		{ID: "fetch", Type: "http.request"},
		{ID: "parse", Type: "json.parse"},
		{ID: "store", Type: "db.write"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "fetch", Target: "parse"},
		{ID: "e2", Source: "parse", Target: "store"},
	}

	opts := layout.DefaultOptions()
	opts.Direction = layout.LeftRight
	out, err := layout.AutoLayout(context.Background(), nodes, edges, opts)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, n := range out {
		fmt.Printf("%s at (%g, %g)\n", n.ID, n.Position.X, n.Position.Y)
	}
	// Output:
	// fetch at (0, 0)
	// parse at (280, 0)
	// store at (560, 0)
}

func ExampleDistributeHorizontally() {
	nodes := []graph.Node{
		{ID: "a", Position: graph.Position{X: 0}},
		{ID: "b", Position: graph.Position{X: 10}},
		{ID: "c", Position: graph.Position{X: 300}},
	}
	out, _ := layout.DistributeHorizontally(nodes)
	for _, n := range out {
		fmt.Println(n.ID, n.Position.X)
	}
	// Output:
	// a 0
	// b 150
	// c 300
}
