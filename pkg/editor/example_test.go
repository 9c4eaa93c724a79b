package editor_test

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowbuilder/pkg/editor"
	"github.com/matzehuels/flowbuilder/pkg/graph"
)

func ExampleSession() {
	s := editor.New(editor.Options{Logger: log.New(io.Discard)})
	defer s.Close()

	s.AddNode(graph.Node{ID: "fetch", Type: "http.request"})
	s.AddNode(graph.Node{ID: "parse", Type: "json.parse"})
	s.Connect(graph.Edge{Source: "fetch", Target: "parse"})
	s.Flush()

	s.RemoveNodes("fetch")
	fmt.Println(len(s.Nodes()), "nodes,", len(s.Edges()), "edges")

	s.Undo()
	fmt.Println(len(s.Nodes()), "nodes,", len(s.Edges()), "edges")
	// Output:
	// 1 nodes, 0 edges
	// 2 nodes, 1 edges
}

func ExampleParseShortcut() {
	for _, chord := range []string{"ctrl+z", "cmd+shift+z", "ctrl+d", "alt+f4"} {
		fmt.Println(chord, "=>", editor.ParseShortcut(chord))
	}
	// Output:
	// ctrl+z => undo
	// cmd+shift+z => redo
	// ctrl+d => duplicate
	// alt+f4 => none
}
