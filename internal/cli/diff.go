package cli

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// change is one line of a graph diff.
type change struct {
	op   byte // '+', '-' or '~'
	text string
}

func (ch change) String() string { return fmt.Sprintf("%c %s", ch.op, ch.text) }

func (c *CLI) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [old.json] [new.json]",
		Short: "Compare two graphs",
		Long: `Compare two graphs by their canonical snapshots.

Reports added, removed and changed nodes and edges. Differences in node or
edge order and sub-millimetre position noise are not changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var snaps [2]graph.Snapshot
			for i, path := range args {
				sess, err := c.openSession(cmd.Context(), path, true, nil)
				if err != nil {
					return err
				}
				snap, err := graph.Deserialize(sess.Snapshot())
				sess.Close()
				if err != nil {
					return err
				}
				snaps[i] = snap
			}

			changes := diffSnapshots(snaps[0], snaps[1])
			if len(changes) == 0 {
				printSuccess("Graphs are identical")
				return nil
			}
			for _, ch := range changes {
				printChange(ch)
			}
			printNewline()
			printInfo("%d changes", len(changes))
			return nil
		},
	}
}

// diffSnapshots lists the differences from a to b: graph metadata, then
// nodes, then edges. Within each group removals come last.
func diffSnapshots(a, b graph.Snapshot) []change {
	var out []change
	if a.Name != b.Name {
		out = append(out, change{'~', fmt.Sprintf("name %q → %q", a.Name, b.Name)})
	}
	if a.Description != b.Description {
		out = append(out, change{'~', "description"})
	}

	oldNodes := make(map[string]graph.Node, len(a.Nodes))
	for _, n := range a.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		newNodes[n.ID] = true
		old, ok := oldNodes[n.ID]
		if !ok {
			out = append(out, change{'+', fmt.Sprintf("node %s (%s)", n.ID, n.Type)})
			continue
		}
		if old.Type != n.Type {
			out = append(out, change{'~', fmt.Sprintf("node %s type %s → %s", n.ID, old.Type, n.Type)})
		}
		if old.Position != n.Position {
			out = append(out, change{'~', fmt.Sprintf("node %s moved (%g, %g) → (%g, %g)",
				n.ID, old.Position.X, old.Position.Y, n.Position.X, n.Position.Y)})
		}
		if !reflect.DeepEqual(old.Data, n.Data) {
			out = append(out, change{'~', fmt.Sprintf("node %s data", n.ID)})
		}
	}
	for _, n := range a.Nodes {
		if !newNodes[n.ID] {
			out = append(out, change{'-', fmt.Sprintf("node %s (%s)", n.ID, n.Type)})
		}
	}

	oldEdges := make(map[graph.Edge]bool, len(a.Edges))
	for _, e := range a.Edges {
		oldEdges[e] = true
	}
	newEdges := make(map[graph.Edge]bool, len(b.Edges))
	for _, e := range b.Edges {
		newEdges[e] = true
		if !oldEdges[e] {
			out = append(out, change{'+', edgeLabel(e)})
		}
	}
	for _, e := range a.Edges {
		if !newEdges[e] {
			out = append(out, change{'-', edgeLabel(e)})
		}
	}
	return out
}

func edgeLabel(e graph.Edge) string {
	return fmt.Sprintf("edge %s %s.%s → %s.%s", e.ID, e.Source, e.SourceHandle, e.Target, e.TargetHandle)
}

func printChange(ch change) {
	style := styleChanged
	switch ch.op {
	case '+':
		style = styleAdded
	case '-':
		style = styleRemoved
	}
	fmt.Fprintln(stdout, style.Render(ch.String()))
}
