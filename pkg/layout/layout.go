package layout

import (
	"context"
	"time"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// Result is the outcome of a layout run. It is JSON-encodable so it can be
// cached by graph content.
type Result struct {
	Positions     map[string]graph.Position `json:"positions"`
	Ranks         map[string]int            `json:"ranks"`
	Crossings     int                       `json:"crossings"`
	Sweeps        int                       `json:"sweeps"`
	ReversedEdges int                       `json:"reversed_edges"`
	Width         float64                   `json:"width"`
	Height        float64                   `json:"height"`
}

// Compute runs the layered layout on nodes and edges:
//
//  1. cycles are broken by reversing back edges
//  2. nodes are ranked by longest path from the sources
//  3. edges spanning several ranks get one routing point per rank
//  4. barycenter sweeps with adjacent swaps reduce crossings
//  5. ranks are spaced by RankSep and nodes within a rank by NodeSep
//
// The inputs are not modified. Compute returns ctx.Err() when the context
// is cancelled between sweeps and [ErrNoConvergence] when the graph needs
// more routing points than the budget allows.
func Compute(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	dir, err := ParseDirection(string(opts.Direction))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "layout options")
	}
	opts.Direction = dir
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := newLayered(nodes, edges)
	reversed := l.breakCycles()
	if !l.assignRanks() {
		return nil, ErrNoConvergence
	}
	ranks := make(map[string]int, l.nReal)
	for u := range l.nReal {
		ranks[l.ids[u]] = l.rank[u]
	}
	if !l.subdivide(opts.MaxVirtualNodes) {
		return nil, ErrNoConvergence
	}

	o, crossings, sweeps, err := l.reduceCrossings(ctx, l.initialOrder(), opts.MaxIterations)
	if err != nil {
		return nil, err
	}

	positions, width, height := newPlacement(l, opts).positions(o)
	return &Result{
		Positions:     positions,
		Ranks:         ranks,
		Crossings:     crossings,
		Sweeps:        sweeps,
		ReversedEdges: reversed,
		Width:         width,
		Height:        height,
	}, nil
}

// Apply returns copies of nodes with positions taken from r. Nodes absent
// from r keep their position.
func (r *Result) Apply(nodes []graph.Node) []graph.Node {
	out := graph.CloneNodes(nodes)
	for i := range out {
		if p, ok := r.Positions[out[i].ID]; ok {
			out[i].Position = p
		}
	}
	return out
}

// Run is Compute with layout hooks and coded errors. On failure the error
// carries [ferrors.ErrCodeLayoutFailed] and wraps the cause, which may be
// [ErrNoConvergence] or a context error.
func Run(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, string(opts.Direction), len(nodes))
	start := time.Now()

	r, err := Compute(ctx, nodes, edges, opts)
	hooks.OnLayoutComplete(ctx, string(opts.Direction), time.Since(start), err)
	if err != nil {
		if ferrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeLayoutFailed, err, "auto-layout of %d nodes", len(nodes))
	}
	return r, nil
}

// AutoLayout computes a layout and returns copies of nodes with their new
// positions. Errors are those of [Run].
func AutoLayout(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts Options) ([]graph.Node, error) {
	r, err := Run(ctx, nodes, edges, opts)
	if err != nil {
		return nil, err
	}
	return r.Apply(nodes), nil
}
