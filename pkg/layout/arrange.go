package layout

import (
	"errors"
	"math"
	"slices"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// Minimum selection sizes for arrangement.
const (
	MinAlign      = 2
	MinDistribute = 3
)

// ErrTooFewNodes is wrapped by the errors returned when a selection is too
// small to align or distribute.
var ErrTooFewNodes = errors.New("too few nodes selected")

// Anchor selects the reference line for alignment.
type Anchor string

const (
	AnchorStart  Anchor = "start"  // left or top edge
	AnchorCenter Anchor = "center" // midpoint of the extremes
	AnchorEnd    Anchor = "end"    // right or bottom edge
)

// ParseAnchor accepts start/center/end and the axis words left, top, right,
// bottom, middle. Unknown values mean center.
func ParseAnchor(s string) Anchor {
	switch s {
	case "start", "left", "top":
		return AnchorStart
	case "end", "right", "bottom":
		return AnchorEnd
	default:
		return AnchorCenter
	}
}

// AlignHorizontal gives every selected node the same y coordinate: the
// smallest, the midpoint of the extremes, or the largest. Node sizes are
// not considered. Results are copies in input order.
func AlignHorizontal(nodes []graph.Node, anchor Anchor) ([]graph.Node, error) {
	return align(nodes, anchor, func(p *graph.Position) *float64 { return &p.Y })
}

// AlignVertical gives every selected node the same x coordinate.
func AlignVertical(nodes []graph.Node, anchor Anchor) ([]graph.Node, error) {
	return align(nodes, anchor, func(p *graph.Position) *float64 { return &p.X })
}

func align(nodes []graph.Node, anchor Anchor, axis func(*graph.Position) *float64) ([]graph.Node, error) {
	if len(nodes) < MinAlign {
		return nil, ferrors.Wrap(ferrors.ErrCodeTooFewNodes, ErrTooFewNodes, "select at least %d nodes to align", MinAlign)
	}
	out := graph.CloneNodes(nodes)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range out {
		v := *axis(&out[i].Position)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	target := (lo + hi) / 2
	switch anchor {
	case AnchorStart:
		target = lo
	case AnchorEnd:
		target = hi
	}
	for i := range out {
		*axis(&out[i].Position) = target
	}
	return out, nil
}

// DistributeHorizontally spaces the selected nodes evenly along x between
// the leftmost and rightmost, keeping their left-to-right order. The
// extremes stay in place. Results are copies in input order.
func DistributeHorizontally(nodes []graph.Node) ([]graph.Node, error) {
	return distribute(nodes, func(p *graph.Position) *float64 { return &p.X })
}

// DistributeVertically spaces the selected nodes evenly along y.
func DistributeVertically(nodes []graph.Node) ([]graph.Node, error) {
	return distribute(nodes, func(p *graph.Position) *float64 { return &p.Y })
}

func distribute(nodes []graph.Node, axis func(*graph.Position) *float64) ([]graph.Node, error) {
	if len(nodes) < MinDistribute {
		return nil, ferrors.Wrap(ferrors.ErrCodeTooFewNodes, ErrTooFewNodes, "select at least %d nodes to distribute", MinDistribute)
	}
	out := graph.CloneNodes(nodes)
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, vb := *axis(&out[a].Position), *axis(&out[b].Position)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	})

	lo := *axis(&out[order[0]].Position)
	hi := *axis(&out[order[len(order)-1]].Position)
	gap := (hi - lo) / float64(len(order)-1)
	for k, i := range order[:len(order)-1] {
		*axis(&out[i].Position) = lo + float64(k)*gap
	}
	return out, nil
}
