// Package layout computes node positions for pipeline graphs.
//
// # Automatic Layout
//
// [AutoLayout] arranges a whole graph in layers (Sugiyama style):
//
//  1. Cycle breaking: back edges found by depth-first search are reversed
//  2. Ranking: longest path from the sources via Kahn's algorithm
//  3. Normalization: long edges get one routing point per crossed rank
//  4. Ordering: alternating barycenter sweeps with adjacent swaps, scored
//     by a Fenwick-tree crossing count
//  5. Placement: ranks spaced by RankSep, nodes by NodeSep, each node
//     pulled toward the mean centre of its neighbours
//
// Positions are top-left corners of fixed-size boxes (NodeWidth x
// NodeHeight), translated so the bounding box starts at the origin.
// Defaults match the editor canvas: top-to-bottom, 200x80 nodes, 80 between
// ranks and 50 between neighbours.
//
//	nodes, err := layout.AutoLayout(ctx, nodes, edges, layout.DefaultOptions())
//	if errors.Is(err, layout.ErrNoConvergence) {
//	    // keep the current positions
//	}
//
// # Arrangement
//
// [AlignHorizontal], [AlignVertical], [DistributeHorizontally] and
// [DistributeVertically] reposition a selection. Alignment needs at least
// two nodes and distribution at least three; smaller selections return an
// error wrapping [ErrTooFewNodes].
//
// All functions return copies and never modify their inputs.
package layout
