package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/layout"
)

// ErrStaleLayout is returned when the graph changed while a layout was
// being computed. The result is discarded.
var ErrStaleLayout = errors.New("graph changed during layout")

// =============================================================================
// Automatic Layout
// =============================================================================

// AutoLayout arranges the whole graph with the session's layout options.
//
// The layout runs without holding the session lock. Starting another
// layout or closing the session cancels it. Results are cached by graph
// structure and options, so re-running on an unchanged graph is cheap.
// On failure the error is reported and the graph keeps its positions.
func (s *Session) AutoLayout(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancelLayout != nil {
		s.cancelLayout()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelLayout = cancel
	nodes, edges := s.model.Nodes(), s.model.Edges()
	rev, opts := s.rev, s.layoutOpts
	s.mu.Unlock()
	defer cancel()

	r, err := s.computeLayout(ctx, nodes, edges, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() == nil {
		s.cancelLayout = nil
	}
	if err != nil {
		if !s.closed && !errors.Is(err, context.Canceled) {
			s.warn(err)
		}
		return err
	}
	if s.closed {
		return ErrClosed
	}
	if s.rev != rev {
		s.logger.Debug("layout discarded", "reason", "graph changed")
		return ErrStaleLayout
	}

	moved := 0
	for _, n := range nodes {
		p, ok := r.Positions[n.ID]
		if !ok || p == n.Position.Rounded() {
			continue
		}
		if s.model.MoveNode(n.ID, p) {
			moved++
		}
	}
	if moved > 0 {
		s.touch()
	}
	s.logger.Info("layout applied", "nodes", len(nodes), "moved", moved, "crossings", r.Crossings)
	return nil
}

// computeLayout consults the layout cache before running the engine.
func (s *Session) computeLayout(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts layout.Options) (*layout.Result, error) {
	key := s.keyer.LayoutKey(structureHash(nodes, edges), opts.Key())

	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("layout cache read failed", "err", err)
	}
	if hit {
		var r layout.Result
		if err := json.Unmarshal(data, &r); err == nil {
			s.logger.Debug("layout cache hit", "key", key)
			return &r, nil
		}
		s.logger.Warn("layout cache entry corrupt", "key", key)
	}

	r, err := layout.Run(ctx, nodes, edges, opts)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(r); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			s.logger.Warn("layout cache write failed", "err", err)
		}
	}
	return r, nil
}

// structureHash fingerprints what the layout depends on: node ids in
// order and edge endpoints. Positions and data are left out.
func structureHash(nodes []graph.Node, edges []graph.Edge) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.ID)
		b.WriteByte('\n')
	}
	b.WriteByte(0)
	for _, e := range edges {
		b.WriteString(e.Source)
		b.WriteByte('>')
		b.WriteString(e.Target)
		b.WriteByte('\n')
	}
	return cache.Hash([]byte(b.String()))
}

// =============================================================================
// Alignment and Distribution
// =============================================================================

// AlignHorizontal lines the selected nodes up on a common y: their top,
// middle or bottom. Fewer than two selected nodes is a no-op.
func (s *Session) AlignHorizontal(anchor layout.Anchor) bool {
	return s.arrange(func(sel []graph.Node) ([]graph.Node, error) {
		return layout.AlignHorizontal(sel, anchor)
	}, false)
}

// AlignVertical lines the selected nodes up on a common x: their left,
// center or right.
func (s *Session) AlignVertical(anchor layout.Anchor) bool {
	return s.arrange(func(sel []graph.Node) ([]graph.Node, error) {
		return layout.AlignVertical(sel, anchor)
	}, false)
}

// DistributeHorizontally spaces the selected nodes evenly along x between
// the outermost two. It needs at least three nodes; fewer is reported as
// a warning.
func (s *Session) DistributeHorizontally() bool {
	return s.arrange(layout.DistributeHorizontally, true)
}

// DistributeVertically spaces the selected nodes evenly along y.
func (s *Session) DistributeVertically() bool {
	return s.arrange(layout.DistributeVertically, true)
}

func (s *Session) arrange(fn func([]graph.Node) ([]graph.Node, error), report bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	var sel []graph.Node
	for _, n := range s.model.Nodes() {
		if s.selected[n.ID] {
			sel = append(sel, n)
		}
	}
	out, err := fn(sel)
	if err != nil {
		if report || !errors.Is(err, layout.ErrTooFewNodes) {
			s.warn(err)
		}
		return false
	}

	moved := false
	for i, n := range out {
		if n.Position.Rounded() == sel[i].Position {
			continue
		}
		if s.model.MoveNode(n.ID, n.Position) {
			moved = true
		}
	}
	if moved {
		s.touch()
	}
	return moved
}
