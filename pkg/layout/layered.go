package layout

import (
	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// layered is the index-based working graph of one layout run. Real nodes
// occupy indices [0, nReal); routing points for long edges follow.
type layered struct {
	ids   []string
	nReal int
	out   [][]int
	in    [][]int
	rank  []int
}

// newLayered indexes the nodes in input order and adds one arc per distinct
// connected pair. Self loops, edges to unknown nodes and parallel edges do
// not affect placement and are skipped.
func newLayered(nodes []graph.Node, edges []graph.Edge) *layered {
	l := &layered{}
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = len(l.ids)
		l.ids = append(l.ids, n.ID)
	}
	l.nReal = len(l.ids)
	l.out = make([][]int, l.nReal)
	l.in = make([][]int, l.nReal)

	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		u, ok := index[e.Source]
		if !ok {
			continue
		}
		v, ok := index[e.Target]
		if !ok || u == v {
			continue
		}
		key := [2]int{u, v}
		if seen[key] {
			continue
		}
		seen[key] = true
		l.addArc(u, v)
	}
	return l
}

func (l *layered) addArc(u, v int) {
	l.out[u] = append(l.out[u], v)
	l.in[v] = append(l.in[v], u)
}

func (l *layered) removeArc(u, v int) {
	l.out[u] = removeFirst(l.out[u], v)
	l.in[v] = removeFirst(l.in[v], u)
}

func (l *layered) hasArc(u, v int) bool {
	for _, w := range l.out[u] {
		if w == v {
			return true
		}
	}
	return false
}

func (l *layered) size() int { return len(l.ids) }

// breakCycles makes the graph acyclic by reversing back edges found with a
// white/gray/black depth-first search. The search starts from sources, then
// from any node left unvisited, both in input order. It returns the number
// of reversed arcs.
func (l *layered) breakCycles() int {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, l.size())
	var back [][2]int

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, v := range l.out[u] {
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				back = append(back, [2]int{u, v})
			}
		}
		color[u] = black
	}

	for u := range l.size() {
		if len(l.in[u]) == 0 && color[u] == white {
			dfs(u)
		}
	}
	for u := range l.size() {
		if color[u] == white {
			dfs(u)
		}
	}

	for _, e := range back {
		l.removeArc(e[0], e[1])
		if !l.hasArc(e[1], e[0]) {
			l.addArc(e[1], e[0])
		}
	}
	return len(back)
}

// assignRanks places every node one rank below its deepest predecessor
// (longest path from the sources, via Kahn's algorithm). It reports false
// if some node was never released, which means a cycle survived.
func (l *layered) assignRanks() bool {
	n := l.size()
	l.rank = make([]int, n)
	inDegree := make([]int, n)
	queue := make([]int, 0, n)
	for u := range n {
		inDegree[u] = len(l.in[u])
		if inDegree[u] == 0 {
			queue = append(queue, u)
		}
	}

	processed := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		processed++
		for _, v := range l.out[u] {
			if r := l.rank[u] + 1; r > l.rank[v] {
				l.rank[v] = r
			}
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return processed == n
}

// subdivide replaces every arc spanning more than one rank with a chain of
// routing points, one per intermediate rank. It reports false when more
// than budget points would be needed.
func (l *layered) subdivide(budget int) bool {
	added := 0
	for u := range l.nReal {
		for _, v := range append([]int(nil), l.out[u]...) {
			span := l.rank[v] - l.rank[u]
			if span <= 1 {
				continue
			}
			added += span - 1
			if added > budget {
				return false
			}
			l.removeArc(u, v)
			prev := u
			for r := l.rank[u] + 1; r < l.rank[v]; r++ {
				p := l.size()
				l.ids = append(l.ids, "")
				l.out = append(l.out, nil)
				l.in = append(l.in, nil)
				l.rank = append(l.rank, r)
				l.addArc(prev, p)
				prev = p
			}
			l.addArc(prev, v)
		}
	}
	return true
}

func (l *layered) isVirtual(u int) bool { return u >= l.nReal }

func (l *layered) maxRank() int {
	m := 0
	for _, r := range l.rank {
		m = max(m, r)
	}
	return m
}

func removeFirst(s []int, v int) []int {
	for i, w := range s {
		if w == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
