package layout

import (
	"context"
	"slices"
)

// ordering holds the left-to-right order of every rank.
type ordering [][]int

func (o ordering) clone() ordering {
	out := make(ordering, len(o))
	for i, row := range o {
		out[i] = slices.Clone(row)
	}
	return out
}

// initialOrder places nodes on their ranks in index order, which keeps
// real nodes in input order ahead of routing points.
func (l *layered) initialOrder() ordering {
	o := make(ordering, l.maxRank()+1)
	for u := range l.size() {
		o[l.rank[u]] = append(o[l.rank[u]], u)
	}
	return o
}

// reduceCrossings runs alternating barycenter sweeps with adjacent-swap
// refinement and keeps the best ordering seen. It stops after maxIter
// sweeps, when no crossings remain, or after four sweeps without
// improvement. It returns the best ordering, its crossing count and the
// number of sweeps run.
func (l *layered) reduceCrossings(ctx context.Context, o ordering, maxIter int) (ordering, int, int, error) {
	best := o.clone()
	bestCross := l.crossings(o)
	stale, iter := 0, 0

	for iter < maxIter && bestCross > 0 && stale < 4 {
		if err := ctx.Err(); err != nil {
			return nil, 0, iter, err
		}
		iter++
		if iter%2 == 1 {
			for r := 1; r < len(o); r++ {
				l.sortByBarycenter(o[r], o[r-1], true)
			}
		} else {
			for r := len(o) - 2; r >= 0; r-- {
				l.sortByBarycenter(o[r], o[r+1], false)
			}
		}
		l.transpose(o)

		if c := l.crossings(o); c < bestCross {
			best, bestCross, stale = o.clone(), c, 0
		} else {
			stale++
		}
	}
	return best, bestCross, iter, nil
}

// sortByBarycenter reorders row by the mean position of each node's
// neighbours in adj (predecessors when up is true). Nodes without
// neighbours in adj keep their current slot.
func (l *layered) sortByBarycenter(row, adj []int, up bool) {
	pos := positions(adj)
	type keyed struct {
		node   int
		bary   float64
		hasNbr bool
	}
	items := make([]keyed, len(row))
	for i, u := range row {
		nbrs := l.out[u]
		if up {
			nbrs = l.in[u]
		}
		sum, cnt := 0, 0
		for _, v := range nbrs {
			if p, ok := pos[v]; ok {
				sum += p
				cnt++
			}
		}
		if cnt == 0 {
			items[i] = keyed{node: u, bary: float64(i)}
			continue
		}
		items[i] = keyed{node: u, bary: float64(sum) / float64(cnt), hasNbr: true}
	}

	// Nodes without neighbours stay fixed; the others are sorted into the
	// remaining slots.
	var movable []keyed
	for _, it := range items {
		if it.hasNbr {
			movable = append(movable, it)
		}
	}
	slices.SortStableFunc(movable, func(a, b keyed) int {
		switch {
		case a.bary < b.bary:
			return -1
		case a.bary > b.bary:
			return 1
		}
		return 0
	})
	j := 0
	for i, it := range items {
		if it.hasNbr {
			row[i] = movable[j].node
			j++
		}
	}
}

// transpose swaps adjacent nodes while doing so lowers the crossings with
// both neighbouring ranks.
func (l *layered) transpose(o ordering) {
	improved := true
	for pass := 0; improved && pass < 8; pass++ {
		improved = false
		for r, row := range o {
			var abovePos, belowPos map[int]int
			if r > 0 {
				abovePos = positions(o[r-1])
			}
			if r < len(o)-1 {
				belowPos = positions(o[r+1])
			}
			for i := 0; i+1 < len(row); i++ {
				a, b := row[i], row[i+1]
				before := l.pairCrossings(a, b, abovePos, belowPos)
				after := l.pairCrossings(b, a, abovePos, belowPos)
				if after < before {
					row[i], row[i+1] = b, a
					improved = true
				}
			}
		}
	}
}

// pairCrossings counts crossings between the edges of left and right when
// left sits immediately before right.
func (l *layered) pairCrossings(left, right int, abovePos, belowPos map[int]int) int {
	return countPair(l.in[left], l.in[right], abovePos) + countPair(l.out[left], l.out[right], belowPos)
}

func countPair(lnbr, rnbr []int, adjPos map[int]int) int {
	if adjPos == nil {
		return 0
	}
	crossings := 0
	for _, ln := range lnbr {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range rnbr {
			if rp, ok := adjPos[rn]; ok && lp > rp {
				crossings++
			}
		}
	}
	return crossings
}

// crossings returns the total crossings of the ordering.
func (l *layered) crossings(o ordering) int {
	total := 0
	for r := 0; r+1 < len(o); r++ {
		total += l.layerCrossings(o[r], o[r+1])
	}
	return total
}

// layerCrossings counts crossings between two adjacent ranks as inversions
// of lower positions with a Fenwick tree, in O(E log V).
func (l *layered) layerCrossings(upper, lower []int) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := positions(lower)

	type arc struct{ upper, lower int }
	arcs := make([]arc, 0, len(upper)*2)
	for i, u := range upper {
		for _, v := range l.out[u] {
			if p, ok := lowerPos[v]; ok {
				arcs = append(arcs, arc{i, p})
			}
		}
	}
	if len(arcs) < 2 {
		return 0
	}
	slices.SortFunc(arcs, func(a, b arc) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, a := range arcs {
		lessOrEqual := 0
		for q := a.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual
		total++
		for idx := a.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

func positions(row []int) map[int]int {
	pos := make(map[int]int, len(row))
	for i, u := range row {
		pos[u] = i
	}
	return pos
}
