package layout

import (
	"math"

	"github.com/matzehuels/flowbuilder/pkg/graph"
)

// placement converts rank orderings into canvas coordinates.
type placement struct {
	l         *layered
	crossSize float64
	mainSize  float64
	opts      Options
}

func newPlacement(l *layered, opts Options) *placement {
	p := &placement{l: l, opts: opts, crossSize: opts.NodeWidth, mainSize: opts.NodeHeight}
	if opts.Direction.Horizontal() {
		p.crossSize, p.mainSize = opts.NodeHeight, opts.NodeWidth
	}
	return p
}

func (p *placement) half(u int) float64 {
	if p.l.isVirtual(u) {
		return 0
	}
	return p.crossSize / 2
}

func (p *placement) sep(u int) float64 {
	if p.l.isVirtual(u) {
		return p.opts.EdgeSep
	}
	return p.opts.NodeSep
}

// minGap is the smallest allowed distance between the centres of two
// neighbours a and b in the same rank.
func (p *placement) minGap(a, b int) float64 {
	return p.half(a) + p.half(b) + (p.sep(a)+p.sep(b))/2
}

// centres packs every rank tightly around a common axis, then pulls nodes
// toward the mean centre of their neighbours with one downward and one
// upward pass.
func (p *placement) centres(o ordering) []float64 {
	c := make([]float64, p.l.size())
	for _, row := range o {
		if len(row) == 0 {
			continue
		}
		c[row[0]] = 0
		for i := 1; i < len(row); i++ {
			c[row[i]] = c[row[i-1]] + p.minGap(row[i-1], row[i])
		}
		shift := (c[row[len(row)-1]] - c[row[0]]) / 2
		for _, u := range row {
			c[u] -= shift
		}
	}

	for r := 1; r < len(o); r++ {
		p.align(o[r], c, true)
	}
	for r := len(o) - 2; r >= 0; r-- {
		p.align(o[r], c, false)
	}
	return c
}

// align moves the nodes of row toward the mean centre of their neighbours
// (predecessors when up is true) without breaking separation or order.
func (p *placement) align(row []int, c []float64, up bool) {
	if len(row) == 0 {
		return
	}
	desired := make([]float64, len(row))
	for i, u := range row {
		nbrs := p.l.out[u]
		if up {
			nbrs = p.l.in[u]
		}
		if len(nbrs) == 0 {
			desired[i] = c[u]
			continue
		}
		sum := 0.0
		for _, v := range nbrs {
			sum += c[v]
		}
		desired[i] = sum / float64(len(nbrs))
	}

	placed := make([]float64, len(row))
	placed[0] = desired[0]
	for i := 1; i < len(row); i++ {
		placed[i] = math.Max(desired[i], placed[i-1]+p.minGap(row[i-1], row[i]))
	}
	drift := 0.0
	for i := range row {
		drift += placed[i] - desired[i]
	}
	drift /= float64(len(row))
	for i, u := range row {
		c[u] = placed[i] - drift
	}
}

// positions returns the top-left corner of every real node, translated so
// that the layout's bounding box starts at the origin, together with the
// box size.
func (p *placement) positions(o ordering) (map[string]graph.Position, float64, float64) {
	c := p.centres(o)
	maxRank := p.l.maxRank()

	out := make(map[string]graph.Position, p.l.nReal)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for u := range p.l.nReal {
		rank := p.l.rank[u]
		if p.opts.Direction.reversed() {
			rank = maxRank - rank
		}
		main := float64(rank) * (p.mainSize + p.opts.RankSep)
		cross := c[u] - p.crossSize/2

		pos := graph.Position{X: cross, Y: main}
		if p.opts.Direction.Horizontal() {
			pos = graph.Position{X: main, Y: cross}
		}
		out[p.l.ids[u]] = pos
		minX, minY = math.Min(minX, pos.X), math.Min(minY, pos.Y)
		maxX = math.Max(maxX, pos.X+p.opts.NodeWidth)
		maxY = math.Max(maxY, pos.Y+p.opts.NodeHeight)
	}
	if len(out) == 0 {
		return out, 0, 0
	}
	for id, pos := range out {
		out[id] = graph.Position{X: pos.X - minX, Y: pos.Y - minY}.Rounded()
	}
	return out, maxX - minX, maxY - minY
}
