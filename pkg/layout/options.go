package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoConvergence is returned when the layered layout cannot produce
// positions within its budget. The caller keeps the previous positions.
var ErrNoConvergence = errors.New("layout did not converge")

// Direction is the flow direction of ranks.
type Direction string

const (
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

// ParseDirection parses a direction name, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case TopBottom, BottomTop, LeftRight, RightLeft:
		return d, nil
	case "":
		return TopBottom, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want TB, BT, LR or RL)", s)
	}
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool { return d == LeftRight || d == RightLeft }

// reversed reports whether ranks advance toward negative coordinates.
func (d Direction) reversed() bool { return d == BottomTop || d == RightLeft }

// Options control automatic layout.
type Options struct {
	Direction  Direction `json:"direction" toml:"direction"`
	NodeWidth  float64   `json:"node_width" toml:"node_width"`
	NodeHeight float64   `json:"node_height" toml:"node_height"`
	RankSep    float64   `json:"rank_sep" toml:"rank_sep"`
	NodeSep    float64   `json:"node_sep" toml:"node_sep"`
	EdgeSep    float64   `json:"edge_sep" toml:"edge_sep"`

	// MaxIterations bounds the crossing-reduction sweeps.
	MaxIterations int `json:"max_iterations" toml:"max_iterations"`
	// MaxVirtualNodes bounds the routing points inserted for long edges.
	// Exceeding it yields ErrNoConvergence.
	MaxVirtualNodes int `json:"max_virtual_nodes" toml:"max_virtual_nodes"`
}

// DefaultOptions returns the standard layout options.
func DefaultOptions() Options {
	return Options{
		Direction:       TopBottom,
		NodeWidth:       200,
		NodeHeight:      80,
		RankSep:         80,
		NodeSep:         50,
		EdgeSep:         20,
		MaxIterations:   24,
		MaxVirtualNodes: 20000,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Direction == "" {
		o.Direction = d.Direction
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.EdgeSep <= 0 {
		o.EdgeSep = d.EdgeSep
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.MaxVirtualNodes <= 0 {
		o.MaxVirtualNodes = d.MaxVirtualNodes
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	return nil
}

// Key returns a stable string identifying the options, for cache keys.
func (o Options) Key() string {
	o = o.withDefaults()
	return fmt.Sprintf("%s/%g/%g/%g/%g/%g/%d", o.Direction, o.NodeWidth, o.NodeHeight, o.RankSep, o.NodeSep, o.EdgeSep, o.MaxIterations)
}
