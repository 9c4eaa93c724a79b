package graph

import (
	"fmt"
	"maps"
	"slices"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

// Severity grades a finding of [Check].
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Issue is one finding of [Check].
type Issue struct {
	Severity Severity     `json:"severity"`
	Code     ferrors.Code `json:"code"`
	Message  string       `json:"message"`
	NodeID   string       `json:"node_id,omitempty"`
	EdgeID   string       `json:"edge_id,omitempty"`
}

// Report collects the findings of [Check].
type Report struct {
	Issues []Issue `json:"issues"`
}

// OK reports whether the graph has no errors. Warnings are allowed.
func (r Report) OK() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Count returns the number of issues with the given severity.
func (r Report) Count(s Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) add(s Severity, code ferrors.Code, nodeID, edgeID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: s,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		NodeID:   nodeID,
		EdgeID:   edgeID,
	})
}

// Check inspects a whole graph before it is saved or run. It reports:
//
//   - duplicate node or edge ids (error)
//   - edges whose endpoints do not exist (error)
//   - cycles (error)
//   - edges between incompatible ports (error)
//   - node types missing from the registry (warning)
//   - required inputs with no incoming edge (warning)
//   - nodes with no edges at all (warning)
//
// The graph is not modified.
func Check(nodes []Node, edges []Edge, v *Validator) Report {
	if v == nil {
		v = NewValidator(nil)
	}
	var r Report
	types := IndexTypes(nodes)

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := ferrors.ValidateNodeID(n.ID); err != nil {
			r.add(SeverityError, ferrors.ErrCodeInvalidNode, n.ID, "", "%s", ferrors.UserMessage(err))
			continue
		}
		if seen[n.ID] {
			r.add(SeverityError, ferrors.ErrCodeDuplicateID, n.ID, "", "node id %q is used more than once", n.ID)
		}
		seen[n.ID] = true
		if reg := v.Registry(); reg.Len() > 0 {
			if _, ok := reg.Lookup(n.TypeOrDefault()); !ok {
				r.add(SeverityWarning, ferrors.ErrCodeInvalidNode, n.ID, "", "node type %q is not in the registry", n.TypeOrDefault())
			}
		}
	}

	connected := make(map[string]bool, len(nodes))
	incoming := make(map[string]map[string]bool)
	outgoing := make(map[string][]string)
	edgeSeen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if e.ID != "" {
			if edgeSeen[e.ID] {
				r.add(SeverityError, ferrors.ErrCodeDuplicateID, "", e.ID, "edge id %q is used more than once", e.ID)
			}
			edgeSeen[e.ID] = true
		}
		if !seen[e.Source] || !seen[e.Target] {
			r.add(SeverityError, ferrors.ErrCodeInvalidEdge, "", e.ID, "edge %s -> %s references a missing node", e.Source, e.Target)
			continue
		}
		e = v.Resolve(e, types)
		connected[e.Source] = true
		connected[e.Target] = true
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		if incoming[e.Target] == nil {
			incoming[e.Target] = make(map[string]bool)
		}
		incoming[e.Target][e.TargetHandle] = true

		srcType, _ := types.NodeType(e.Source)
		dstType, _ := types.NodeType(e.Target)
		if !v.ArePortsCompatible(srcType, e.SourceHandle, dstType, e.TargetHandle) {
			r.add(SeverityError, ferrors.ErrCodeIncompatiblePorts, "", e.ID,
				"%s.%s cannot feed %s.%s", e.Source, e.SourceHandle, e.Target, e.TargetHandle)
		}
	}

	if id, ok := findCycle(nodes, outgoing); ok {
		r.add(SeverityError, ferrors.ErrCodeInvalidGraph, id, "", "graph contains a cycle through %q", id)
	}

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if def, ok := v.Registry().Lookup(n.TypeOrDefault()); ok {
			for _, h := range slices.Sorted(maps.Keys(def.Inputs)) {
				if def.Inputs[h].Required && !incoming[n.ID][h] {
					r.add(SeverityWarning, ferrors.ErrCodeInvalidEdge, n.ID, "", "required input %q of %q is not connected", h, n.ID)
				}
			}
		}
		if !connected[n.ID] && len(nodes) > 1 {
			r.add(SeverityWarning, ferrors.ErrCodeInvalidGraph, n.ID, "", "node %q is not connected", n.ID)
		}
	}
	return r
}

// findCycle runs a white/gray/black depth-first search and returns a node on
// the first cycle found.
func findCycle(nodes []Node, outgoing map[string][]string) (string, bool) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(nodes))
	var found string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, next := range outgoing[id] {
			switch color[next] {
			case white:
				if dfs(next) {
					return true
				}
			case gray:
				found = next
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white && dfs(n.ID) {
			return found, true
		}
	}
	return "", false
}
