package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/registry"
)

// DefaultConnectionLimit is the number of connections a single handle
// accepts unless configured otherwise.
const DefaultConnectionLimit = 1

// Reason explains why a connection was rejected.
type Reason string

const (
	ReasonLimitExceeded     Reason = "limit-exceeded"
	ReasonIncompatiblePorts Reason = "incompatible-ports"
)

// Rejection is returned when a proposed connection fails validation.
// It is a normal outcome of editing, not a failure of the model.
type Rejection struct {
	Reason Reason
	Edge   Edge // the proposed edge with handles resolved

	// NodeID and Handle name the saturated endpoint for ReasonLimitExceeded.
	NodeID string
	Handle string

	// SourceTags and TargetTags carry the declared port types for
	// ReasonIncompatiblePorts.
	SourceTags string
	TargetTags string
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonLimitExceeded:
		return fmt.Sprintf("handle %s of node %s already has the maximum number of connections", r.Handle, r.NodeID)
	case ReasonIncompatiblePorts:
		return fmt.Sprintf("port types are incompatible: %s -> %s", r.SourceTags, r.TargetTags)
	default:
		return string(r.Reason)
	}
}

// Unwrap exposes the rejection as a coded error so callers can test it
// with [ferrors.Is].
func (r *Rejection) Unwrap() error {
	code := ferrors.ErrCodeIncompatiblePorts
	if r.Reason == ReasonLimitExceeded {
		code = ferrors.ErrCodeLimitExceeded
	}
	return &ferrors.Error{Code: code, Message: r.Error()}
}

// =============================================================================
// Validator - Port Compatibility and Handle Limits
// =============================================================================

// Validator decides whether a proposed edge may be added: whether the port
// types are compatible and whether either endpoint handle is saturated.
//
// A Validator is read-only after construction and safe for concurrent use.
type Validator struct {
	handles registry.HandleResolver
	limit   int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithConnectionLimit sets the maximum number of edges per handle.
// Values below 1 are ignored.
func WithConnectionLimit(n int) ValidatorOption {
	return func(v *Validator) {
		if n >= 1 {
			v.limit = n
		}
	}
}

// WithHandleDefaults layers per-type default handles on top of the legacy
// defaults.
func WithHandleDefaults(d registry.HandleDefaults) ValidatorOption {
	return func(v *Validator) {
		v.handles.Fallback = v.handles.Fallback.Merge(d)
	}
}

// NewValidator returns a validator over reg. A nil registry is permissive:
// every connection is type-compatible.
func NewValidator(reg *registry.Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{
		handles: registry.NewHandleResolver(reg),
		limit:   DefaultConnectionLimit,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the registry the validator consults.
func (v *Validator) Registry() *registry.Registry { return v.handles.Registry }

// Handles returns the handle resolver.
func (v *Validator) Handles() registry.HandleResolver { return v.handles }

// Limit returns the per-handle connection limit.
func (v *Validator) Limit() int { return v.limit }

// ResolveHandles returns the effective handles of e. A handle supplied by
// the caller is kept as is; an empty one is filled with the default for the
// endpoint's node type.
func (v *Validator) ResolveHandles(e Edge, types NodeTypes) (sourceHandle, targetHandle string) {
	sourceHandle, targetHandle = e.SourceHandle, e.TargetHandle
	if sourceHandle == "" {
		typ, _ := types.NodeType(e.Source)
		sourceHandle = v.handles.Output(typ)
	}
	if targetHandle == "" {
		typ, _ := types.NodeType(e.Target)
		targetHandle = v.handles.Input(typ)
	}
	return sourceHandle, targetHandle
}

// Resolve returns e with both handles resolved.
func (v *Validator) Resolve(e Edge, types NodeTypes) Edge {
	e.SourceHandle, e.TargetHandle = v.ResolveHandles(e, types)
	return e
}

// ArePortsCompatible reports whether the output port srcHandle of a node of
// type srcType may feed the input port dstHandle of a node of type dstType.
//
// The check is permissive whenever information is missing: no registry,
// an unknown node type, an undeclared port or an empty type declaration
// all count as compatible.
func (v *Validator) ArePortsCompatible(srcType, srcHandle, dstType, dstHandle string) bool {
	srcTags, dstTags, ok := v.portTags(srcType, srcHandle, dstType, dstHandle)
	if !ok {
		return true
	}
	return registry.TagsCompatible(srcTags, dstTags)
}

func (v *Validator) portTags(srcType, srcHandle, dstType, dstHandle string) (string, string, bool) {
	reg := v.handles.Registry
	srcDef, ok := reg.Lookup(srcType)
	if !ok {
		return "", "", false
	}
	dstDef, ok := reg.Lookup(dstType)
	if !ok {
		return "", "", false
	}
	out, ok := srcDef.Outputs[srcHandle]
	if !ok {
		return "", "", false
	}
	in, ok := dstDef.Inputs[dstHandle]
	if !ok {
		return "", "", false
	}
	return out.Type, in.Type, true
}

// ExceedsLimit reports whether the handle of nodeID already carries the
// maximum number of edges. Edges count on either side: as source with
// a matching source handle or as target with a matching target handle.
// Empty handles on stored edges count as the generic "out"/"in".
func (v *Validator) ExceedsLimit(nodeID, handle string, edges []Edge) bool {
	count := 0
	for _, e := range edges {
		if e.Source == nodeID && orDefault(e.SourceHandle, registry.DefaultOutputHandle) == handle {
			count++
		}
		if e.Target == nodeID && orDefault(e.TargetHandle, registry.DefaultInputHandle) == handle {
			count++
		}
	}
	return count >= v.limit
}

// Check validates a proposed edge against the existing ones. It resolves
// handles first, then checks the source limit, the target limit and the
// port types, in that order. The returned edge carries the resolved
// handles. A non-nil *Rejection means the edge must not be added.
func (v *Validator) Check(e Edge, types NodeTypes, existing []Edge) (Edge, *Rejection) {
	e = v.Resolve(e, types)
	if v.ExceedsLimit(e.Source, e.SourceHandle, existing) {
		return e, &Rejection{Reason: ReasonLimitExceeded, Edge: e, NodeID: e.Source, Handle: e.SourceHandle}
	}
	if v.ExceedsLimit(e.Target, e.TargetHandle, existing) {
		return e, &Rejection{Reason: ReasonLimitExceeded, Edge: e, NodeID: e.Target, Handle: e.TargetHandle}
	}
	srcType, _ := types.NodeType(e.Source)
	dstType, _ := types.NodeType(e.Target)
	if srcTags, dstTags, ok := v.portTags(srcType, e.SourceHandle, dstType, e.TargetHandle); ok {
		if !registry.TagsCompatible(srcTags, dstTags) {
			return e, &Rejection{Reason: ReasonIncompatiblePorts, Edge: e, SourceTags: srcTags, TargetTags: dstTags}
		}
	}
	return e, nil
}

// Target is a node input that an output could connect to.
type Target struct {
	NodeID string `json:"node_id"`
	Handle string `json:"handle"`
}

// AllowedTargets lists the inputs of other nodes that the output srcHandle
// of srcID could feed without violating type compatibility or the
// connection limit. Results are ordered by node id, then handle. Nodes whose
// type is not in the registry are offered on their default input.
func (v *Validator) AllowedTargets(srcID, srcHandle string, nodes []Node, edges []Edge) []Target {
	types := IndexTypes(nodes)
	srcType, ok := types.NodeType(srcID)
	if !ok {
		return nil
	}
	if srcHandle == "" {
		srcHandle = v.handles.Output(srcType)
	}
	if v.ExceedsLimit(srcID, srcHandle, edges) {
		return nil
	}

	var out []Target
	for _, n := range nodes {
		if n.ID == "" || n.ID == srcID {
			continue
		}
		typ := n.TypeOrDefault()
		handles := []string{v.handles.Input(typ)}
		if def, ok := v.handles.Registry.Lookup(typ); ok && len(def.Inputs) > 0 {
			handles = handles[:0]
			for h := range def.Inputs {
				handles = append(handles, h)
			}
			slices.Sort(handles)
		}
		for _, h := range handles {
			if v.ExceedsLimit(n.ID, h, edges) {
				continue
			}
			if !v.ArePortsCompatible(srcType, srcHandle, typ, h) {
				continue
			}
			out = append(out, Target{NodeID: n.ID, Handle: h})
		}
	}
	slices.SortFunc(out, func(a, b Target) int {
		return cmp.Or(strings.Compare(a.NodeID, b.NodeID), strings.Compare(a.Handle, b.Handle))
	})
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
