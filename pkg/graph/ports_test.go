package graph

import (
	"testing"

	"github.com/matzehuels/flowbuilder/pkg/registry"
)

func TestArePortsCompatible(t *testing.T) {
	v := NewValidator(testRegistry(t))

	tests := []struct {
		name               string
		srcType, srcHandle string
		dstType, dstHandle string
		want               bool
	}{
		{"same tag", "text.source", "out", "llm.prompt", "in", true},
		{"disjoint tags", "llm.prompt", "out", "image.render", "in", false},
		{"any input", "llm.prompt", "out", "any.sink", "in", true},
		{"any output", "any.sink", "out", "image.render", "in", true},
		{"multi tag overlap", "text.source", "out", "telegram.response", "payload", true},
		{"unknown source type", "ghost", "out", "image.render", "in", true},
		{"unknown target type", "llm.prompt", "out", "ghost", "in", true},
		{"undeclared handle", "llm.prompt", "extra", "image.render", "in", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ArePortsCompatible(tt.srcType, tt.srcHandle, tt.dstType, tt.dstHandle)
			if got != tt.want {
				t.Errorf("ArePortsCompatible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNilRegistryIsPermissive(t *testing.T) {
	v := NewValidator(nil)
	if !v.ArePortsCompatible("a", "out", "b", "in") {
		t.Error("nil registry should accept every connection")
	}
}

func TestResolveHandles(t *testing.T) {
	v := NewValidator(testRegistry(t), WithHandleDefaults(registry.HandleDefaults{
		Inputs: map[string]string{"image.render": "frame"},
	}))
	types := TypeIndex{"hook": "telegram.webhook", "resp": "telegram.response", "img": "image.render", "x": "custom"}

	tests := []struct {
		name       string
		edge       Edge
		wantSource string
		wantTarget string
	}{
		{"registry default", Edge{Source: "hook", Target: "x"}, "envelope", "in"},
		{"legacy default", Edge{Source: "x", Target: "resp"}, "out", "payload"},
		{"configured default", Edge{Source: "x", Target: "img"}, "out", "frame"},
		{"explicit kept", Edge{Source: "hook", SourceHandle: "alt", Target: "resp", TargetHandle: "body"}, "alt", "body"},
		{"unknown nodes", Edge{Source: "?", Target: "?"}, "out", "in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := v.ResolveHandles(tt.edge, types)
			if src != tt.wantSource || dst != tt.wantTarget {
				t.Errorf("ResolveHandles = %s/%s, want %s/%s", src, dst, tt.wantSource, tt.wantTarget)
			}
		})
	}
}

func TestExceedsLimit(t *testing.T) {
	edges := []Edge{
		{Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "in"},
		{Source: "c", Target: "b", TargetHandle: "meta"},
	}

	tests := []struct {
		name   string
		limit  int
		nodeID string
		handle string
		want   bool
	}{
		{"used source", 1, "a", "out", true},
		{"used target", 1, "b", "in", true},
		{"empty handle counts as out", 1, "c", "out", true},
		{"free handle", 1, "a", "other", false},
		{"unused node", 1, "z", "in", false},
		{"higher limit", 2, "a", "out", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(nil, WithConnectionLimit(tt.limit))
			if got := v.ExceedsLimit(tt.nodeID, tt.handle, edges); got != tt.want {
				t.Errorf("ExceedsLimit(%s, %s) = %v, want %v", tt.nodeID, tt.handle, got, tt.want)
			}
		})
	}
}

func TestCheckOrder(t *testing.T) {
	// Both the limit and the types fail; the limit is reported first.
	v := NewValidator(testRegistry(t))
	types := TypeIndex{"llm": "llm.prompt", "img": "image.render", "other": "custom"}
	existing := []Edge{{Source: "llm", SourceHandle: "out", Target: "other", TargetHandle: "in"}}

	_, rej := v.Check(Edge{Source: "llm", Target: "img"}, types, existing)
	if rej == nil || rej.Reason != ReasonLimitExceeded {
		t.Fatalf("rejection = %v, want limit-exceeded", rej)
	}

	_, rej = v.Check(Edge{Source: "llm", Target: "img"}, types, nil)
	if rej == nil || rej.Reason != ReasonIncompatiblePorts {
		t.Fatalf("rejection = %v, want incompatible-ports", rej)
	}
	if rej.SourceTags != "text" || rej.TargetTags != "image" {
		t.Errorf("tags = %s/%s, want text/image", rej.SourceTags, rej.TargetTags)
	}
}

func TestAllowedTargets(t *testing.T) {
	v := NewValidator(testRegistry(t))
	nodes := []Node{
		node("src", "text.source"),
		node("llm", "llm.prompt"),
		node("img", "image.render"),
		node("sink", "any.sink"),
		node("raw", "custom"),
	}
	edges := []Edge{{ID: "e", Source: "sink", SourceHandle: "out", Target: "raw", TargetHandle: "in"}}

	got := v.AllowedTargets("src", "", nodes, edges)
	want := []Target{
		{NodeID: "llm", Handle: "in"},
		{NodeID: "sink", Handle: "in"},
	}
	if len(got) != len(want) {
		t.Fatalf("AllowedTargets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("target[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := v.AllowedTargets("sink", "out", nodes, edges); got != nil {
		t.Errorf("saturated source should offer nothing, got %v", got)
	}
	if got := v.AllowedTargets("ghost", "", nodes, edges); got != nil {
		t.Errorf("unknown source should offer nothing, got %v", got)
	}
}
