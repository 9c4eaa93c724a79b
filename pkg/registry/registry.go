package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// Registry is the read-only catalogue of node types known to the editor.
//
// A Registry is loaded once per editing session and injected by reference
// into the model, the validator and the serializer. It is never mutated
// after load. All methods are safe to call on a nil *Registry, which
// behaves as an empty registry so that an absent catalogue never blocks
// editing.
type Registry struct {
	Nodes map[string]*NodeDef `json:"nodes"`
}

// NodeDef describes one node type: its ports, display metadata and
// configuration schema.
type NodeDef struct {
	Type    string                `json:"type,omitempty"`
	Inputs  map[string]InputPort  `json:"inputs,omitempty"`
	Outputs map[string]OutputPort `json:"outputs,omitempty"`
	Meta    Meta                  `json:"meta"`

	// ConfigSchema describes the free-form data of nodes of this type.
	// Some registries nest it under meta instead; use [NodeDef.Schema].
	ConfigSchema Schema `json:"config_schema,omitempty"`

	// DefaultInput and DefaultOutput name the handle implied when a
	// connection omits one. Empty means the generic "in"/"out".
	DefaultInput  string `json:"default_input,omitempty"`
	DefaultOutput string `json:"default_output,omitempty"`
}

// InputPort declares an input handle. Type is a comma-separated set of
// type tags, e.g. "text,image".
type InputPort struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// OutputPort declares an output handle.
type OutputPort struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Meta carries display information for the palette.
type Meta struct {
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Icon         string   `json:"icon,omitempty"`
	Version      string   `json:"version,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ConfigSchema Schema   `json:"config_schema,omitempty"`
}

// Schema returns the configuration schema of the node type, preferring the
// top-level declaration over the one nested in meta.
func (d *NodeDef) Schema() Schema {
	if d == nil {
		return nil
	}
	if len(d.ConfigSchema) > 0 {
		return d.ConfigSchema
	}
	return d.Meta.ConfigSchema
}

// New builds a registry from the given definitions, keyed by their Type.
// Definitions with an empty Type are skipped.
func New(defs ...*NodeDef) *Registry {
	r := &Registry{Nodes: make(map[string]*NodeDef, len(defs))}
	for _, d := range defs {
		if d == nil || d.Type == "" {
			continue
		}
		r.Nodes[d.Type] = d
	}
	return r
}

// Lookup returns the definition for typ.
func (r *Registry) Lookup(typ string) (*NodeDef, bool) {
	if r == nil || r.Nodes == nil {
		return nil, false
	}
	d, ok := r.Nodes[typ]
	return d, ok && d != nil
}

// Types returns all registered type keys in sorted order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.Nodes))
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Nodes)
}

// Read decodes a registry document from r.
//
// The document has the shape served by the registry backend:
//
//	{
//	  "nodes": {
//	    "llm.prompt": {
//	      "inputs":  {"in":  {"type": "text", "required": true}},
//	      "outputs": {"out": {"type": "text"}},
//	      "meta":    {"name": "Prompt", "category": "llm"}
//	    }
//	  }
//	}
//
// Each definition's Type is filled from its key.
func Read(r io.Reader) (*Registry, error) {
	var reg Registry
	if err := json.NewDecoder(r).Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if reg.Nodes == nil {
		reg.Nodes = make(map[string]*NodeDef)
	}
	for typ, def := range reg.Nodes {
		if def == nil {
			delete(reg.Nodes, typ)
			continue
		}
		def.Type = typ
	}
	return &reg, nil
}

// Parse decodes a registry document from bytes.
func Parse(data []byte) (*Registry, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile reads a registry document from a JSON file.
func ReadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
