package registry

// Generic handle names used when neither the registry nor the fallback
// table declares a default for a node type.
const (
	DefaultOutputHandle = "out"
	DefaultInputHandle  = "in"
)

// HandleDefaults is a per-type table of implied handle names, consulted when
// the registry itself does not declare one. Keys are node types.
type HandleDefaults struct {
	Inputs  map[string]string `toml:"inputs" json:"inputs,omitempty"`
	Outputs map[string]string `toml:"outputs" json:"outputs,omitempty"`
}

// LegacyHandleDefaults returns the defaults for node types whose registry
// entries predate the default_input/default_output fields.
func LegacyHandleDefaults() HandleDefaults {
	return HandleDefaults{
		Inputs:  map[string]string{"telegram.response": "payload"},
		Outputs: map[string]string{"telegram.webhook": "envelope"},
	}
}

// Merge returns a copy of d with the entries of other layered on top.
func (d HandleDefaults) Merge(other HandleDefaults) HandleDefaults {
	out := HandleDefaults{
		Inputs:  make(map[string]string, len(d.Inputs)+len(other.Inputs)),
		Outputs: make(map[string]string, len(d.Outputs)+len(other.Outputs)),
	}
	for k, v := range d.Inputs {
		out.Inputs[k] = v
	}
	for k, v := range other.Inputs {
		out.Inputs[k] = v
	}
	for k, v := range d.Outputs {
		out.Outputs[k] = v
	}
	for k, v := range other.Outputs {
		out.Outputs[k] = v
	}
	return out
}

// HandleResolver picks the implied handle of a node type. Resolution order
// is: the registry's declared default, then the fallback table, then the
// generic "out"/"in".
type HandleResolver struct {
	Registry *Registry
	Fallback HandleDefaults
}

// NewHandleResolver returns a resolver over reg with the legacy fallbacks.
func NewHandleResolver(reg *Registry) HandleResolver {
	return HandleResolver{Registry: reg, Fallback: LegacyHandleDefaults()}
}

// Output returns the implied output handle of typ.
func (h HandleResolver) Output(typ string) string {
	if def, ok := h.Registry.Lookup(typ); ok && def.DefaultOutput != "" {
		return def.DefaultOutput
	}
	if v := h.Fallback.Outputs[typ]; v != "" {
		return v
	}
	return DefaultOutputHandle
}

// Input returns the implied input handle of typ.
func (h HandleResolver) Input(typ string) string {
	if def, ok := h.Registry.Lookup(typ); ok && def.DefaultInput != "" {
		return def.DefaultInput
	}
	if v := h.Fallback.Inputs[typ]; v != "" {
		return v
	}
	return DefaultInputHandle
}
