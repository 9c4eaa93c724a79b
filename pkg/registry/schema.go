package registry

import (
	"fmt"
	"maps"
	"math"
	"slices"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

// Schema maps configuration field names to their declarations.
type Schema map[string]FieldSpec

// FieldSpec is the raw declaration of one configuration field as it appears
// in a registry document.
type FieldSpec struct {
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Default     any      `json:"default,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// FieldKind discriminates the editing control of a configuration field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldBoolean
	FieldNumber
	FieldEnum
)

func (k FieldKind) String() string {
	switch k {
	case FieldBoolean:
		return "boolean"
	case FieldNumber:
		return "number"
	case FieldEnum:
		return "enum"
	default:
		return "string"
	}
}

// Kind classifies the declaration. Boolean and number types win over an
// enum list; anything else with an enum list is an enum, and the rest are
// strings.
func (s FieldSpec) Kind() FieldKind {
	switch s.Type {
	case "boolean":
		return FieldBoolean
	case "number", "integer":
		return FieldNumber
	}
	if len(s.Enum) > 0 {
		return FieldEnum
	}
	return FieldString
}

// Field is a configuration field resolved to its kind.
type Field struct {
	Name string
	Kind FieldKind
	Spec FieldSpec
}

// Label returns the display title, falling back to the field name.
func (f Field) Label() string {
	if f.Spec.Title != "" {
		return f.Spec.Title
	}
	return f.Name
}

// Fields returns the fields of s sorted by name.
func (s Schema) Fields() []Field {
	names := slices.Sorted(maps.Keys(s))
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		spec := s[name]
		fields = append(fields, Field{Name: name, Kind: spec.Kind(), Spec: spec})
	}
	return fields
}

// Defaults returns the declared default of every field that has one.
// Number defaults are normalized to float64.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for name, spec := range s {
		if spec.Default == nil {
			continue
		}
		if spec.Kind() == FieldNumber {
			if f, ok := toFloat(spec.Default); ok {
				out[name] = f
				continue
			}
		}
		out[name] = spec.Default
	}
	return out
}

// Check validates a value for the field. Nil is accepted unless the field
// is required.
func (f Field) Check(v any) error {
	if v == nil {
		if f.Spec.Required {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s is required", f.Label())
		}
		return nil
	}
	switch f.Kind {
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s must be true or false", f.Label())
		}
	case FieldNumber:
		n, ok := toFloat(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s must be a number", f.Label())
		}
		if f.Spec.Minimum != nil && n < *f.Spec.Minimum {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s must be at least %g", f.Label(), *f.Spec.Minimum)
		}
		if f.Spec.Maximum != nil && n > *f.Spec.Maximum {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s must be at most %g", f.Label(), *f.Spec.Maximum)
		}
	case FieldEnum:
		for _, opt := range f.Spec.Enum {
			if fmt.Sprint(opt) == fmt.Sprint(v) {
				return nil
			}
		}
		return ferrors.New(ferrors.ErrCodeInvalidInput, "%s: %v is not an allowed value", f.Label(), v)
	case FieldString:
		if _, ok := v.(string); !ok {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s must be text", f.Label())
		}
		if f.Spec.Required && v.(string) == "" {
			return ferrors.New(ferrors.ErrCodeInvalidInput, "%s is required", f.Label())
		}
	}
	return nil
}

// CheckPatch validates each key of patch that the schema declares.
// Undeclared keys pass through unchecked.
func (s Schema) CheckPatch(patch map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(patch)) {
		spec, ok := s[name]
		if !ok {
			continue
		}
		f := Field{Name: name, Kind: spec.Kind(), Spec: spec}
		if err := f.Check(patch[name]); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
