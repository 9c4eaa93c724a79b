package registry

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
)

const sampleRegistry = `{
  "nodes": {
    "llm.prompt": {
      "inputs":  {"in": {"type": "text", "required": true}},
      "outputs": {"out": {"type": "text"}},
      "meta": {"name": "Prompt", "category": "llm"},
      "config_schema": {
        "temperature": {"type": "number", "default": 0.7, "minimum": 0, "maximum": 2},
        "model": {"enum": ["small", "large"], "default": "small"},
        "stream": {"type": "boolean"}
      }
    },
    "telegram.webhook": {
      "outputs": {"envelope": {"type": "message"}},
      "default_output": "envelope"
    },
    "image.render": {
      "inputs": {"in": {"type": "image"}},
      "meta": {"config_schema": {"width": {"type": "integer", "default": 512}}}
    },
    "broken": null
  }
}`

func TestRead(t *testing.T) {
	reg, err := Read(strings.NewReader(sampleRegistry))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	want := []string{"image.render", "llm.prompt", "telegram.webhook"}
	if got := reg.Types(); !slices.Equal(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}

	def, ok := reg.Lookup("llm.prompt")
	if !ok {
		t.Fatal("Lookup(llm.prompt) not found")
	}
	if def.Type != "llm.prompt" {
		t.Errorf("Type = %q, want llm.prompt", def.Type)
	}
	if !def.Inputs["in"].Required {
		t.Error("input in should be required")
	}
	if def.Meta.Category != "llm" {
		t.Errorf("Category = %q, want llm", def.Meta.Category)
	}

	img, _ := reg.Lookup("image.render")
	if _, ok := img.Schema()["width"]; !ok {
		t.Error("Schema() should fall back to meta.config_schema")
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte(sampleRegistry), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Lookup("x"); ok {
		t.Error("nil registry should not find anything")
	}
	if reg.Len() != 0 || reg.Types() != nil {
		t.Error("nil registry should be empty")
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"text", []string{"text"}},
		{"text, image", []string{"text", "image"}},
		{" text ,,image ", []string{"text", "image"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseTags(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTagsCompatible(t *testing.T) {
	tests := []struct {
		name    string
		out, in string
		want    bool
	}{
		{"same tag", "text", "text", true},
		{"disjoint", "text", "image", false},
		{"overlap", "text,json", "image, json", true},
		{"any out", "any", "image", true},
		{"any in", "text", "image,any", true},
		{"empty out", "", "image", true},
		{"empty in", "text", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagsCompatible(tt.out, tt.in); got != tt.want {
				t.Errorf("TagsCompatible(%q, %q) = %v, want %v", tt.out, tt.in, got, tt.want)
			}
		})
	}
}

func TestHandleResolver(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandleResolver(reg)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"declared output", h.Output("telegram.webhook"), "envelope"},
		{"legacy input", h.Input("telegram.response"), "payload"},
		{"generic output", h.Output("llm.prompt"), DefaultOutputHandle},
		{"generic input", h.Input("llm.prompt"), DefaultInputHandle},
		{"unknown type", h.Output("nope"), DefaultOutputHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	override := HandleResolver{Fallback: LegacyHandleDefaults().Merge(HandleDefaults{
		Inputs: map[string]string{"telegram.response": "body"},
	})}
	if got := override.Input("telegram.response"); got != "body" {
		t.Errorf("merged Input = %q, want body", got)
	}
	if got := override.Output("telegram.webhook"); got != "envelope" {
		t.Errorf("merged Output = %q, want envelope", got)
	}
}

func TestSchemaFields(t *testing.T) {
	reg, _ := Parse([]byte(sampleRegistry))
	def, _ := reg.Lookup("llm.prompt")
	fields := def.Schema().Fields()

	want := map[string]FieldKind{
		"model":       FieldEnum,
		"stream":      FieldBoolean,
		"temperature": FieldNumber,
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for _, f := range fields {
		if f.Kind != want[f.Name] {
			t.Errorf("field %s kind = %v, want %v", f.Name, f.Kind, want[f.Name])
		}
	}
	if fields[0].Name != "model" {
		t.Errorf("fields not sorted: first = %s", fields[0].Name)
	}
}

func TestSchemaDefaults(t *testing.T) {
	reg, _ := Parse([]byte(sampleRegistry))
	img, _ := reg.Lookup("image.render")
	d := img.Schema().Defaults()
	if d["width"] != float64(512) {
		t.Errorf("width default = %#v, want 512.0", d["width"])
	}

	prompt, _ := reg.Lookup("llm.prompt")
	d = prompt.Schema().Defaults()
	if _, ok := d["stream"]; ok {
		t.Error("fields without default should be omitted")
	}
	if d["model"] != "small" {
		t.Errorf("model default = %v, want small", d["model"])
	}
}

func TestSchemaCheckPatch(t *testing.T) {
	reg, _ := Parse([]byte(sampleRegistry))
	def, _ := reg.Lookup("llm.prompt")
	schema := def.Schema()

	tests := []struct {
		name    string
		patch   map[string]any
		wantErr bool
	}{
		{"valid number", map[string]any{"temperature": 1.2}, false},
		{"int number", map[string]any{"temperature": 1}, false},
		{"above maximum", map[string]any{"temperature": 3.0}, true},
		{"below minimum", map[string]any{"temperature": -1.0}, true},
		{"number as string", map[string]any{"temperature": "hot"}, true},
		{"enum member", map[string]any{"model": "large"}, false},
		{"enum outsider", map[string]any{"model": "huge"}, true},
		{"bool", map[string]any{"stream": true}, false},
		{"bool as string", map[string]any{"stream": "yes"}, true},
		{"undeclared", map[string]any{"label": 42}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.CheckPatch(tt.patch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckPatch(%v) error = %v, wantErr %v", tt.patch, err, tt.wantErr)
			}
			if err != nil && !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", ferrors.GetCode(err), ferrors.ErrCodeInvalidInput)
			}
		})
	}
}
