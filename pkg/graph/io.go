package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// Payload Serialization API
// =============================================================================

// MarshalPayload encodes p as indented JSON.
func MarshalPayload(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePayload(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalPayload decodes a payload from JSON bytes.
func UnmarshalPayload(data []byte) (Payload, error) {
	return ReadPayload(bytes.NewReader(data))
}

// WritePayload writes p as indented JSON to w.
func WritePayload(p Payload, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadPayload decodes a payload from r.
func ReadPayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode: %w", err)
	}
	return p, nil
}

// WritePayloadFile writes p to path. The file is replaced atomically.
func WritePayloadFile(p Payload, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".payload-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := WritePayload(p, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadPayloadFile reads a payload from a JSON file.
func ReadPayloadFile(path string) (Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return Payload{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPayload(f)
}
