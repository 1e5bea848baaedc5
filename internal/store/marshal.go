package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/canvapress/internal/ir"
)

// marshalManifest converts a Manifest to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal manifests store byte-identical text.
func marshalManifest(m ir.Manifest) (string, error) {
	data, err := m.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	return string(data), nil
}

// unmarshalManifest parses canonical JSON TEXT back into a Manifest.
// The erased totals are stored as decimal strings, which the Manifest
// struct tags decode without float64 precision loss.
func unmarshalManifest(data string) (ir.Manifest, error) {
	var m ir.Manifest
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return ir.Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}
