package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// encodeTestArtifact encodes payload and returns its artifact and manifest.
func encodeTestArtifact(t *testing.T, payload string) ([]byte, ir.Manifest) {
	t.Helper()
	data, err := cvp.Encode([]byte(payload))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	m, err := ir.NewManifest(data)
	if err != nil {
		t.Fatalf("NewManifest() failed: %v", err)
	}
	return data, m.WithPayload([]byte(payload))
}
