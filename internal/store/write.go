package store

import (
	"context"
	"fmt"

	"github.com/roach88/canvapress/internal/ir"
)

// PutArtifact stores an artifact and its manifest.
// Returns whether a new row was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: the ID is the artifact's
// content hash, so a second put of the same bytes is silently ignored and
// keeps the original seq and label.
//
// The manifest must describe data; a mismatched ArtifactID is rejected.
func (s *Store) PutArtifact(ctx context.Context, m ir.Manifest, data []byte, seq int64) (bool, error) {
	if got := ir.ArtifactID(data); got != m.ArtifactID {
		return false, fmt.Errorf("put artifact: manifest id %s does not match data id %s", m.ArtifactID, got)
	}

	manifestJSON, err := marshalManifest(m)
	if err != nil {
		return false, fmt.Errorf("put artifact: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts
		(id, payload_id, label, n, touched_cells, pages, size, manifest, seq, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		m.ArtifactID,
		m.PayloadID,
		m.Label,
		m.N,
		m.TouchedCells,
		m.Pages,
		m.Size,
		manifestJSON,
		seq,
		data,
	)
	if err != nil {
		return false, fmt.Errorf("put artifact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put artifact: rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING - duplicate run IDs are silently ignored.
// Other constraint violations (unknown op or status) still return errors.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, op, artifact_id, status, error_kind, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Op,
		run.ArtifactID,
		run.Status,
		run.ErrorKind,
		run.Seq,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}
