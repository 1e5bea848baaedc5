package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetArtifact retrieves a single artifact by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetArtifact(ctx context.Context, id string) (ArtifactRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, payload_id, label, n, touched_cells, pages, size, seq, manifest, data
		FROM artifacts
		WHERE id = ?
	`, id)

	var rec ArtifactRecord
	var manifestJSON string
	if err := row.Scan(
		&rec.ID, &rec.PayloadID, &rec.Label, &rec.N, &rec.TouchedCells,
		&rec.Pages, &rec.Size, &rec.Seq, &manifestJSON, &rec.Data,
	); err != nil {
		return ArtifactRecord{}, err
	}

	m, err := unmarshalManifest(manifestJSON)
	if err != nil {
		return ArtifactRecord{}, err
	}
	rec.Manifest = m

	return rec, nil
}

// ListArtifacts returns every artifact without its bytes.
// Results ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when the catalog is empty.
func (s *Store) ListArtifacts(ctx context.Context) ([]ArtifactSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload_id, label, n, touched_cells, pages, size, seq
		FROM artifacts
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	summaries := []ArtifactSummary{}
	for rows.Next() {
		var a ArtifactSummary
		if err := rows.Scan(&a.ID, &a.PayloadID, &a.Label, &a.N, &a.TouchedCells, &a.Pages, &a.Size, &a.Seq); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		summaries = append(summaries, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}

	return summaries, nil
}

// ListRuns returns every run with deterministic ordering.
// Returns an empty slice (not nil) when no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, op, artifact_id, status, error_kind, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// RunsForArtifact returns the runs that touched one artifact.
func (s *Store) RunsForArtifact(ctx context.Context, artifactID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, op, artifact_id, status, error_kind, seq
		FROM runs
		WHERE artifact_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("query runs for artifact: %w", err)
	}
	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Op, &r.ArtifactID, &r.Status, &r.ErrorKind, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
