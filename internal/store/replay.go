package store

import (
	"context"
	"fmt"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
)

// ReplayResult is the outcome of re-decoding one stored artifact.
type ReplayResult struct {
	ArtifactID string
	Seq        int64
	OK         bool

	// ErrorKind is the cvp error kind when decoding failed, or
	// "PAYLOAD_MISMATCH" when the decoded payload does not hash to the
	// recorded payload ID.
	ErrorKind string
	Err       error
}

// KindPayloadMismatch marks a replay whose decoded payload differs from the
// payload ID recorded at encode time.
const KindPayloadMismatch = "PAYLOAD_MISMATCH"

// LastSeq returns the highest seq number used in the catalog.
// Used to resume the logical clock from the correct position.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var artifactSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM artifacts
	`).Scan(&artifactSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from artifacts: %w", err)
	}

	var runSeq int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&runSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from runs: %w", err)
	}

	return max(artifactSeq, runSeq), nil
}

// ReplayArtifacts decodes every stored artifact in seq order and checks the
// result against the recorded payload ID (when one was recorded).
//
// A failed decode is reported in its ReplayResult, not as an error; the
// returned error is reserved for catalog access failures.
func (s *Store) ReplayArtifacts(ctx context.Context) ([]ReplayResult, error) {
	summaries, err := s.ListArtifacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay artifacts: %w", err)
	}

	results := make([]ReplayResult, 0, len(summaries))
	for _, sum := range summaries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		rec, err := s.GetArtifact(ctx, sum.ID)
		if err != nil {
			return results, fmt.Errorf("replay artifacts: load %s: %w", sum.ID, err)
		}
		results = append(results, replayOne(rec))
	}

	return results, nil
}

func replayOne(rec ArtifactRecord) ReplayResult {
	res := ReplayResult{ArtifactID: rec.ID, Seq: rec.Seq}

	payload, err := cvp.Decode(rec.Data)
	if err != nil {
		res.ErrorKind = string(cvp.KindOf(err))
		res.Err = err
		return res
	}

	if rec.PayloadID != "" && ir.PayloadID(payload) != rec.PayloadID {
		res.ErrorKind = KindPayloadMismatch
		res.Err = fmt.Errorf("decoded payload %s, recorded %s", ir.PayloadID(payload), rec.PayloadID)
		return res
	}

	res.OK = true
	return res
}
