package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/canvapress/internal/ir"
	"github.com/roach88/canvapress/internal/store"
)

// catalogSession bundles an open catalog with the clock and ID generator
// used to stamp rows written during one command.
type catalogSession struct {
	st    *store.Store
	clock *store.Clock
	ids   store.RunIDGenerator
}

// openCatalog opens the catalog at path and resumes its clock.
func openCatalog(ctx context.Context, path string, ids store.RunIDGenerator) (*catalogSession, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	clock, err := st.ResumeClock(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	slog.Debug("catalog opened", "path", path, "seq", clock.Current())
	return &catalogSession{st: st, clock: clock, ids: ids}, nil
}

func (c *catalogSession) Close() {
	if err := c.st.Close(); err != nil {
		slog.Error("error closing catalog", "error", err)
	}
}

// putArtifact stores an artifact at the next seq.
func (c *catalogSession) putArtifact(ctx context.Context, m ir.Manifest, data []byte) (bool, error) {
	return c.st.PutArtifact(ctx, m, data, c.clock.Next())
}

// recordRun writes one run row. kind is empty for a successful run.
func (c *catalogSession) recordRun(ctx context.Context, op, artifactID, kind string) error {
	run := store.Run{
		ID:         c.ids.Generate(),
		Op:         op,
		ArtifactID: artifactID,
		Status:     store.StatusOK,
		Seq:        c.clock.Next(),
	}
	if kind != "" {
		run.Status = store.StatusError
		run.ErrorKind = kind
	}
	if err := c.st.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("record %s run: %w", op, err)
	}
	slog.Debug("run recorded", "op", op, "id", run.ID, "status", run.Status, "seq", run.Seq)
	return nil
}

// maybeOpenCatalog opens the catalog when path is set and returns nil
// otherwise.
func maybeOpenCatalog(ctx context.Context, path string, ids store.RunIDGenerator) (*catalogSession, error) {
	if path == "" {
		return nil, nil
	}
	return openCatalog(ctx, path, ids)
}
