package store

import (
	"context"
	"testing"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
)

// firstMaskOffset is the byte offset of the first page mask in an artifact:
// header, both planes, entry count, then pidx u32, pagecount u16, page u32.
const firstMaskOffset = 24 + 2*cvp.Cells*8 + 4 + 4 + 2 + 4

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	last, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if last != 0 {
		t.Errorf("empty catalog LastSeq = %d, want 0", last)
	}

	data, m := encodeTestArtifact(t, "x")
	if _, err := s.PutArtifact(ctx, m, data, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRun(ctx, Run{ID: "r", Op: OpEncode, Status: StatusOK, Seq: 9}); err != nil {
		t.Fatal(err)
	}

	last, err = s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if last != 9 {
		t.Errorf("LastSeq = %d, want 9", last)
	}
}

func TestReplayArtifacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	good, goodManifest := encodeTestArtifact(t, "round trip")
	if _, err := s.PutArtifact(ctx, goodManifest, good, 1); err != nil {
		t.Fatal(err)
	}

	// Set a mask bit for step 7 in a 3-step artifact: a stray step.
	bad, err := cvp.Encode([]byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	bad[firstMaskOffset] ^= 0x80
	badManifest, err := ir.NewManifest(bad)
	if err != nil {
		t.Fatalf("NewManifest(corrupt) failed: %v", err)
	}
	if _, err := s.PutArtifact(ctx, badManifest, bad, 2); err != nil {
		t.Fatal(err)
	}

	// Right artifact, wrong recorded payload.
	other, otherManifest := encodeTestArtifact(t, "other")
	otherManifest = otherManifest.WithPayload([]byte("not other"))
	if _, err := s.PutArtifact(ctx, otherManifest, other, 3); err != nil {
		t.Fatal(err)
	}

	results, err := s.ReplayArtifacts(ctx)
	if err != nil {
		t.Fatalf("ReplayArtifacts() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if !results[0].OK || results[0].ArtifactID != goodManifest.ArtifactID {
		t.Errorf("results[0] = %+v, want OK for the good artifact", results[0])
	}
	if results[1].OK || results[1].ErrorKind != string(cvp.KindConsistency) {
		t.Errorf("results[1] = %+v, want CONSISTENCY", results[1])
	}
	if results[2].OK || results[2].ErrorKind != KindPayloadMismatch {
		t.Errorf("results[2] = %+v, want %s", results[2], KindPayloadMismatch)
	}
}

func TestReplayArtifacts_Cancelled(t *testing.T) {
	s := createTestStore(t)
	data, m := encodeTestArtifact(t, "x")
	if _, err := s.PutArtifact(context.Background(), m, data, 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.ReplayArtifacts(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
