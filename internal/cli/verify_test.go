package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canvapress/internal/store"
)

func TestVerifyPasses(t *testing.T) {
	stdout, _, err := execute(t, nil, "verify", writePayload(t, bytes.Repeat([]byte{0xAB}, 600)))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Verified 600 bytes")
}

func TestVerifyJSON(t *testing.T) {
	stdout, _, err := execute(t, nil, "--format", "json", "verify", writePayload(t, []byte("abc")))
	require.NoError(t, err)

	var result VerifyResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.OK())
	assert.Equal(t, 3, result.PayloadSize)
	assert.Len(t, result.ArtifactID, 64)
}

func TestVerifyEmptyPayload(t *testing.T) {
	stdout, _, err := execute(t, nil, "--format", "json", "verify", writePayload(t, nil))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result VerifyResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
	assert.Equal(t, "INPUT", result.ErrorKind)
	assert.False(t, result.OK())
}

func TestVerifyPayloadRecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	opts := &RootOptions{RunIDs: store.NewFixedGenerator("v1")}

	_, _, err := execute(t, opts, "verify", writePayload(t, []byte("abc")), "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.OpVerify, runs[0].Op)
	assert.Equal(t, store.StatusOK, runs[0].Status)

	artifacts, err := st.ListArtifacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, artifacts, "verify does not store artifacts")
}

func TestVerifyPayloadFunc(t *testing.T) {
	result, err := verifyPayload([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.True(t, result.Deterministic)
	assert.True(t, result.RoundTripped)
	assert.Empty(t, result.ErrorKind)
}
