package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the full command tree with args and returns stdout, stderr
// and the command error. opts may preset RunIDs; nil uses defaults.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()

	if opts == nil {
		opts = &RootOptions{}
	}
	cmd := newRootCommand(opts)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writePayload writes data to a temp file and returns its path.
func writePayload(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// encodeFile encodes payload via the CLI and returns the artifact path.
func encodeFile(t *testing.T, payload []byte, extra ...string) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "artifact.cvp")
	args := append([]string{"encode", writePayload(t, payload), "-o", out}, extra...)
	_, _, err := execute(t, nil, args...)
	require.NoError(t, err)
	return out
}

// decodeResponse parses a JSON CLIResponse, decoding Data into data.
func decodeResponse(t *testing.T, stdout string, data any) CLIResponse {
	t.Helper()

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw), "stdout: %s", stdout)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
