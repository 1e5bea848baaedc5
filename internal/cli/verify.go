package cli

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
	"github.com/roach88/canvapress/internal/store"
)

// kindMismatch is recorded for verify runs whose codec calls succeeded but
// whose outputs disagree.
const kindMismatch = "MISMATCH"

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// VerifyResult reports a payload's round trip.
type VerifyResult struct {
	PayloadSize   int    `json:"payload_size"`
	ArtifactID    string `json:"artifact_id,omitempty"`
	Deterministic bool   `json:"deterministic"`
	RoundTripped  bool   `json:"round_tripped"`
	ErrorKind     string `json:"error_kind,omitempty"`
}

// OK reports whether the payload verified.
func (r VerifyResult) OK() bool {
	return r.ErrorKind == "" && r.Deterministic && r.RoundTripped
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <payload>",
		Short: "Check that a payload round-trips exactly",
		Long: `Encode a payload twice, decode the artifact, and compare.

Verification passes when both encodings are byte-identical and decoding
returns the original payload. Nothing is written to disk; with --db the
result is recorded as a verify run.

Exit codes:
  0 - Payload verified
  1 - Encoding failed, was non-deterministic, or decoding differed
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database to record the run in")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	payload, err := readInput(cmd, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading payload: %v", err), nil)
	}

	sess, err := maybeOpenCatalog(ctx, opts.Database, opts.RunIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	if sess != nil {
		defer sess.Close()
	}

	result, codecErr := verifyPayload(payload)

	if sess != nil {
		kind := result.ErrorKind
		if kind == "" && !result.OK() {
			kind = kindMismatch
		}
		if err := sess.recordRun(ctx, store.OpVerify, result.ArtifactID, kind); err != nil {
			slog.Error("failed to record run", "error", err)
		}
	}

	switch {
	case codecErr != nil:
		return formatter.Fail(ExitFailure, CodeForError(codecErr), codecErr.Error(), result)
	case !result.Deterministic:
		return formatter.Fail(ExitFailure, ErrCodeMismatch, "encoding is not deterministic", result)
	case !result.RoundTripped:
		return formatter.Fail(ExitFailure, ErrCodeMismatch, "decoded payload differs from input", result)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Verified %d bytes (artifact %s)\n", result.PayloadSize, result.ArtifactID)
	return nil
}

// verifyPayload runs the round trip. The returned error is the first codec
// failure; mismatches are reported in the result only.
func verifyPayload(payload []byte) (VerifyResult, error) {
	result := VerifyResult{PayloadSize: len(payload)}

	first, err := cvp.Encode(payload)
	if err != nil {
		result.ErrorKind = kindName(err)
		return result, err
	}
	result.ArtifactID = ir.ArtifactID(first)

	second, err := cvp.Encode(payload)
	if err != nil {
		result.ErrorKind = kindName(err)
		return result, err
	}
	result.Deterministic = bytes.Equal(first, second)

	decoded, err := cvp.Decode(first)
	if err != nil {
		result.ErrorKind = kindName(err)
		return result, err
	}
	result.RoundTripped = bytes.Equal(decoded, payload)

	return result, nil
}
