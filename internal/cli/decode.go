package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
	"github.com/roach88/canvapress/internal/store"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Output   string
	Database string
	ID       string // catalog artifact ID, instead of an artifact file
}

// DecodeResult is the JSON payload of a successful decode.
type DecodeResult struct {
	Output     string `json:"output"`
	ArtifactID string `json:"artifact_id"`
	PayloadID  string `json:"payload_id"`
	Size       int    `json:"size"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [artifact]",
		Short: "Decode a CVP1 artifact back into its payload",
		Long: `Decode a CVP1 artifact file, or a catalog artifact selected with --id.

Decoding replays every mutation in reverse and verifies that the grid ends
up full and the visited-step set empty. Any violation aborts the decode and
no output is written.

Exit codes:
  0 - Payload written
  1 - Artifact rejected (format, consistency, capacity or integrity error)
  2 - Command error (unreadable input, unknown --id, catalog error)

Examples:
  canvapress decode photo.cvp -o photo.bin
  canvapress decode --db catalog.db --id 3f2a... -o notes.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "payload output path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database to read from and record the run in")
	cmd.Flags().StringVar(&opts.ID, "id", "", "decode the catalog artifact with this ID (requires --db)")

	return cmd
}

func runDecode(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	if (len(args) == 1) == (opts.ID != "") {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "exactly one of <artifact> or --id is required", nil)
	}
	if opts.ID != "" && opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "--id requires --db", nil)
	}

	sess, err := maybeOpenCatalog(ctx, opts.Database, opts.RunIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	if sess != nil {
		defer sess.Close()
	}

	var artifact []byte
	if opts.ID != "" {
		rec, err := sess.st.GetArtifact(ctx, opts.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("artifact %s not in catalog", opts.ID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("reading artifact: %v", err), nil)
		}
		artifact = rec.Data
		formatter.VerboseLog("Loaded artifact %s (seq %d) from catalog", rec.ID, rec.Seq)
	} else {
		artifact, err = readInput(cmd, args[0])
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading artifact: %v", err), nil)
		}
	}

	artifactID := ir.ArtifactID(artifact)
	payload, decErr := cvp.Decode(artifact)

	if sess != nil {
		if err := sess.recordRun(ctx, store.OpDecode, artifactID, kindName(decErr)); err != nil {
			slog.Error("failed to record run", "error", err)
		}
	}
	if decErr != nil {
		return formatter.Fail(ExitFailure, CodeForError(decErr), decErr.Error(),
			map[string]string{"artifact_id": artifactID})
	}

	if err := writeOutput(opts.Output, payload); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing payload: %v", err), nil)
	}

	result := DecodeResult{
		Output:     opts.Output,
		ArtifactID: artifactID,
		PayloadID:  ir.PayloadID(payload),
		Size:       len(payload),
	}
	slog.Debug("decoded", "n", len(payload), "artifact_id", artifactID, "output", opts.Output)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Decoded %d bytes into %s\n", result.Size, result.Output)
	fmt.Fprintf(formatter.Writer, "  payload: %s\n", result.PayloadID)
	return nil
}
