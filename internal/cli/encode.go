package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
	"github.com/roach88/canvapress/internal/store"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output   string
	Database string
	Label    string
}

// EncodeResult is the JSON payload of a successful encode.
type EncodeResult struct {
	Output   string      `json:"output"`
	Stored   bool        `json:"stored"`
	Manifest ir.Manifest `json:"manifest"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <payload>",
		Short: "Encode a payload into a CVP1 artifact",
		Long: `Encode a payload file (or stdin with "-") into a CVP1 artifact.

With --db the artifact and its manifest are stored in the catalog and the
encode is recorded as a run before the output file is written. Encoding is deterministic, so storing the
same payload twice keeps a single catalog entry.

Exit codes:
  0 - Artifact written
  1 - Payload rejected by the codec (empty or too large)
  2 - Command error (unreadable input, unwritable output, catalog error)

Examples:
  canvapress encode photo.bin -o photo.cvp
  canvapress encode notes.txt -o notes.cvp --db catalog.db --label notes
  cat data | canvapress encode - -o data.cvp`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "artifact output path (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database to record the artifact in")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label stored with the artifact")

	return cmd
}

func runEncode(opts *EncodeOptions, input string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	payload, err := readInput(cmd, input)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading payload: %v", err), nil)
	}
	formatter.VerboseLog("Read %d payload bytes from %s", len(payload), input)

	sess, err := maybeOpenCatalog(ctx, opts.Database, opts.RunIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	if sess != nil {
		defer sess.Close()
	}

	artifact, encErr := cvp.Encode(payload)
	if encErr != nil {
		if sess != nil {
			if err := sess.recordRun(ctx, store.OpEncode, "", kindName(encErr)); err != nil {
				slog.Error("failed to record run", "error", err)
			}
		}
		return formatter.Fail(ExitFailure, CodeForError(encErr), encErr.Error(), nil)
	}

	m, err := ir.NewManifest(artifact)
	if err != nil {
		return formatter.Fail(ExitFailure, CodeForError(err), err.Error(), nil)
	}
	m = m.WithPayload(payload).WithLabel(opts.Label)

	// The catalog is written first so a catalog failure leaves no output
	// file behind.
	result := EncodeResult{Output: opts.Output, Manifest: m}
	if sess != nil {
		if err := storeEncoded(ctx, sess, m, artifact, &result); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
		}
	}

	if err := writeOutput(opts.Output, artifact); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing artifact: %v", err), nil)
	}

	slog.Debug("encoded", "n", m.N, "artifact_id", m.ArtifactID, "output", opts.Output)

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Encoded %d bytes into %s\n", m.N, opts.Output)
	fmt.Fprintf(w, "  artifact: %s\n", m.ArtifactID)
	fmt.Fprintf(w, "  cells:    %d touched, %d pages\n", m.TouchedCells, m.Pages)
	if sess != nil {
		if result.Stored {
			fmt.Fprintf(w, "  catalog:  stored in %s\n", opts.Database)
		} else {
			fmt.Fprintf(w, "  catalog:  already present in %s\n", opts.Database)
		}
	}
	return nil
}

func storeEncoded(ctx context.Context, sess *catalogSession, m ir.Manifest, artifact []byte, result *EncodeResult) error {
	inserted, err := sess.putArtifact(ctx, m, artifact)
	if err != nil {
		return fmt.Errorf("storing artifact: %w", err)
	}
	result.Stored = inserted
	return sess.recordRun(ctx, store.OpEncode, m.ArtifactID, "")
}

// commandContext returns the command's context, or Background when the
// command is executed without one (direct Execute in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
