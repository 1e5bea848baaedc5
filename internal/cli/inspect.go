package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database   string
	HeaderOnly bool
}

// InspectResult is the JSON payload of a full inspect.
type InspectResult struct {
	Manifest   ir.Manifest `json:"manifest"`
	ManifestID string      `json:"manifest_id"`

	// Cataloged and Runs are only set with --db.
	Cataloged bool      `json:"cataloged,omitempty"`
	Runs      []RunView `json:"runs,omitempty"`
}

// HeaderView is the JSON payload of inspect --header.
type HeaderView struct {
	Format string `json:"format"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	N      uint32 `json:"n"`
	Limit  uint64 `json:"limit"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Print an artifact's manifest without decoding it",
		Long: `Parse a CVP1 artifact and print its manifest: content IDs, header fields,
entry and page counts, and the total weight erased from each lane.

Inspect performs the same structural checks as decode but does not replay
any step, so a structurally valid artifact can inspect cleanly and still
fail to decode. --header validates and prints only the fixed header.

With --db the catalog's payload ID and label are merged into the manifest
when the artifact is stored, and every run recorded against it is listed.

Examples:
  canvapress inspect photo.cvp
  canvapress inspect photo.cvp --header
  canvapress inspect photo.cvp --db catalog.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database to look the artifact up in")
	cmd.Flags().BoolVar(&opts.HeaderOnly, "header", false, "print only the fixed header")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	artifact, err := readInput(cmd, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading artifact: %v", err), nil)
	}

	if opts.HeaderOnly {
		return printHeader(formatter, artifact)
	}

	m, err := ir.NewManifest(artifact)
	if err != nil {
		return formatter.Fail(ExitFailure, CodeForError(err), err.Error(), nil)
	}

	var result InspectResult
	if opts.Database != "" {
		result, err = catalogView(commandContext(cmd), opts.Database, m)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
		}
	} else {
		result.Manifest = m
	}

	result.ManifestID, err = ir.ManifestID(result.Manifest)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printManifest(formatter, result)
	return nil
}

// catalogView enriches m with what the catalog knows about its artifact.
func catalogView(ctx context.Context, path string, m ir.Manifest) (InspectResult, error) {
	sess, err := openCatalog(ctx, path, nil)
	if err != nil {
		return InspectResult{}, fmt.Errorf("opening catalog: %w", err)
	}
	defer sess.Close()

	result := InspectResult{Manifest: m}
	rec, err := sess.st.GetArtifact(ctx, m.ArtifactID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return InspectResult{}, fmt.Errorf("reading artifact: %w", err)
	default:
		result.Cataloged = true
		result.Manifest = m.WithLabel(rec.Label)
		result.Manifest.PayloadID = rec.PayloadID
	}

	runs, err := sess.st.RunsForArtifact(ctx, m.ArtifactID)
	if err != nil {
		return InspectResult{}, fmt.Errorf("reading runs: %w", err)
	}
	result.Runs = make([]RunView, 0, len(runs))
	for _, r := range runs {
		result.Runs = append(result.Runs, RunView(r))
	}
	return result, nil
}

func printHeader(f *OutputFormatter, artifact []byte) error {
	h, err := cvp.ReadHeader(artifact)
	if err != nil {
		return f.Fail(ExitFailure, CodeForError(err), err.Error(), nil)
	}
	view := HeaderView{Format: cvp.Magic, Width: h.Width, Height: h.Height, N: h.N, Limit: h.Limit}

	if f.JSON() {
		return f.Success(view)
	}
	fmt.Fprintf(f.Writer, "format: %s %dx%d\n", view.Format, view.Width, view.Height)
	fmt.Fprintf(f.Writer, "n:      %d\n", view.N)
	fmt.Fprintf(f.Writer, "limit:  %d\n", view.Limit)
	return nil
}

func printManifest(f *OutputFormatter, result InspectResult) {
	m := result.Manifest
	w := f.Writer
	fmt.Fprintf(w, "artifact:      %s\n", m.ArtifactID)
	fmt.Fprintf(w, "manifest:      %s\n", result.ManifestID)
	if m.PayloadID != "" {
		fmt.Fprintf(w, "payload:       %s\n", m.PayloadID)
	}
	if m.Label != "" {
		fmt.Fprintf(w, "label:         %s\n", m.Label)
	}
	fmt.Fprintf(w, "format:        %s %dx%d\n", m.Format, m.Width, m.Height)
	fmt.Fprintf(w, "payload size:  %d\n", m.N)
	fmt.Fprintf(w, "artifact size: %d\n", m.Size)
	fmt.Fprintf(w, "touched cells: %d\n", m.TouchedCells)
	fmt.Fprintf(w, "pages:         %d\n", m.Pages)
	fmt.Fprintf(w, "marked steps:  %d\n", m.MarkedSteps)
	fmt.Fprintf(w, "erased R:      %d\n", m.ErasedR)
	fmt.Fprintf(w, "erased G:      %d\n", m.ErasedG)
	if m.OverfullCells > 0 || m.MarkedSteps != m.N {
		fmt.Fprintf(w, "⚠ artifact is damaged: %d overfull lanes, %d marked steps for N=%d\n",
			m.OverfullCells, m.MarkedSteps, m.N)
	}

	if result.Runs == nil {
		return
	}
	if result.Cataloged {
		fmt.Fprintln(w, "catalog:       stored")
	} else {
		fmt.Fprintln(w, "catalog:       not stored")
	}
	fmt.Fprintf(w, "Runs (%d):\n", len(result.Runs))
	for _, r := range result.Runs {
		status := r.Status
		if r.ErrorKind != "" {
			status += " " + r.ErrorKind
		}
		fmt.Fprintf(w, "  %4d  %-6s  %s\n", r.Seq, r.Op, status)
	}
}
