package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Database string
	Replay   bool
}

// ArtifactView is the JSON form of a catalog artifact.
type ArtifactView struct {
	ID           string `json:"id"`
	PayloadID    string `json:"payload_id,omitempty"`
	Label        string `json:"label,omitempty"`
	N            int64  `json:"n"`
	TouchedCells int64  `json:"touched_cells"`
	Pages        int64  `json:"pages"`
	Size         int64  `json:"size"`
	Seq          int64  `json:"seq"`
}

// RunView is the JSON form of a recorded run.
type RunView struct {
	ID         string `json:"id"`
	Op         string `json:"op"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Status     string `json:"status"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Seq        int64  `json:"seq"`
}

// ReplayView is the JSON form of one replayed artifact.
type ReplayView struct {
	ArtifactID string `json:"artifact_id"`
	OK         bool   `json:"ok"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CatalogResult is the JSON payload of the catalog command.
type CatalogResult struct {
	Artifacts []ArtifactView `json:"artifacts"`
	Runs      []RunView      `json:"runs"`
	Replay    []ReplayView   `json:"replay,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog artifacts and runs",
		Long: `List the artifacts and runs recorded in a catalog database, in seq order.

With --replay every stored artifact is decoded again and checked against
the payload ID recorded when it was encoded.

Exit codes:
  0 - Listing succeeded (and every artifact replayed cleanly)
  1 - At least one stored artifact failed to replay
  2 - Command error (missing --db, unreadable catalog)

Examples:
  canvapress catalog --db catalog.db
  canvapress catalog --db catalog.db --replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Replay, "replay", false, "re-decode every stored artifact")

	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := openCatalog(ctx, opts.Database, opts.RunIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	defer sess.Close()

	artifacts, err := sess.st.ListArtifacts(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}
	runs, err := sess.st.ListRuns(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}

	result := CatalogResult{
		Artifacts: make([]ArtifactView, 0, len(artifacts)),
		Runs:      make([]RunView, 0, len(runs)),
	}
	for _, a := range artifacts {
		result.Artifacts = append(result.Artifacts, ArtifactView(a))
	}
	for _, r := range runs {
		result.Runs = append(result.Runs, RunView(r))
	}

	failed := 0
	if opts.Replay {
		replays, err := sess.st.ReplayArtifacts(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
		}
		result.Replay = make([]ReplayView, 0, len(replays))
		for _, r := range replays {
			v := ReplayView{ArtifactID: r.ArtifactID, OK: r.OK, ErrorKind: r.ErrorKind}
			if r.Err != nil {
				v.Error = r.Err.Error()
				failed++
			}
			result.Replay = append(result.Replay, v)
		}
	}

	if formatter.JSON() {
		if failed > 0 {
			return formatter.Fail(ExitFailure, ErrCodeReplay,
				fmt.Sprintf("%d artifact(s) failed to replay", failed), result)
		}
		return formatter.Success(result)
	}

	printCatalog(formatter, result, opts.Replay)
	if failed > 0 {
		return formatter.Fail(ExitFailure, ErrCodeReplay, fmt.Sprintf("%d artifact(s) failed to replay", failed), nil)
	}
	return nil
}

func printCatalog(f *OutputFormatter, result CatalogResult, replayed bool) {
	w := f.Writer

	fmt.Fprintf(w, "Artifacts (%d):\n", len(result.Artifacts))
	for _, a := range result.Artifacts {
		label := a.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "  %4d  %s  n=%d  pages=%d  %s\n", a.Seq, shortID(a.ID), a.N, a.Pages, label)
	}

	fmt.Fprintf(w, "Runs (%d):\n", len(result.Runs))
	for _, r := range result.Runs {
		status := r.Status
		if r.ErrorKind != "" {
			status += " " + r.ErrorKind
		}
		fmt.Fprintf(w, "  %4d  %-6s  %s  %s\n", r.Seq, r.Op, shortID(r.ArtifactID), status)
	}

	if !replayed {
		return
	}
	fmt.Fprintln(w, "Replay:")
	for _, r := range result.Replay {
		if r.OK {
			fmt.Fprintf(w, "  ✓ %s\n", shortID(r.ArtifactID))
		} else {
			fmt.Fprintf(w, "  ✗ %s  %s: %s\n", shortID(r.ArtifactID), r.ErrorKind, r.Error)
		}
	}
}

// shortID abbreviates a content hash for text output.
func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
