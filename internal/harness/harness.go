package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/canvapress/internal/cvp"
	"github.com/roach88/canvapress/internal/ir"
)

// Harness executes scenarios. Every scenario owns its own codec state, so
// one Harness can run many scenarios concurrently.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for per-scenario progress.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// RunAll executes scenarios with a default Harness.
func RunAll(ctx context.Context, scenarios []*Scenario, parallel int) ([]*Result, error) {
	return New().RunAll(ctx, scenarios, parallel)
}

// Run executes one scenario.
//
// Execution flow:
//  1. Build the payload
//  2. Encode it twice (determinism)
//  3. Apply corruptions to the artifact
//  4. Build the manifest (when the artifact is well-formed)
//  5. Decode and compare with the payload
//  6. Evaluate expectations
//
// Codec failures are part of the Result. The returned error is reserved for
// scenarios that cannot be executed at all (bad payload spec, corruption
// that does not fit the artifact, cancelled context).
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewResult(s.Name)

	payload, err := BuildPayload(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	result.PayloadSize = len(payload)

	artifact, err := cvp.Encode(payload)
	if err != nil {
		recordFailure(result, StageEncode, err)
		h.finish(s, result)
		return result, nil
	}

	again, err := cvp.Encode(payload)
	result.Deterministic = err == nil && bytes.Equal(artifact, again)

	artifact, err = ApplyCorruptions(artifact, s.Corrupt)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	if m, err := ir.NewManifest(artifact); err == nil {
		m = m.WithPayload(payload)
		result.Manifest = &m
	}

	decoded, err := cvp.Decode(artifact)
	if err != nil {
		recordFailure(result, StageDecode, err)
	} else {
		result.RoundTripped = bytes.Equal(decoded, payload)
	}

	h.finish(s, result)
	return result, nil
}

func (h *Harness) finish(s *Scenario, result *Result) {
	for _, msg := range EvaluateExpectations(s.Expect, result) {
		result.AddError(msg)
	}
	h.logger.Debug("scenario finished",
		"name", s.Name,
		"pass", result.Pass,
		"payload_size", result.PayloadSize,
		"error_kind", result.ErrorKind,
	)
}

func recordFailure(r *Result, stage string, err error) {
	r.Stage = stage
	r.Error = err.Error()
	r.ErrorKind = string(cvp.KindOf(err))
	if r.ErrorKind == "" {
		r.ErrorKind = "UNKNOWN"
	}
}

// RunAll executes scenarios with at most parallel running at once
// (parallel <= 0 means one at a time). Results are returned in input
// order. The first execution error cancels the remaining scenarios.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario, parallel int) ([]*Result, error) {
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]*Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, s := range scenarios {
		g.Go(func() error {
			r, err := h.Run(gctx, s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
