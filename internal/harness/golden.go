package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/canvapress/internal/ir"
)

// Snapshot returns the canonical JSON compared against golden files: the
// scenario name, the manifest of the decoded artifact (if any) and the
// codec outcome.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	outcome := ir.IRObject{
		"deterministic": ir.IRBool(result.Deterministic),
		"round_tripped": ir.IRBool(result.RoundTripped),
	}
	if result.ErrorKind != "" {
		outcome["error_kind"] = ir.IRString(result.ErrorKind)
		outcome["stage"] = ir.IRString(result.Stage)
	}

	snap := ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"payload_size":  ir.IRInt(result.PayloadSize),
		"outcome":       outcome,
	}
	if result.Manifest != nil {
		snap["manifest"] = result.Manifest.IR()
	}
	return ir.MarshalCanonical(snap)
}

// AssertGolden compares a result's snapshot against
// testdata/golden/{scenarioName}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
