package harness

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestdataScenarios(t *testing.T) []*Scenario {
	t.Helper()
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		require.NoError(t, err, f)
		scenarios = append(scenarios, s)
	}
	return scenarios
}

func TestRun_TestdataScenarios(t *testing.T) {
	for _, s := range loadTestdataScenarios(t) {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)

			if s.Golden {
				require.NoError(t, AssertGolden(t, s.Name, result))
			}
		})
	}
}

func TestRun_Roundtrip(t *testing.T) {
	s := &Scenario{
		Name:    "rt",
		Payload: PayloadSpec{Hex: "0a141e"},
		Expect:  Expectation{Roundtrip: true},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.True(t, result.Deterministic)
	assert.True(t, result.RoundTripped)
	assert.Equal(t, 3, result.PayloadSize)
	assert.Empty(t, result.ErrorKind)
	require.NotNil(t, result.Manifest)
	assert.Equal(t, int64(3), result.Manifest.TouchedCells)
	assert.NotEmpty(t, result.Manifest.PayloadID)
}

func TestRun_EncodeFailure(t *testing.T) {
	s := &Scenario{
		Name:    "too_big",
		Payload: PayloadSpec{Repeat: &RepeatSpec{Byte: 1, Count: 1<<24 + 1}},
		Expect:  Expectation{Error: "input"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, StageEncode, result.Stage)
	assert.Equal(t, "INPUT", result.ErrorKind)
	assert.Nil(t, result.Manifest)
}

func TestRun_ExpectationFailures(t *testing.T) {
	t.Run("wrong error kind", func(t *testing.T) {
		s := &Scenario{
			Name:    "x",
			Payload: PayloadSpec{Hex: "01"},
			Corrupt: []Corruption{{Op: OpSetMagic, Magic: "NOPE"}},
			Expect:  Expectation{Error: "integrity"},
		}
		result, err := Run(s)
		require.NoError(t, err)
		assert.False(t, result.Pass)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "expected INTEGRITY, got FORMAT")
		assert.Nil(t, result.Manifest, "malformed artifacts have no manifest")
	})

	t.Run("error expected but none", func(t *testing.T) {
		s := &Scenario{
			Name:    "x",
			Payload: PayloadSpec{Hex: "01"},
			Expect:  Expectation{Error: "consistency"},
		}
		result, err := Run(s)
		require.NoError(t, err)
		assert.False(t, result.Pass)
		assert.Contains(t, result.Errors[0], "got success")
	})

	t.Run("max entries", func(t *testing.T) {
		one := 1
		s := &Scenario{
			Name:    "x",
			Payload: PayloadSpec{Hex: "0102"},
			Expect:  Expectation{Roundtrip: true, MaxEntries: &one},
		}
		result, err := Run(s)
		require.NoError(t, err)
		assert.False(t, result.Pass)
		assert.Contains(t, result.Errors[0], "expect.max_entries")
	})
}

func TestRun_ExecutionErrors(t *testing.T) {
	s := &Scenario{
		Name:    "bad_corrupt",
		Payload: PayloadSpec{Hex: "01"},
		Corrupt: []Corruption{{Op: OpFlipMaskBit, Entry: 5}},
		Expect:  Expectation{Error: "consistency"},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_corrupt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Run(ctx, &Scenario{Name: "x", Payload: PayloadSpec{Hex: "01"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll_PreservesOrder(t *testing.T) {
	scenarios := loadTestdataScenarios(t)

	results, err := RunAll(context.Background(), scenarios, 4)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name)
		assert.True(t, r.Pass, "%s: %v", r.Name, r.Errors)
	}
}

func TestRunAll_StopsOnExecutionError(t *testing.T) {
	scenarios := []*Scenario{
		{Name: "ok", Payload: PayloadSpec{Hex: "01"}, Expect: Expectation{Roundtrip: true}},
		{Name: "broken", Payload: PayloadSpec{}, Expect: Expectation{Roundtrip: true}},
	}
	_, err := RunAll(context.Background(), scenarios, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestHarness_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := New(WithLogger(logger))
	_, err := h.Run(context.Background(), &Scenario{
		Name:    "logged",
		Payload: PayloadSpec{Hex: "01"},
		Expect:  Expectation{Roundtrip: true},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario finished")
	assert.Contains(t, buf.String(), "name=logged")
}

func TestSnapshot_OmitsManifestWhenMalformed(t *testing.T) {
	r := NewResult("x")
	r.Stage = StageDecode
	r.ErrorKind = "FORMAT"

	data, err := Snapshot("x", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"outcome":{"deterministic":false,"error_kind":"FORMAT","round_tripped":false,"stage":"decode"},"payload_size":0,"scenario_name":"x"}`,
		string(data))
}
