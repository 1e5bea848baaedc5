package harness

import (
	"fmt"
	"strings"
)

// ExpectationError is a failed expectation with context.
type ExpectationError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpectations checks a result against an Expectation and returns
// one message per failed check.
func EvaluateExpectations(expect Expectation, r *Result) []string {
	var errs []string
	add := func(err *ExpectationError) {
		errs = append(errs, err.Error())
	}

	if expect.Error != "" {
		want := strings.ToUpper(expect.Error)
		switch {
		case r.ErrorKind == "":
			add(&ExpectationError{Field: "error", Expected: want, Actual: "success"})
		case r.ErrorKind != want:
			add(&ExpectationError{Field: "error", Expected: want, Actual: r.ErrorKind + " (" + r.Error + ")"})
		}
	}

	if expect.Roundtrip {
		switch {
		case r.ErrorKind != "":
			add(&ExpectationError{Field: "roundtrip", Expected: "success", Actual: r.Stage + " failed: " + r.Error})
		case !r.Deterministic:
			add(&ExpectationError{Field: "roundtrip", Expected: "deterministic encoding", Actual: "differing artifacts"})
		case !r.RoundTripped:
			add(&ExpectationError{Field: "roundtrip", Expected: "original payload", Actual: "different bytes"})
		}
	}

	if expect.MaxEntries != nil {
		switch {
		case r.Manifest == nil:
			add(&ExpectationError{Field: "max_entries", Expected: fmt.Sprintf("<= %d", *expect.MaxEntries), Actual: "no manifest"})
		case r.Manifest.TouchedCells > int64(*expect.MaxEntries):
			add(&ExpectationError{
				Field:    "max_entries",
				Expected: fmt.Sprintf("<= %d", *expect.MaxEntries),
				Actual:   fmt.Sprintf("%d", r.Manifest.TouchedCells),
			})
		}
	}

	return errs
}
