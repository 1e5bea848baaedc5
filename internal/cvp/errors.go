package cvp

import (
	"errors"
	"fmt"
)

// Error is the single error type returned by the codec.
//
// Every error is fatal to the encode or decode call that produced it; there
// is no partial result and no retry. Kind carries the failure category:
//   - FORMAT: malformed or incompatible artifact
//   - CAPACITY_EXHAUSTED: an encode step would drive a lane below zero
//   - CAPACITY_EXCEEDED: a decode step would drive a lane above RGLimit
//   - CONSISTENCY: visited-set or step-index bookkeeping does not add up
//   - INTEGRITY: terminal validation failed after a full decode walk
//   - INPUT: the payload cannot be encoded at all (empty or too large)
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Step is the step being processed when the error fired, 0 if none.
	Step uint32
}

// ErrorKind categorizes codec errors.
type ErrorKind string

const (
	KindInput             ErrorKind = "INPUT"
	KindFormat            ErrorKind = "FORMAT"
	KindCapacityExhausted ErrorKind = "CAPACITY_EXHAUSTED"
	KindCapacityExceeded  ErrorKind = "CAPACITY_EXCEEDED"
	KindConsistency       ErrorKind = "CONSISTENCY"
	KindIntegrity         ErrorKind = "INTEGRITY"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInput             = &Error{Kind: KindInput}
	ErrFormat            = &Error{Kind: KindFormat}
	ErrCapacityExhausted = &Error{Kind: KindCapacityExhausted}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrConsistency       = &Error{Kind: KindConsistency}
	ErrIntegrity         = &Error{Kind: KindIntegrity}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Step != 0 {
		return fmt.Sprintf("%s: %s (step=%d)", e.Kind, e.Message, e.Step)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there
// is none. Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func formatError(format string, args ...any) *Error {
	return newError(KindFormat, format, args...)
}

func consistencyError(format string, args ...any) *Error {
	return newError(KindConsistency, format, args...)
}

// atStep stamps step onto err if it is an *Error without one.
func atStep(err error, step uint32) error {
	var e *Error
	if errors.As(err, &e) && e.Step == 0 {
		e.Step = step
	}
	return err
}
