package cli

import "github.com/roach88/canvapress/internal/cvp"

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUsage       = "E002" // Invalid flag or argument combination
	ErrCodeNotFound    = "E005" // Path or catalog entry not found
	ErrCodeReadFailed  = "E006" // File read error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCatalog     = "E008" // Catalog open/read/write error

	// Codec errors, one per cvp error kind
	ErrCodeInput             = "E201"
	ErrCodeFormat            = "E202"
	ErrCodeCapacityExhausted = "E203"
	ErrCodeCapacityExceeded  = "E204"
	ErrCodeConsistency       = "E205"
	ErrCodeIntegrity         = "E206"

	// Verification errors
	ErrCodeMismatch   = "E210" // verify: decoded payload or re-encoding differs
	ErrCodeReplay     = "E211" // catalog --replay: a stored artifact no longer decodes
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// CodeForError maps a codec error to its CLI error code.
func CodeForError(err error) string {
	switch cvp.KindOf(err) {
	case cvp.KindInput:
		return ErrCodeInput
	case cvp.KindFormat:
		return ErrCodeFormat
	case cvp.KindCapacityExhausted:
		return ErrCodeCapacityExhausted
	case cvp.KindCapacityExceeded:
		return ErrCodeCapacityExceeded
	case cvp.KindConsistency:
		return ErrCodeConsistency
	case cvp.KindIntegrity:
		return ErrCodeIntegrity
	default:
		return ErrCodeGeneric
	}
}

// kindName is the error kind recorded in the catalog for err.
func kindName(err error) string {
	if err == nil {
		return ""
	}
	if k := cvp.KindOf(err); k != "" {
		return string(k)
	}
	return "UNKNOWN"
}
