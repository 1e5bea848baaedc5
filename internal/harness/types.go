package harness

import "github.com/roach88/canvapress/internal/ir"

// Pipeline stages a scenario can fail in.
const (
	StageEncode = "encode"
	StageDecode = "decode"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// PayloadSize is the length of the built payload.
	PayloadSize int `json:"payload_size"`

	// Deterministic reports whether two encodes of the payload produced
	// identical artifacts.
	Deterministic bool `json:"deterministic"`

	// RoundTripped reports whether decoding returned the original payload.
	RoundTripped bool `json:"round_tripped"`

	// Stage, ErrorKind and Error describe the first codec failure, if any.
	// ErrorKind is the cvp kind, e.g. "CONSISTENCY".
	Stage     string `json:"stage,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	// Manifest describes the (possibly corrupted) artifact that was
	// decoded. Nil if encoding failed or the artifact is structurally
	// malformed.
	Manifest *ir.Manifest `json:"manifest,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
