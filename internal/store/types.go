package store

import "github.com/roach88/canvapress/internal/ir"

// Operations recorded in the runs table.
const (
	OpEncode = "encode"
	OpDecode = "decode"
	OpVerify = "verify"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ArtifactRecord is one row of the artifacts table.
type ArtifactRecord struct {
	ID           string
	PayloadID    string
	Label        string
	N            int64
	TouchedCells int64
	Pages        int64
	Size         int64
	Seq          int64
	Manifest     ir.Manifest
	Data         []byte
}

// ArtifactSummary is an ArtifactRecord without the artifact bytes,
// returned by listings.
type ArtifactSummary struct {
	ID           string
	PayloadID    string
	Label        string
	N            int64
	TouchedCells int64
	Pages        int64
	Size         int64
	Seq          int64
}

// Run records one codec operation performed against the catalog.
// ErrorKind is empty when Status is StatusOK.
type Run struct {
	ID         string
	Op         string
	ArtifactID string
	Status     string
	ErrorKind  string
	Seq        int64
}
