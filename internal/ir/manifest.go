package ir

import (
	"fmt"
	"strconv"

	"github.com/roach88/canvapress/internal/cvp"
)

// Manifest is the canonical summary of one artifact.
//
// It is derived from the artifact bytes alone (cvp.Inspect plus hashing);
// PayloadID and Label are optional context supplied by whoever produced
// the artifact.
type Manifest struct {
	ArtifactID    string `json:"artifact_id"`
	PayloadID     string `json:"payload_id,omitempty"`
	Label         string `json:"label,omitempty"`
	Format        string `json:"format"`
	Width         int64  `json:"width"`
	Height        int64  `json:"height"`
	N             int64  `json:"n"`
	Size          int64  `json:"size"`
	TouchedCells  int64  `json:"touched_cells"`
	Pages         int64  `json:"pages"`
	MarkedSteps   int64  `json:"marked_steps"`
	ErasedR       uint64 `json:"erased_r,string"`
	ErasedG       uint64 `json:"erased_g,string"`
	OverfullCells int64  `json:"overfull_cells"`
}

// NewManifest inspects artifact and builds its manifest.
// Returns the cvp error unchanged (wrapped) if the artifact is malformed.
func NewManifest(artifact []byte) (Manifest, error) {
	st, err := cvp.Inspect(artifact)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return Manifest{
		ArtifactID:    ArtifactID(artifact),
		Format:        cvp.Magic,
		Width:         int64(st.Width),
		Height:        int64(st.Height),
		N:             int64(st.N),
		Size:          int64(st.Size),
		TouchedCells:  int64(st.TouchedCells),
		Pages:         int64(st.Pages),
		MarkedSteps:   int64(st.MarkedSteps),
		ErasedR:       st.ErasedR,
		ErasedG:       st.ErasedG,
		OverfullCells: int64(st.OverfullCells),
	}, nil
}

// WithPayload returns a copy of m carrying the payload's ID.
func (m Manifest) WithPayload(payload []byte) Manifest {
	m.PayloadID = PayloadID(payload)
	return m
}

// WithLabel returns a copy of m carrying label.
func (m Manifest) WithLabel(label string) Manifest {
	m.Label = label
	return m
}

// IR converts m to an IRObject. Optional fields are omitted when empty and
// the uint64 erased totals are carried as decimal strings.
func (m Manifest) IR() IRObject {
	obj := IRObject{
		"artifact_id":    IRString(m.ArtifactID),
		"format":         IRString(m.Format),
		"width":          IRInt(m.Width),
		"height":         IRInt(m.Height),
		"n":              IRInt(m.N),
		"size":           IRInt(m.Size),
		"touched_cells":  IRInt(m.TouchedCells),
		"pages":          IRInt(m.Pages),
		"marked_steps":   IRInt(m.MarkedSteps),
		"erased_r":       IRString(strconv.FormatUint(m.ErasedR, 10)),
		"erased_g":       IRString(strconv.FormatUint(m.ErasedG, 10)),
		"overfull_cells": IRInt(m.OverfullCells),
	}
	if m.PayloadID != "" {
		obj["payload_id"] = IRString(m.PayloadID)
	}
	if m.Label != "" {
		obj["label"] = IRString(m.Label)
	}
	return obj
}

// Canonical returns the RFC 8785 encoding of m.
func (m Manifest) Canonical() ([]byte, error) {
	return MarshalCanonical(m.IR())
}

// ManifestID is the content-addressed ID of a manifest's canonical form.
func ManifestID(m Manifest) (string, error) {
	data, err := m.Canonical()
	if err != nil {
		return "", fmt.Errorf("ManifestID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainManifest, data), nil
}
