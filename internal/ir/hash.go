package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainArtifact = "cvp/artifact/v1"
	DomainPayload  = "cvp/payload/v1"
	DomainManifest = "cvp/manifest/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ArtifactID is the content-addressed ID of an artifact's bytes.
// Because encoding is deterministic, equal payloads yield equal IDs.
func ArtifactID(artifact []byte) string {
	return hashWithDomain(DomainArtifact, artifact)
}

// PayloadID is the content-addressed ID of a payload.
func PayloadID(payload []byte) string {
	return hashWithDomain(DomainPayload, payload)
}
