// Package ir provides the canonical description layer for CVP1 artifacts.
//
// It defines content-addressed identities for payloads and artifacts, the
// Manifest that summarizes an artifact, and the RFC 8785 canonical JSON
// serialization used wherever bytes must be stable: golden files, catalog
// rows and CLI JSON output.
//
// ir imports only the codec core (internal/cvp). Everything above it (store,
// harness, cli) imports ir.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - uint64 quantities that may exceed int64 are carried as decimal strings
//   - All JSON tags use snake_case
//   - Strings are NFC normalized at the serialization boundary
package ir
