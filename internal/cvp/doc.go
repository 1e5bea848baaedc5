// Package cvp implements the CVP1 reversible canvas codec.
//
// A payload of N bytes is encoded as a sequence of N mutations applied to a
// fixed 512x512 grid. Every cell carries two accumulator lanes (R and G) that
// start "full" at RGLimit. Step s (1..N, always walked from N down to 1) maps
// to the cell at x = payload[s-1], y = s & 511 and removes a parity-derived
// weight from one lane of that cell. Which steps touched which cell is kept
// in a sparse bitset (the visited-step set, "A").
//
// Decoding never reads a step->cell table from the artifact. It rebuilds one
// with a single scan of A, then walks the same descending order adding every
// weight back. A decode only succeeds when A ends up empty and every lane is
// back at RGLimit.
//
// # Invariants
//
//   - Steps are processed strictly N -> 1 in both directions.
//   - A is marked before the lane is debited (encode) and cleared before the
//     lane is credited (decode).
//   - A (cell, step) pair is in A iff its mutation is applied and not reversed.
//   - Lanes never go below zero (encode) or above RGLimit (decode).
//
// All failures are fatal to the call and are reported as *Error values whose
// Kind can be matched with errors.Is against ErrFormat, ErrCapacityExhausted,
// ErrCapacityExceeded, ErrConsistency, ErrIntegrity and ErrInput.
//
// The codec holds no state between calls. Planes, visited set and step index
// belong to the call that created them, so independent Encode/Decode calls
// are safe to run concurrently.
package cvp
