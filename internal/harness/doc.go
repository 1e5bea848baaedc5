// Package harness runs CVP1 conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: collision_1024
//	description: "Two steps on the same row and column"
//	payload:
//	  random: { seed: 7, length: 1024 }
//	  set:
//	    - { index: 512, byte: 0 }
//	corrupt:
//	  - { op: flip_mask_bit, entry: 0, page: 0, bit: 5 }
//	expect:
//	  error: consistency
//	golden: true
//
// A payload comes from exactly one of hex, text, repeat or random. The
// optional set list overrides individual bytes afterwards.
//
// Corruption ops mutate the encoded artifact before it is decoded:
// flip_mask_bit, set_magic, set_width, set_height, set_n, set_limit,
// set_plane, truncate and append.
//
// Expectations are either roundtrip (deterministic encode and exact decode)
// or error (the lower-case cvp error kind the pipeline must fail with),
// plus an optional max_entries bound on touched cells.
//
// # Validation
//
// Files are decoded with strict YAML (unknown fields rejected) and then
// unified with the #Scenario CUE schema embedded from scenario.cue.
//
// # Golden Files
//
// With golden: true the scenario's canonical snapshot (manifest plus
// outcome) is compared against a stored golden file. Artifact and payload
// IDs are content hashes, so any change to the encoding shows up as a
// golden diff.
package harness
