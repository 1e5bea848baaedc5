package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a codec conformance scenario.
// A scenario builds a payload, encodes it, optionally corrupts the artifact,
// decodes it, and checks the outcome against Expect.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Payload describes the bytes to encode.
	Payload PayloadSpec `yaml:"payload"`

	// Corrupt lists mutations applied to the artifact before decoding,
	// in order.
	Corrupt []Corruption `yaml:"corrupt,omitempty"`

	// Expect is the required outcome.
	Expect Expectation `yaml:"expect"`

	// Golden compares the artifact manifest against testdata/golden.
	Golden bool `yaml:"golden,omitempty"`
}

// PayloadSpec describes a payload. Exactly one of Hex, Text, Repeat or
// Random must be set; Set overrides are applied afterwards.
type PayloadSpec struct {
	Hex    string         `yaml:"hex,omitempty"`
	Text   string         `yaml:"text,omitempty"`
	Repeat *RepeatSpec    `yaml:"repeat,omitempty"`
	Random *RandomSpec    `yaml:"random,omitempty"`
	Set    []ByteOverride `yaml:"set,omitempty"`
}

// RepeatSpec is Count copies of Byte.
type RepeatSpec struct {
	Byte  int `yaml:"byte"`
	Count int `yaml:"count"`
}

// RandomSpec is Length bytes from a PCG stream seeded with Seed.
type RandomSpec struct {
	Seed   uint64 `yaml:"seed"`
	Length int    `yaml:"length"`
}

// ByteOverride sets payload[Index] = Byte.
type ByteOverride struct {
	Index int `yaml:"index"`
	Byte  int `yaml:"byte"`
}

// Corruption is one artifact mutation. Which fields apply depends on Op:
//
//	flip_mask_bit  entry, page, bit
//	set_magic      magic
//	set_width      value
//	set_height     value
//	set_n          value
//	set_limit      value
//	set_plane      lane, cell, value
//	truncate       count
//	append         hex
type Corruption struct {
	Op    string `yaml:"op"`
	Entry int    `yaml:"entry,omitempty"`
	Page  int    `yaml:"page,omitempty"`
	Bit   int    `yaml:"bit,omitempty"`
	Magic string `yaml:"magic,omitempty"`
	Value uint64 `yaml:"value,omitempty"`
	Lane  string `yaml:"lane,omitempty"`
	Cell  int    `yaml:"cell,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Hex   string `yaml:"hex,omitempty"`
}

// Corruption op constants.
const (
	OpFlipMaskBit = "flip_mask_bit"
	OpSetMagic    = "set_magic"
	OpSetWidth    = "set_width"
	OpSetHeight   = "set_height"
	OpSetN        = "set_n"
	OpSetLimit    = "set_limit"
	OpSetPlane    = "set_plane"
	OpTruncate    = "truncate"
	OpAppend      = "append"
)

// Expectation is the required scenario outcome.
type Expectation struct {
	// Roundtrip requires deterministic encoding and decode(encode(P)) == P.
	Roundtrip bool `yaml:"roundtrip,omitempty"`

	// Error is the lower-case error kind the pipeline must fail with, e.g.
	// "consistency" or "capacity_exceeded".
	Error string `yaml:"error,omitempty"`

	// MaxEntries bounds the number of touched cells in the artifact.
	MaxEntries *int `yaml:"max_entries,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
//
// The document is checked twice: strict decoding into Scenario catches
// unknown fields, then the CUE schema checks value constraints (op names,
// byte ranges, error kinds) before the semantic checks in validateScenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks cross-field rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	sources := 0
	for _, set := range []bool{s.Payload.Hex != "", s.Payload.Text != "", s.Payload.Repeat != nil, s.Payload.Random != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("payload: exactly one of hex, text, repeat, random is required (got %d)", sources)
	}
	if s.Payload.Hex != "" {
		if _, err := hex.DecodeString(s.Payload.Hex); err != nil {
			return fmt.Errorf("payload.hex: %w", err)
		}
	}

	if !s.Expect.Roundtrip && s.Expect.Error == "" {
		return fmt.Errorf("expect: one of roundtrip or error is required")
	}
	if s.Expect.Roundtrip && s.Expect.Error != "" {
		return fmt.Errorf("expect: roundtrip and error are mutually exclusive")
	}
	if s.Expect.Roundtrip && len(s.Corrupt) > 0 {
		return fmt.Errorf("expect: roundtrip cannot be combined with corrupt")
	}

	for i, c := range s.Corrupt {
		if c.Op == OpAppend {
			if _, err := hex.DecodeString(c.Hex); err != nil {
				return fmt.Errorf("corrupt[%d].hex: %w", i, err)
			}
		}
	}

	return nil
}
