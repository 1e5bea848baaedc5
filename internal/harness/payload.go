package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

// BuildPayload materializes a PayloadSpec.
//
// Random payloads use a PCG stream seeded with (Seed, Seed), so the same
// scenario always encodes the same bytes.
func BuildPayload(spec PayloadSpec) ([]byte, error) {
	var payload []byte
	switch {
	case spec.Hex != "":
		b, err := hex.DecodeString(spec.Hex)
		if err != nil {
			return nil, fmt.Errorf("payload hex: %w", err)
		}
		payload = b
	case spec.Text != "":
		payload = []byte(spec.Text)
	case spec.Repeat != nil:
		if spec.Repeat.Count < 0 {
			return nil, fmt.Errorf("payload repeat: negative count %d", spec.Repeat.Count)
		}
		payload = bytes.Repeat([]byte{byte(spec.Repeat.Byte)}, spec.Repeat.Count)
	case spec.Random != nil:
		if spec.Random.Length < 0 {
			return nil, fmt.Errorf("payload random: negative length %d", spec.Random.Length)
		}
		payload = randomBytes(spec.Random.Seed, spec.Random.Length)
	default:
		return nil, fmt.Errorf("payload: no source given")
	}

	for _, o := range spec.Set {
		if o.Index < 0 || o.Index >= len(payload) {
			return nil, fmt.Errorf("payload set: index %d outside payload of %d bytes", o.Index, len(payload))
		}
		payload[o.Index] = byte(o.Byte)
	}
	return payload, nil
}

func randomBytes(seed uint64, n int) []byte {
	r := rand.New(rand.NewPCG(seed, seed))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.UintN(256))
	}
	return out
}
