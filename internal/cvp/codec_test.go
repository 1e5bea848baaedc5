package cvp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPayload(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(rng.UintN(256))
	}
	return p
}

func TestRoundTripRandom(t *testing.T) {
	for _, n := range []int{1024, 10240, 25600} {
		payload := randomPayload(7, n)

		artifact, err := Encode(payload)
		require.NoError(t, err)

		out, err := Decode(artifact)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(payload, out), "round trip of %d bytes", n)
	}
}

func TestRoundTripShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"single byte", []byte{0x42}},
		{"single zero", []byte{0}},
		{"all zeros", make([]byte, 2048)},
		{"all 0xff", bytes.Repeat([]byte{0xff}, 1500)},
		{"ascending", func() []byte {
			p := make([]byte, 777)
			for i := range p {
				p[i] = byte(i)
			}
			return p
		}()},
		{"exactly one row cycle", randomPayload(1, 512)},
		{"text", []byte("the quick brown fox jumps over the lazy dog")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := Encode(tt.payload)
			require.NoError(t, err)

			out, err := Decode(artifact)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, out)
		})
	}
}

func TestFullRestoration(t *testing.T) {
	payload := randomPayload(3, 4096)
	artifact, err := Encode(payload)
	require.NoError(t, err)

	st, err := fill(artifact)
	require.NoError(t, err)
	assert.True(t, st.visited.IsEmpty())
	assert.True(t, st.planes.AllFull())
	assert.Equal(t, payload, st.payload)
}

func TestEncodeDeterministic(t *testing.T) {
	payload := randomPayload(11, 3000)

	a1, err := Encode(payload)
	require.NoError(t, err)
	a2, err := Encode(payload)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a1, a2), "encode must be byte-identical across calls")
}

func TestEncodeCollision(t *testing.T) {
	payload := randomPayload(5, 1024)
	payload[512] = payload[0] // steps 1 and 513 share a cell

	artifact, err := Encode(payload)
	require.NoError(t, err)

	h, planes, visited, err := unmarshalArtifact(artifact)
	require.NoError(t, err)
	require.Equal(t, uint32(1024), h.N)

	cell := Pixel(payload[0], 1)
	require.Equal(t, cell, Pixel(payload[512], 513))

	pages := visited.pages(cell)
	assert.Contains(t, pages, Page{Number: 0, Mask: 1 << 1}, "step 1")
	assert.Contains(t, pages, Page{Number: 8, Mask: 1 << 1}, "step 513")

	// Both steps are odd, so both debit R: weights 1 and 257.
	assert.Equal(t, RGLimit-1-257, planes.Value(LaneR, cell))

	index, err := BuildStepIndex(visited, h.N)
	require.NoError(t, err)
	assert.Equal(t, cell, index[1])
	assert.Equal(t, cell, index[513])

	out, err := Decode(artifact)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestEncodeSingleByte(t *testing.T) {
	artifact, err := Encode([]byte{200})
	require.NoError(t, err)

	assert.Len(t, artifact, headerSize+2*planeSize+4+entryHeaderSize+pageEntrySize)

	stats, err := Inspect(artifact)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.N)
	assert.LessOrEqual(t, stats.TouchedCells, 1)

	out, err := Decode(artifact)
	require.NoError(t, err)
	assert.Equal(t, []byte{200}, out)
}

func TestConcreteThreeBytes(t *testing.T) {
	payload := []byte{10, 20, 30}
	artifact, err := Encode(payload)
	require.NoError(t, err)

	h, _, visited, err := unmarshalArtifact(artifact)
	require.NoError(t, err)

	index, err := BuildStepIndex(visited, h.N)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, Pixel(10, 1), Pixel(20, 2), Pixel(30, 3)}, index)

	out, err := Decode(artifact)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestEncodeRejectsInput(t *testing.T) {
	_, err := Encode(nil)
	assert.True(t, errors.Is(err, ErrInput))

	_, err = Encode([]byte{})
	assert.True(t, errors.Is(err, ErrInput))

	_, err = Encode(make([]byte, MaxPayload+1))
	assert.True(t, errors.Is(err, ErrInput))
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := range 8 {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			payload := randomPayload(seed, 2000+int(seed))
			artifact, err := Encode(payload)
			if err != nil {
				errs <- err
				return
			}
			out, err := Decode(artifact)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(out, payload) {
				errs <- errors.New("payload mismatch")
			}
		}(uint64(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// maskOffsets returns the byte offset of every page mask in artifact.
func maskOffsets(t *testing.T, artifact []byte) []int {
	t.Helper()
	le := binary.LittleEndian
	var offs []int
	off := entriesOffset
	count := int(le.Uint32(artifact[off:]))
	off += 4
	for range count {
		pages := int(le.Uint16(artifact[off+4:]))
		off += entryHeaderSize
		for range pages {
			offs = append(offs, off+4)
			off += pageEntrySize
		}
	}
	require.Equal(t, len(artifact), off)
	return offs
}

func TestDecodeEveryMaskBitFlipIsConsistency(t *testing.T) {
	payload := []byte("flip every bit")
	artifact := mustEncode(t, payload)

	for _, off := range maskOffsets(t, artifact) {
		for bit := range 64 {
			damaged := bytes.Clone(artifact)
			damaged[off+bit/8] ^= 1 << (bit % 8)

			_, err := Decode(damaged)
			require.Error(t, err, "mask at %d bit %d", off, bit)
			assert.True(t, errors.Is(err, ErrConsistency), "mask at %d bit %d: %v", off, bit, err)
		}
	}
}

func TestInspectUsesValidatedHeader(t *testing.T) {
	artifact := mustEncode(t, []byte("header"))

	h, _, _, err := unmarshalArtifact(artifact)
	require.NoError(t, err)
	stats, err := Inspect(artifact)
	require.NoError(t, err)
	fromHeader, err := ReadHeader(artifact)
	require.NoError(t, err)

	assert.Equal(t, Header{Width: Width, Height: Height, N: 6, Limit: RGLimit}, h)
	assert.Equal(t, h, stats.Header)
	assert.Equal(t, h, fromHeader)
}
