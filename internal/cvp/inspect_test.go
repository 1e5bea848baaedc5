package cvp

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	payload := randomPayload(2, 1024)
	payload[512] = payload[0]
	artifact := mustEncode(t, payload)

	stats, err := Inspect(artifact)
	require.NoError(t, err)

	assert.Equal(t, uint32(1024), stats.N)
	assert.Equal(t, len(artifact), stats.Size)
	assert.Equal(t, 1024, stats.MarkedSteps)
	assert.Equal(t, 1024, stats.Pages, "one page per step: a row repeats only every 512 steps")
	assert.Less(t, stats.TouchedCells, 1024, "steps 1 and 513 share a cell")
	assert.Zero(t, stats.OverfullCells)

	// Odd steps 1,3,...,1023 erase (s+1)/2 from R: 1+2+...+512.
	assert.Equal(t, uint64(512*513/2), stats.ErasedR)
	// Even steps 2,4,...,1024 erase s/2 from G: 1+2+...+512.
	assert.Equal(t, uint64(512*513/2), stats.ErasedG)
}

func TestInspectCountsOverfull(t *testing.T) {
	artifact := mustEncode(t, []byte{1, 2})
	binary.LittleEndian.PutUint64(artifact[headerSize+8*8:], RGLimit+5)

	stats, err := Inspect(artifact)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OverfullCells)
}

func TestInspectRejectsMalformed(t *testing.T) {
	_, err := Inspect([]byte("CVP1"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestErasedSaturates(t *testing.T) {
	total, over := erased(make([]uint64, 64))
	assert.Equal(t, ^uint64(0), total)
	assert.Zero(t, over)
}
