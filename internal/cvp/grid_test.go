package cvp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGLimitIsFloorOfTwoPow64Over32(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	want.Div(want, big.NewInt(32))
	assert.Equal(t, want.Uint64(), RGLimit)
}

func TestStepLane(t *testing.T) {
	tests := []struct {
		step   uint32
		lane   Lane
		weight uint64
	}{
		{1, LaneR, 1},
		{2, LaneG, 1},
		{3, LaneR, 2},
		{4, LaneG, 2},
		{511, LaneR, 256},
		{512, LaneG, 256},
		{MaxPayload, LaneG, MaxPayload / 2},
		{MaxPayload - 1, LaneR, MaxPayload / 2},
	}

	for _, tt := range tests {
		lane, weight := StepLane(tt.step)
		assert.Equal(t, tt.lane, lane, "step %d lane", tt.step)
		assert.Equal(t, tt.weight, weight, "step %d weight", tt.step)
	}
}

func TestStepLaneWeightAlwaysPositive(t *testing.T) {
	for step := uint32(1); step <= 4096; step++ {
		_, w := StepLane(step)
		assert.Positive(t, w)
	}
}

func TestPixel(t *testing.T) {
	assert.Equal(t, uint32(1*512+10), Pixel(10, 1))
	assert.Equal(t, uint32(255), Pixel(255, 512), "step 512 wraps to row 0")
	assert.Equal(t, uint32(511*512), Pixel(0, 511))
	assert.Equal(t, Pixel(7, 1), Pixel(7, 513), "rows repeat every 512 steps")

	for x := 0; x < 256; x++ {
		for _, step := range []uint32{1, 2, 300, 511, 512, 1000} {
			pidx := Pixel(byte(x), step)
			assert.Less(t, pidx, uint32(Cells))
			assert.Equal(t, byte(x), PixelX(pidx))
			assert.Equal(t, step&511, pidx/Width, "row is step&511")
		}
	}
}

func TestLaneString(t *testing.T) {
	assert.Equal(t, "R", LaneR.String())
	assert.Equal(t, "G", LaneG.String())
}
