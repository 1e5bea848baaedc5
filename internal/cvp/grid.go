package cvp

// Grid geometry and format constants. These never change for CVP1; an
// artifact declaring anything else is rejected.
const (
	Width  = 512
	Height = 512
	Cells  = Width * Height

	// RGLimit is floor(2^64 / 32), the value every lane holds when "full".
	RGLimit uint64 = 1 << 59

	// Magic opens every artifact.
	Magic = "CVP1"

	// MaxPayload bounds N. At this size a single cell sees at most
	// MaxPayload/Height steps, which keeps per-cell page counts inside the
	// uint16 field of the format.
	MaxPayload = 1 << 24

	rowShift = 9 // log2(Width)
	rowMask  = Height - 1
	colMask  = Width - 1
)

// Lane selects one of the two accumulators of a cell.
type Lane uint8

const (
	LaneR Lane = iota
	LaneG
)

func (l Lane) String() string {
	if l == LaneR {
		return "R"
	}
	return "G"
}

// StepLane returns the lane and weight touched by step.
// Odd steps debit R by (step+1)/2, even steps debit G by step/2.
func StepLane(step uint32) (Lane, uint64) {
	if step&1 == 1 {
		return LaneR, (uint64(step) + 1) >> 1
	}
	return LaneG, uint64(step) >> 1
}

// Pixel returns the cell index for byte value x at step: row step&511,
// column x.
func Pixel(x byte, step uint32) uint32 {
	return (step&rowMask)<<rowShift + uint32(x)
}

// PixelX recovers the byte value (the column) from a cell index.
func PixelX(pidx uint32) byte {
	return byte(pidx & colMask)
}
