package cvp

import "math"

// Stats summarizes an artifact without decoding it.
type Stats struct {
	Header

	// Size is the artifact length in bytes.
	Size int

	// TouchedCells is the number of A entries.
	TouchedCells int

	// Pages is the number of bitset pages over all entries.
	Pages int

	// MarkedSteps is the number of set bits over all pages. A valid
	// artifact has MarkedSteps == N.
	MarkedSteps int

	// ErasedR and ErasedG are the total weight missing from each plane,
	// summed over cells whose lane is at or below RGLimit. Saturates at
	// math.MaxUint64 for damaged artifacts.
	ErasedR uint64
	ErasedG uint64

	// OverfullCells counts lanes holding more than RGLimit. A valid
	// artifact has none.
	OverfullCells int
}

// Inspect parses an artifact and reports its Stats. It performs the same
// structural validation as Decode (FORMAT errors) but does not rebuild the
// step index or replay any step.
func Inspect(artifact []byte) (Stats, error) {
	h, planes, visited, err := unmarshalArtifact(artifact)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Header:       h,
		Size:         len(artifact),
		TouchedCells: visited.Len(),
		Pages:        visited.PageCount(),
		MarkedSteps:  visited.markedSteps(),
	}
	st.ErasedR, st.OverfullCells = erased(planes.r)
	g, over := erased(planes.g)
	st.ErasedG = g
	st.OverfullCells += over
	return st, nil
}

func erased(plane []uint64) (total uint64, overfull int) {
	for _, v := range plane {
		if v > RGLimit {
			overfull++
			continue
		}
		d := RGLimit - v
		if total > math.MaxUint64-d {
			total = math.MaxUint64
			continue
		}
		total += d
	}
	return total, overfull
}
