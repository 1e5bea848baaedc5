package cvp

// BuildStepIndex inverts the visited set into a dense step->cell table.
//
// The returned slice has length n+1 and index[s] is the cell touched by step
// s for every s in [1, n]; index[0] is unused. The set is scanned exactly
// once, so the cost is proportional to the number of marked steps.
//
// Fails with CONSISTENCY when a step is marked in two cells, when a marked
// step lies outside [1, n], or when some step in [1, n] is not marked at all.
// The table lives only for the decode that built it; it is never written to
// an artifact.
func BuildStepIndex(v *VisitedSet, n uint32) ([]uint32, error) {
	index := make([]uint32, int(n)+1)
	seen := make([]bool, int(n)+1)

	err := v.eachStep(func(pidx uint32, step uint64) error {
		if step < 1 || step > uint64(n) {
			return consistencyError("stray step %d at cell %d outside [1,%d]", step, pidx, n)
		}
		if seen[step] {
			return consistencyError("step collision: step %d marked at cell %d and cell %d",
				step, index[step], pidx)
		}
		seen[step] = true
		index[step] = pidx
		return nil
	})
	if err != nil {
		return nil, err
	}

	for s := 1; s <= int(n); s++ {
		if !seen[s] {
			return nil, consistencyError("missing step %d", s)
		}
	}
	return index, nil
}
