package cvp

import "log/slog"

// Encode erases payload into a fresh full canvas and returns the artifact.
//
// Steps run from N down to 1. Each step marks (cell, step) in the visited
// set first and then debits the step's lane at that cell. Fails with INPUT
// for an empty or oversized payload and with CAPACITY_EXHAUSTED if a lane
// would go negative. No artifact is returned on failure.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, newError(KindInput, "empty payload")
	}
	if len(payload) > MaxPayload {
		return nil, newError(KindInput, "payload of %d bytes exceeds %d", len(payload), MaxPayload)
	}
	n := uint32(len(payload))

	planes := NewPlanes(true)
	visited := NewVisitedSet()

	for step := n; step >= 1; step-- {
		pidx := Pixel(payload[step-1], step)
		visited.Mark(pidx, step)

		lane, weight := StepLane(step)
		if err := planes.Apply(lane, pidx, weight, Subtract); err != nil {
			return nil, atStep(err, step)
		}
	}

	artifact, err := marshalArtifact(planes, visited, n)
	if err != nil {
		return nil, err
	}

	slog.Debug("cvp encode",
		"n", n,
		"cells", visited.Len(),
		"pages", visited.PageCount(),
		"bytes", len(artifact))
	return artifact, nil
}

// Decode restores the payload an artifact was encoded from.
//
// The payload is returned only after the visited set is empty and every lane
// is back at RGLimit.
func Decode(artifact []byte) ([]byte, error) {
	st, err := fill(artifact)
	if err != nil {
		return nil, err
	}
	return st.payload, nil
}

// fillState is what a decode leaves behind: the restored payload and the
// planes and set it drained. Tests inspect the latter.
type fillState struct {
	payload []byte
	planes  *Planes
	visited *VisitedSet
}

func fill(artifact []byte) (*fillState, error) {
	h, planes, visited, err := unmarshalArtifact(artifact)
	if err != nil {
		return nil, err
	}
	n := h.N

	index, err := BuildStepIndex(visited, n)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, n)
	for step := n; step >= 1; step-- {
		pidx := index[step]
		payload[step-1] = PixelX(pidx)

		if err := visited.Unmark(pidx, step); err != nil {
			return nil, atStep(err, step)
		}

		lane, weight := StepLane(step)
		if err := planes.Apply(lane, pidx, weight, Add); err != nil {
			return nil, atStep(err, step)
		}
	}

	if !visited.IsEmpty() {
		return nil, newError(KindIntegrity, "A not empty: %d cells still marked", visited.Len())
	}
	if !planes.AllFull() {
		return nil, newError(KindIntegrity, "RG not full after decode")
	}

	slog.Debug("cvp decode", "n", n, "bytes", len(artifact))
	return &fillState{payload: payload, planes: planes, visited: visited}, nil
}
