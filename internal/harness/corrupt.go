package harness

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/roach88/canvapress/internal/cvp"
)

// Byte offsets within a CVP1 artifact. The harness mutates raw bytes, so it
// carries its own copy of the layout rather than reaching into the codec.
const (
	offMagic    = 0
	offWidth    = 4
	offHeight   = 8
	offN        = 12
	offLimit    = 16
	offPlanes   = 24
	planeBytes  = cvp.Cells * 8
	offEntries  = offPlanes + 2*planeBytes
	entryHeader = 4 + 2
	pageBytes   = 4 + 8
)

// ApplyCorruptions returns a copy of artifact with every corruption applied
// in order. The input slice is never modified.
func ApplyCorruptions(artifact []byte, ops []Corruption) ([]byte, error) {
	out := slices.Clone(artifact)
	for i, c := range ops {
		var err error
		out, err = applyCorruption(out, c)
		if err != nil {
			return nil, fmt.Errorf("corrupt[%d] %s: %w", i, c.Op, err)
		}
	}
	return out, nil
}

func applyCorruption(a []byte, c Corruption) ([]byte, error) {
	le := binary.LittleEndian
	switch c.Op {
	case OpSetMagic:
		if len(c.Magic) != 4 {
			return nil, fmt.Errorf("magic must be 4 bytes, got %d", len(c.Magic))
		}
		if err := need(a, offMagic+4); err != nil {
			return nil, err
		}
		copy(a[offMagic:], c.Magic)
	case OpSetWidth, OpSetHeight, OpSetN:
		off := map[string]int{OpSetWidth: offWidth, OpSetHeight: offHeight, OpSetN: offN}[c.Op]
		if c.Value > 0xFFFFFFFF {
			return nil, fmt.Errorf("value %d does not fit u32", c.Value)
		}
		if err := need(a, off+4); err != nil {
			return nil, err
		}
		le.PutUint32(a[off:], uint32(c.Value))
	case OpSetLimit:
		if err := need(a, offLimit+8); err != nil {
			return nil, err
		}
		le.PutUint64(a[offLimit:], c.Value)
	case OpSetPlane:
		off, err := planeOffset(c.Lane, c.Cell)
		if err != nil {
			return nil, err
		}
		if err := need(a, off+8); err != nil {
			return nil, err
		}
		le.PutUint64(a[off:], c.Value)
	case OpFlipMaskBit:
		off, err := maskOffset(a, c.Entry, c.Page)
		if err != nil {
			return nil, err
		}
		if c.Bit < 0 || c.Bit > 63 {
			return nil, fmt.Errorf("bit %d outside [0,63]", c.Bit)
		}
		le.PutUint64(a[off:], le.Uint64(a[off:])^(1<<uint(c.Bit)))
	case OpTruncate:
		if c.Count < 0 || c.Count > len(a) {
			return nil, fmt.Errorf("cannot truncate %d of %d bytes", c.Count, len(a))
		}
		a = a[:len(a)-c.Count]
	case OpAppend:
		extra, err := hex.DecodeString(c.Hex)
		if err != nil {
			return nil, err
		}
		a = append(a, extra...)
	default:
		return nil, fmt.Errorf("unknown op")
	}
	return a, nil
}

func need(a []byte, n int) error {
	if len(a) < n {
		return fmt.Errorf("artifact has %d bytes, need %d", len(a), n)
	}
	return nil
}

func planeOffset(lane string, cell int) (int, error) {
	if cell < 0 || cell >= cvp.Cells {
		return 0, fmt.Errorf("cell %d outside grid", cell)
	}
	switch lane {
	case "R":
		return offPlanes + cell*8, nil
	case "G":
		return offPlanes + planeBytes + cell*8, nil
	}
	return 0, fmt.Errorf("unknown lane %q", lane)
}

// maskOffset walks the entry list to the mask of (entry, page).
func maskOffset(a []byte, entry, page int) (int, error) {
	le := binary.LittleEndian
	if err := need(a, offEntries+4); err != nil {
		return 0, err
	}
	count := int(le.Uint32(a[offEntries:]))
	if entry < 0 || entry >= count {
		return 0, fmt.Errorf("entry %d outside [0,%d)", entry, count)
	}

	off := offEntries + 4
	for i := 0; ; i++ {
		if err := need(a, off+entryHeader); err != nil {
			return 0, err
		}
		pages := int(le.Uint16(a[off+4:]))
		if i == entry {
			if page < 0 || page >= pages {
				return 0, fmt.Errorf("page %d outside [0,%d) of entry %d", page, pages, entry)
			}
			maskAt := off + entryHeader + page*pageBytes + 4
			if err := need(a, maskAt+8); err != nil {
				return 0, err
			}
			return maskAt, nil
		}
		off += entryHeader + pages*pageBytes
	}
}
