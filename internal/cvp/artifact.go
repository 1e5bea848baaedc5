package cvp

import (
	"encoding/binary"
	"math"
)

// Layout sizes in bytes. All integers are little-endian.
//
//	magic[4] width:u32 height:u32 n:u32 limit:u64
//	R:u64[Cells] G:u64[Cells]
//	count:u32 { pidx:u32 pages:u16 { page:u32 mask:u64 }... }...
const (
	headerSize      = 4 + 4 + 4 + 4 + 8
	planeSize       = Cells * 8
	entryHeaderSize = 4 + 2
	pageEntrySize   = 4 + 8
)

// Header is the fixed prefix of an artifact.
type Header struct {
	Width  uint32
	Height uint32
	N      uint32
	Limit  uint64
}

// ReadHeader validates and returns the header of an artifact without
// touching its planes or entries.
func ReadHeader(artifact []byte) (Header, error) {
	return readHeader(&reader{buf: artifact})
}

func marshalArtifact(planes *Planes, visited *VisitedSet, n uint32) ([]byte, error) {
	size := headerSize + 2*planeSize + 4 +
		visited.Len()*entryHeaderSize + visited.PageCount()*pageEntrySize

	le := binary.LittleEndian
	buf := make([]byte, 0, size)
	buf = append(buf, Magic...)
	buf = le.AppendUint32(buf, Width)
	buf = le.AppendUint32(buf, Height)
	buf = le.AppendUint32(buf, n)
	buf = le.AppendUint64(buf, RGLimit)

	for _, v := range planes.r {
		buf = le.AppendUint64(buf, v)
	}
	for _, v := range planes.g {
		buf = le.AppendUint64(buf, v)
	}

	buf = le.AppendUint32(buf, uint32(visited.Len()))
	for pidx, pages := range visited.All() {
		if len(pages) > math.MaxUint16 {
			return nil, newError(KindInput, "cell %d has %d pages, format allows %d",
				pidx, len(pages), math.MaxUint16)
		}
		buf = le.AppendUint32(buf, pidx)
		buf = le.AppendUint16(buf, uint16(len(pages)))
		for _, p := range pages {
			buf = le.AppendUint32(buf, p.Number)
			buf = le.AppendUint64(buf, p.Mask)
		}
	}
	return buf, nil
}

// unmarshalArtifact parses an artifact into its validated header, fresh
// planes and a fresh visited set. The header is fully validated before any
// plane or entry is read.
func unmarshalArtifact(artifact []byte) (Header, *Planes, *VisitedSet, error) {
	r := &reader{buf: artifact}
	h, err := readHeader(r)
	if err != nil {
		return Header{}, nil, nil, err
	}

	raw, err := r.take(2 * planeSize)
	if err != nil {
		return Header{}, nil, nil, err
	}
	planes := NewPlanes(false)
	le := binary.LittleEndian
	for i := range planes.r {
		planes.r[i] = le.Uint64(raw[i*8:])
		planes.g[i] = le.Uint64(raw[planeSize+i*8:])
	}

	count, err := r.uint32()
	if err != nil {
		return Header{}, nil, nil, err
	}
	if count > Cells {
		return Header{}, nil, nil, formatError("entry count %d exceeds cell count %d", count, Cells)
	}

	visited := NewVisitedSet()
	for range count {
		pidx, err := r.uint32()
		if err != nil {
			return Header{}, nil, nil, err
		}
		if pidx >= Cells {
			return Header{}, nil, nil, formatError("cell index %d out of range", pidx)
		}
		pageCount, err := r.uint16()
		if err != nil {
			return Header{}, nil, nil, err
		}
		pages := make([]Page, pageCount)
		for i := range pages {
			if pages[i].Number, err = r.uint32(); err != nil {
				return Header{}, nil, nil, err
			}
			if pages[i].Mask, err = r.uint64(); err != nil {
				return Header{}, nil, nil, err
			}
		}
		if err := visited.insert(pidx, pages); err != nil {
			return Header{}, nil, nil, err
		}
	}

	if rest := r.remaining(); rest != 0 {
		return Header{}, nil, nil, formatError("%d trailing bytes after entries", rest)
	}
	return h, planes, visited, nil
}

func readHeader(r *reader) (Header, error) {
	magic, err := r.take(len(Magic))
	if err != nil {
		return Header{}, err
	}
	if string(magic) != Magic {
		return Header{}, formatError("bad magic %q", magic)
	}

	var h Header
	if h.Width, err = r.uint32(); err != nil {
		return Header{}, err
	}
	if h.Height, err = r.uint32(); err != nil {
		return Header{}, err
	}
	if h.N, err = r.uint32(); err != nil {
		return Header{}, err
	}
	if h.Limit, err = r.uint64(); err != nil {
		return Header{}, err
	}

	if h.Width != Width || h.Height != Height {
		return Header{}, formatError("bad dimensions %dx%d, want %dx%d", h.Width, h.Height, Width, Height)
	}
	if h.Limit != RGLimit {
		return Header{}, formatError("RG limit %d does not match %d", h.Limit, RGLimit)
	}
	if h.N == 0 || h.N > MaxPayload {
		return Header{}, formatError("payload length %d outside [1,%d]", h.N, MaxPayload)
	}
	return h, nil
}

// reader is a bounds-checked little-endian cursor. Running past the end is
// a FORMAT error.
type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if n > len(r.buf)-r.off {
		return nil, formatError("truncated artifact: need %d bytes at offset %d, have %d",
			n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}
