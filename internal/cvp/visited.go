package cvp

import (
	"iter"
	"maps"
	"math/bits"
	"slices"
)

// Page is one 64-step window of a cell's visited steps.
// Bit i of Mask set means step Number*64+i touched the cell.
type Page struct {
	Number uint32
	Mask   uint64
}

// VisitedSet records which steps touched which cell ("A").
//
// It is keyed by cell only. The step->cell direction is never stored here;
// BuildStepIndex derives it with one scan when decoding needs it. Only
// touched cells have an entry, and empty pages and cells are dropped as soon
// as their last bit is cleared.
type VisitedSet struct {
	cells map[uint32]map[uint32]uint64
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{cells: make(map[uint32]map[uint32]uint64)}
}

// pageBit splits a step into its page number and single-bit mask.
func pageBit(step uint32) (uint32, uint64) {
	return step >> 6, 1 << (step & 63)
}

// Mark records that step touched pidx.
func (v *VisitedSet) Mark(pidx, step uint32) {
	page, bit := pageBit(step)
	pages, ok := v.cells[pidx]
	if !ok {
		pages = make(map[uint32]uint64, 1)
		v.cells[pidx] = pages
	}
	pages[page] |= bit
}

// Unmark clears step from pidx. The step must currently be marked there.
func (v *VisitedSet) Unmark(pidx, step uint32) error {
	pages, ok := v.cells[pidx]
	if !ok {
		return consistencyError("cell %d has no visited steps", pidx)
	}
	page, bit := pageBit(step)
	word, ok := pages[page]
	if !ok {
		return consistencyError("cell %d has no page %d", pidx, page)
	}
	if word&bit == 0 {
		return consistencyError("bit for step %d already clear at cell %d", step, pidx)
	}

	word &^= bit
	if word != 0 {
		pages[page] = word
		return nil
	}
	delete(pages, page)
	if len(pages) == 0 {
		delete(v.cells, pidx)
	}
	return nil
}

// IsEmpty reports whether no cell has any visited step left.
func (v *VisitedSet) IsEmpty() bool {
	return len(v.cells) == 0
}

// Len returns the number of touched cells.
func (v *VisitedSet) Len() int {
	return len(v.cells)
}

// PageCount returns the total number of pages over all cells.
func (v *VisitedSet) PageCount() int {
	n := 0
	for _, pages := range v.cells {
		n += len(pages)
	}
	return n
}

// All yields every touched cell with its pages, cells ascending by pidx and
// pages ascending by number. Serialization relies on this order.
func (v *VisitedSet) All() iter.Seq2[uint32, []Page] {
	return func(yield func(uint32, []Page) bool) {
		for _, pidx := range slices.Sorted(maps.Keys(v.cells)) {
			if !yield(pidx, v.pages(pidx)) {
				return
			}
		}
	}
}

func (v *VisitedSet) pages(pidx uint32) []Page {
	words := v.cells[pidx]
	out := make([]Page, 0, len(words))
	for _, n := range slices.Sorted(maps.Keys(words)) {
		out = append(out, Page{Number: n, Mask: words[n]})
	}
	return out
}

// insert adds a whole cell entry as read from an artifact.
func (v *VisitedSet) insert(pidx uint32, pages []Page) error {
	if _, dup := v.cells[pidx]; dup {
		return formatError("duplicate entry for cell %d", pidx)
	}
	words := make(map[uint32]uint64, len(pages))
	for _, p := range pages {
		if _, dup := words[p.Number]; dup {
			return formatError("duplicate page %d for cell %d", p.Number, pidx)
		}
		words[p.Number] = p.Mask
	}
	v.cells[pidx] = words
	return nil
}

// eachStep calls fn once per set bit in ascending (cell, page, bit) order.
// Steps are returned as uint64 because page numbers read from an artifact
// may be large enough for page<<6 to overflow uint32.
func (v *VisitedSet) eachStep(fn func(pidx uint32, step uint64) error) error {
	for pidx, pages := range v.All() {
		for _, p := range pages {
			base := uint64(p.Number) << 6
			for m := p.Mask; m != 0; m = clearLowest(m) {
				if err := fn(pidx, base+uint64(lowestBit(m))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// lowestBit returns the position of the lowest set bit of a non-zero mask.
func lowestBit(m uint64) int {
	return bits.TrailingZeros64(m)
}

func clearLowest(m uint64) uint64 {
	return m & (m - 1)
}

// markedSteps counts set bits over all pages.
func (v *VisitedSet) markedSteps() int {
	n := 0
	for _, pages := range v.cells {
		for _, mask := range pages {
			n += bits.OnesCount64(mask)
		}
	}
	return n
}
