package heap

// StoreSentinel is the index that makes Store treat its target as a single
// reference cell.
const StoreSentinel = 0x0fffffff

// Store writes v into target and returns v.
//
// With index == StoreSentinel, target is the address of a raw reference
// cell that is overwritten directly: a global, a stack slot, or a box. A
// box is the handle of an array with at least one element and its cell is
// element 0. Interior addresses of heap objects are not cells; the
// collector would take them for handles. Otherwise target is an object
// handle: strings take a byte store of the decoded integer v, every other
// kind a word store.
func (h *Heap) Store(target Value, index int, v Value) Value {
	if index == StoreSentinel {
		if target.IsUnboxed() {
			h.contractf("Store: cell address expected, got %s", target)
		}
		if h.isHeapAddr(uint64(target)) {
			if kind, n, ok := h.peekHeader(target); !ok || kind != KindArray || n < 1 {
				h.contractf("Store: %s is not a box handle", target)
			}
		}
		h.mem.store(uint64(target), uint64(v))
		return v
	}

	hdr := h.object(target, "Store")
	if index < 0 || index >= hdr.length {
		h.contractf("Store: index %d out of range [0,%d)", index, hdr.length)
	}
	if hdr.kind == KindString {
		if v.IsBoxed() {
			h.contractf("Store: string element must be an integer, got %s", v)
		}
		h.mem.storeByte(uint64(target)+uint64(index), byte(v.Int()))
		return v
	}
	h.mem.store(uint64(target)+uint64(index)*WordSize, uint64(v))
	return v
}
