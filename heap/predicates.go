package heap

import "bytes"

// TagCheck reports whether v is a variant built with constructor ctor and
// the given arity. It never fails on mismatched input.
func (h *Heap) TagCheck(v Value, ctor Value, arity int) bool {
	kind, n, ok := h.peekHeader(v)
	if !ok || kind != KindVariant || n != arity || !h.hasHeader(v, 2) {
		return false
	}
	return unpackCtor(h.mem.load(uint64(v)-2*WordSize)) == ctor.Int()
}

// ArrayCheck reports whether v is an array of the given arity.
func (h *Heap) ArrayCheck(v Value, arity int) bool {
	kind, n, ok := h.peekHeader(v)
	return ok && kind == KindArray && n == arity
}

// peekHeader decodes the kind+length word below v without faulting on
// values that are not object handles.
func (h *Heap) peekHeader(v Value) (Kind, int, bool) {
	if !h.hasHeader(v, 1) {
		return 0, 0, false
	}
	w := h.mem.load(uint64(v) - WordSize)
	if w&1 == 0 {
		return 0, 0, false
	}
	kind, n := unpackHeader(w)
	return kind, n, true
}

// StringEquality compares two heap strings byte for byte. Both operands
// must be strings.
func (h *Heap) StringEquality(a, b Value) bool {
	ha := h.object(a, "StringEquality")
	hb := h.object(b, "StringEquality")
	if ha.kind != KindString || hb.kind != KindString {
		h.contractf("StringEquality: string operands expected, got %s and %s", ha.kind, hb.kind)
	}
	if ha.length != hb.length {
		return false
	}
	return bytes.Equal(h.mem.loadBytes(uint64(a), ha.length), h.mem.loadBytes(uint64(b), hb.length))
}
