package heap

import "slices"

// ---------------------------------------------------------------------------
// Object creation
// ---------------------------------------------------------------------------

// BuildArray allocates an array holding elems.
func (h *Heap) BuildArray(elems []Value) Value {
	vs := slices.Clone(elems)
	h.spill(vs)
	defer h.leave(h.enter())
	addr := h.alloc(WordSize * (1 + len(vs)))
	h.reload(vs)
	return h.initWords(addr, KindArray, vs)
}

// BuildString allocates a string holding a copy of b followed by a zero
// terminator.
func (h *Heap) BuildString(b []byte) Value {
	if len(b) > MaxLength {
		h.contractf("string of %d bytes too long", len(b))
	}
	defer h.leave(h.enter())
	addr := h.alloc(WordSize + len(b) + 1)
	h.mem.store(addr, packHeader(KindString, len(b)))
	h.mem.storeBytes(addr+WordSize, b)
	return Value(addr + WordSize)
}

// CopyString allocates a fresh copy of the heap string src.
func (h *Heap) CopyString(src Value) Value {
	if hdr := h.object(src, "CopyString"); hdr.kind != KindString {
		h.contractf("CopyString: %s is a %s, not a string", src, hdr.kind)
	}
	defer h.leave(h.enter())
	h.PushExtraRoot(&src)
	n := h.lengthAt(src)
	addr := h.alloc(WordSize + n + 1)
	h.PopExtraRoot(&src)
	h.mem.store(addr, packHeader(KindString, n))
	h.mem.copyWords(addr+WordSize, src.Addr(), int(roundWords(uint64(n)+1)/WordSize))
	return Value(addr + WordSize)
}

// BuildVariant allocates a tagged variant with the given fields and
// constructor identifier.
func (h *Heap) BuildVariant(fields []Value, ctor Value) Value {
	if ctor.IsBoxed() {
		h.contractf("BuildVariant: constructor %s is not an integer", ctor)
	}
	vs := slices.Clone(fields)
	h.spill(vs)
	defer h.leave(h.enter())
	addr := h.alloc(WordSize * (2 + len(vs)))
	h.reload(vs)
	h.mem.store(addr, packCtor(ctor.Int()))
	return h.initWords(addr+WordSize, KindVariant, vs)
}

// BuildClosure allocates a closure over code capturing the given values.
// The code reference occupies element 0.
func (h *Heap) BuildClosure(code Value, captured []Value) Value {
	vs := append([]Value{code}, captured...)
	h.spill(vs)
	defer h.leave(h.enter())
	addr := h.alloc(WordSize * (1 + len(vs)))
	h.reload(vs)
	return h.initWords(addr, KindClosure, vs)
}

func (h *Heap) initWords(hdrAddr uint64, kind Kind, vs []Value) Value {
	h.mem.store(hdrAddr, packHeader(kind, len(vs)))
	handle := hdrAddr + WordSize
	for i, v := range vs {
		h.mem.store(handle+uint64(i)*WordSize, uint64(v))
	}
	return Value(handle)
}

// ---------------------------------------------------------------------------
// Object access
// ---------------------------------------------------------------------------

// object validates that v is a handle into the heap and returns its header.
func (h *Heap) object(v Value, op string) header {
	if v.IsUnboxed() {
		h.contractf("%s: boxed value expected, got %s", op, v)
	}
	if !h.hasHeader(v, 1) {
		h.contractf("%s: %s is not a heap object", op, v)
	}
	w := h.mem.load(uint64(v) - WordSize)
	if w&1 == 0 {
		h.contractf("%s: %s is not an object handle", op, v)
	}
	kind, n := unpackHeader(w)
	hdr := header{kind: kind, length: n}
	if kind == KindVariant {
		if !h.hasHeader(v, 2) {
			h.contractf("%s: %s is not an object handle", op, v)
		}
		hdr.ctor = unpackCtor(h.mem.load(uint64(v) - 2*WordSize))
	}
	return hdr
}

func (h *Heap) kindAt(v Value) Kind {
	k, _ := unpackHeader(h.mem.load(uint64(v) - WordSize))
	return k
}

func (h *Heap) lengthAt(v Value) int {
	_, n := unpackHeader(h.mem.load(uint64(v) - WordSize))
	return n
}

// Length returns the element count of an array, variant or closure, or the
// byte count of a string.
func (h *Heap) Length(v Value) int {
	return h.object(v, "Length").length
}

// KindOf returns the kind of the object at v.
func (h *Heap) KindOf(v Value) Kind {
	return h.object(v, "KindOf").kind
}

// ElementAt returns element i of v. String elements are returned as inline
// integers; all other elements are returned as stored.
func (h *Heap) ElementAt(v Value, i int) Value {
	hdr := h.object(v, "ElementAt")
	if i < 0 || i >= hdr.length {
		h.contractf("ElementAt: index %d out of range [0,%d)", i, hdr.length)
	}
	if hdr.kind == KindString {
		return FromInt(int64(h.mem.loadByte(uint64(v) + uint64(i))))
	}
	return Value(h.mem.load(uint64(v) + uint64(i)*WordSize))
}

// ConstructorOf returns the constructor identifier of a variant.
func (h *Heap) ConstructorOf(v Value) int64 {
	hdr := h.object(v, "ConstructorOf")
	if hdr.kind != KindVariant {
		h.contractf("ConstructorOf: %s is a %s, not a variant", v, hdr.kind)
	}
	return hdr.ctor
}

// StringOf returns the contents of a heap string.
func (h *Heap) StringOf(v Value) string {
	hdr := h.object(v, "StringOf")
	if hdr.kind != KindString {
		h.contractf("StringOf: %s is a %s, not a string", v, hdr.kind)
	}
	return string(h.mem.loadBytes(uint64(v), hdr.length))
}
