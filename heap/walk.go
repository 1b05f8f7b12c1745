package heap

// Object describes one object in the active space.
type Object struct {
	Handle Value
	Kind   Kind
	Length int
	// Ctor is the constructor identifier of a variant.
	Ctor int64
	// Size is the footprint in bytes including header words.
	Size uint64
}

// Objects calls fn for each object in the active space in address order,
// including unreachable ones not yet collected. Blocks from Allocate are
// skipped while they are still zeroed; a partly written block without a
// header is an internal error. It stops when fn returns false. fn must not
// allocate.
func (h *Heap) Objects(fn func(Object) bool) {
	h.walk(h.active, func(handle uint64, hdr header) bool {
		return fn(Object{
			Handle: Value(handle),
			Kind:   hdr.kind,
			Length: hdr.length,
			Ctor:   hdr.ctor,
			Size:   hdr.totalBytes(),
		})
	})
}

// Words returns the raw payload words of an array, variant or closure.
func (h *Heap) Words(v Value) []Value {
	hdr := h.object(v, "Words")
	if hdr.kind == KindString {
		h.contractf("Words: %s is a string", v)
	}
	out := make([]Value, hdr.length)
	for i := range out {
		out[i] = Value(h.mem.load(uint64(v) + uint64(i)*WordSize))
	}
	return out
}

// Roots returns copies of the static region and the stack words currently
// on the stack, top first.
func (h *Heap) Roots() (static, stack []Value) {
	static = make([]Value, len(h.static.words))
	for i, w := range h.static.words {
		static[i] = Value(w)
	}
	stack = make([]Value, h.Depth())
	for i := range stack {
		stack[i] = Value(h.mem.load(h.sp + uint64(i)*WordSize))
	}
	return static, stack
}
