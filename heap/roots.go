package heap

// ---------------------------------------------------------------------------
// Static region
// ---------------------------------------------------------------------------

// GlobalAddr returns the address of static slot i.
func (h *Heap) GlobalAddr(i int) uint64 {
	if i < 0 || i >= len(h.static.words) {
		h.contractf("global index %d out of range [0,%d)", i, len(h.static.words))
	}
	return h.static.base + uint64(i)*WordSize
}

// Global returns static slot i.
func (h *Heap) Global(i int) Value {
	return Value(h.mem.load(h.GlobalAddr(i)))
}

// SetGlobal stores v in static slot i.
func (h *Heap) SetGlobal(i int, v Value) {
	h.mem.store(h.GlobalAddr(i), uint64(v))
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

// Push spills v onto the stack.
func (h *Heap) Push(v Value) {
	if h.sp-WordSize < h.stack.base {
		h.internalf("stack overflow (%d words)", len(h.stack.words))
	}
	h.sp -= WordSize
	h.mem.store(h.sp, uint64(v))
}

// Pop removes and returns the top of the stack.
func (h *Heap) Pop() Value {
	if h.sp >= h.bottom {
		h.internalf("stack underflow")
	}
	v := Value(h.mem.load(h.sp))
	h.mem.store(h.sp, 0)
	h.sp += WordSize
	return v
}

// Depth returns the number of words on the stack.
func (h *Heap) Depth() int {
	return int((h.bottom - h.sp) / WordSize)
}

// StackAddr returns the address of the stack word depth entries below the
// top; 0 is the top.
func (h *Heap) StackAddr(depth int) uint64 {
	if depth < 0 || depth >= h.Depth() {
		h.internalf("stack depth %d out of range [0,%d)", depth, h.Depth())
	}
	return h.sp + uint64(depth)*WordSize
}

// Peek returns the stack word at depth.
func (h *Heap) Peek(depth int) Value {
	return Value(h.mem.load(h.StackAddr(depth)))
}

// Poke overwrites the stack word at depth.
func (h *Heap) Poke(depth int, v Value) {
	h.mem.store(h.StackAddr(depth), uint64(v))
}

// spill pushes vs so they survive a collection; reload reads them back in
// order and pops them.
func (h *Heap) spill(vs []Value) {
	for _, v := range vs {
		h.Push(v)
	}
}

func (h *Heap) reload(vs []Value) {
	for i := len(vs) - 1; i >= 0; i-- {
		vs[i] = h.Pop()
	}
}

// ---------------------------------------------------------------------------
// Extra roots
// ---------------------------------------------------------------------------

// PushExtraRoot registers the variable at p as a root until the matching
// PopExtraRoot.
func (h *Heap) PushExtraRoot(p *Value) {
	if len(h.extra) >= h.opts.MaxExtraRoots {
		h.internalf("too many extra roots (limit %d)", h.opts.MaxExtraRoots)
	}
	h.extra = append(h.extra, p)
}

// PopExtraRoot deregisters p, which must be the most recently pushed root.
func (h *Heap) PopExtraRoot(p *Value) {
	n := len(h.extra)
	if n == 0 {
		h.internalf("pop of extra root with none registered")
	}
	if h.extra[n-1] != p {
		h.internalf("pop of extra root %p does not match most recent %p", p, h.extra[n-1])
	}
	h.extra[n-1] = nil
	h.extra = h.extra[:n-1]
}

// ExtraRoots returns the number of registered extra roots.
func (h *Heap) ExtraRoots() int {
	return len(h.extra)
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

// scanRange relocates every live reference stored in [from, to).
func (h *Heap) scanRange(from, to uint64) int {
	found := 0
	for a := from; a < to; a += WordSize {
		w := h.mem.load(a)
		if h.isLive(w) {
			h.mem.store(a, h.relocate(w))
			found++
		}
	}
	return found
}

// scanRoots relocates all three root sources in place.
func (h *Heap) scanRoots(s *CycleStats) {
	s.StaticRoots = h.scanRange(h.static.base, h.static.end())
	if h.scanTop != 0 {
		s.StackRoots = h.scanRange(h.scanTop, h.bottom)
	}
	for _, p := range h.extra {
		if h.isLive(uint64(*p)) {
			*p = Value(h.relocate(uint64(*p)))
			s.ExtraRoots++
		}
	}
}
