package heap

import "time"

// Collect forces a full collection cycle.
func (h *Heap) Collect() {
	defer h.leave(h.enter())
	h.collect(0)
}

// collect copies the live set into the passive space, grows both spaces if
// the survivors leave no room for a request of size bytes, and swaps the
// spaces' roles.
func (h *Heap) collect(size uint64) {
	if h.collecting {
		h.internalf("collection re-entered")
	}
	h.collecting = true
	start := time.Now()

	s := CycleStats{
		Cycle:          h.stats.Cycles + 1,
		RequestedBytes: size,
		UsedBytes:      h.active.current - h.active.begin,
		SpaceWords:     h.active.size,
	}

	if h.passive.current != h.passive.begin {
		h.internalf("passive space not empty at collection start")
	}

	h.scanRoots(&s)
	h.traverse(h.passive.begin)

	s.LiveBytes = h.passive.current - h.passive.begin
	s.LiveObjects = h.countObjects(h.passive)
	s.ReclaimedBytes = s.UsedBytes - s.LiveBytes

	for h.passive.end-h.passive.current <= size {
		h.grow()
		s.Grew = true
	}

	h.active.reset()
	h.active, h.passive = h.passive, h.active
	h.collecting = false

	s.NewSpaceWords = h.active.size
	s.Duration = time.Since(start)
	h.stats.record(&s)

	h.log.Debugf("gc #%d: live %d bytes in %d objects, reclaimed %d bytes, space %d words%s",
		s.Cycle, s.LiveBytes, s.LiveObjects, s.ReclaimedBytes, s.NewSpaceWords, growNote(s.Grew))
	for _, o := range h.observers {
		o.CycleDone(s)
	}
}

func growNote(grew bool) string {
	if grew {
		return " (grown)"
	}
	return ""
}

// relocate returns the passive-space handle for the active-space object at
// handle p, copying it on first visit.
func (h *Heap) relocate(p uint64) uint64 {
	hdrAddr := p - WordSize
	w := h.mem.load(hdrAddr)
	if isForwarded(w) {
		if !h.passive.contains(w) {
			h.internalf("forwarding address %#x of %#x outside passive space", w, p)
		}
		return w
	}

	hdr := h.readHeader(p)
	start := hdrAddr - uint64(hdr.prefixWords())*WordSize
	total := hdr.totalBytes()
	dst := h.passive.current
	if dst+total > h.passive.end {
		h.internalf("copy: passive space exhausted copying %d bytes", total)
	}
	h.mem.copyWords(dst, start, int(total/WordSize))
	h.passive.current += total

	moved := dst + (p - start)
	h.mem.store(hdrAddr, moved)
	return moved
}

// traverse scans passive-space objects from scan up to the copy pointer,
// relocating every reference they hold. Objects copied during the walk land
// past the cursor and are visited by the same loop.
func (h *Heap) traverse(scan uint64) {
	for scan < h.passive.current {
		hdrAddr := scan
		if h.mem.load(scan)&1 == 0 {
			hdrAddr += WordSize
		}
		kind, n := unpackHeader(h.mem.load(hdrAddr))
		payload := hdrAddr + WordSize
		if kind == KindString {
			scan = payload + roundWords(uint64(n)+1)
			continue
		}
		end := payload + uint64(n)*WordSize
		for a := payload; a < end; a += WordSize {
			w := h.mem.load(a)
			if h.isLive(w) {
				h.mem.store(a, h.relocate(w))
			}
		}
		scan = end
	}
}

// grow doubles both spaces. The active space holds only stale copies and is
// moved; the passive space already holds live data and must keep its base.
func (h *Heap) grow() {
	n := h.passive.size * 2
	h.mem.remap(h.active.r, n)
	h.active.current = 0
	h.active.sync()
	if err := h.mem.growInPlace(h.passive.r, n); err != nil {
		h.internalf("space growth failed: %v", err)
	}
	h.passive.sync()
	h.log.Infof("semi-spaces grown to %d words", n)
}

// countObjects walks a space in address order and counts its objects.
func (h *Heap) countObjects(p *pool) int {
	n := 0
	h.walk(p, func(uint64, header) bool {
		n++
		return true
	})
	return n
}

// walk visits each object in p from begin to current. Zero words not
// followed by a variant header belong to blocks returned by Allocate that
// have no header yet; they are skipped.
func (h *Heap) walk(p *pool, fn func(handle uint64, hdr header) bool) {
	for a := p.begin; a < p.current; {
		hdrAddr := a
		if w := h.mem.load(a); w&1 == 0 {
			if w == 0 && !h.variantHeaderAt(a+WordSize, p) {
				a += WordSize
				continue
			}
			hdrAddr += WordSize
		}
		handle := hdrAddr + WordSize
		hdr := h.readHeader(handle)
		if !hdr.kind.valid() {
			h.internalf("walk: unknown object kind %#x at %#x", uint8(hdr.kind), handle)
		}
		if !fn(handle, hdr) {
			return
		}
		a = handle + hdr.payloadBytes()
	}
}

func (h *Heap) variantHeaderAt(addr uint64, p *pool) bool {
	if addr >= p.current {
		return false
	}
	w := h.mem.load(addr)
	kind, _ := unpackHeader(w)
	return w&1 == 1 && kind == KindVariant
}

// readHeader decodes the header record of the object at handle.
func (h *Heap) readHeader(handle uint64) header {
	kind, n := unpackHeader(h.mem.load(handle - WordSize))
	hdr := header{kind: kind, length: n}
	if kind == KindVariant {
		hdr.ctor = unpackCtor(h.mem.load(handle - 2*WordSize))
	}
	return hdr
}
