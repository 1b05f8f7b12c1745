package heap

import (
	"encoding/binary"
	"fmt"
)

// Each region is mapped at the start of its own reservation so that it can
// grow in place without colliding with a neighbour.
const (
	firstRegionBase uint64 = 1 << 36
	regionStride    uint64 = 1 << 36
)

// region is a contiguous range of mapped words.
type region struct {
	name  string
	base  uint64
	words []uint64
}

func (r *region) end() uint64 {
	return r.base + uint64(len(r.words))*WordSize
}

func (r *region) contains(addr uint64) bool {
	return addr >= r.base && addr < r.end()
}

// addressSpace is a simulated flat memory. Addresses are byte addresses;
// word accesses must be aligned.
type addressSpace struct {
	regions []*region
	next    uint64
	last    *region

	// fault reports an access violation. It must not return.
	fault func(format string, args ...any)
}

func newAddressSpace(fault func(format string, args ...any)) *addressSpace {
	return &addressSpace{next: firstRegionBase, fault: fault}
}

// mapRegion reserves a fresh range and maps n zeroed words at its start.
func (as *addressSpace) mapRegion(name string, n int) *region {
	if uint64(n)*WordSize > regionStride {
		as.fault("map %s: %d words exceeds reservation", name, n)
		return nil
	}
	r := &region{name: name, base: as.next, words: make([]uint64, n)}
	as.next += regionStride
	as.regions = append(as.regions, r)
	return r
}

func (as *addressSpace) unmap(r *region) {
	for i, x := range as.regions {
		if x == r {
			as.regions = append(as.regions[:i], as.regions[i+1:]...)
			break
		}
	}
	if as.last == r {
		as.last = nil
	}
}

// growInPlace extends r to n words without moving its base. Existing
// contents are preserved.
func (as *addressSpace) growInPlace(r *region, n int) error {
	if n < len(r.words) {
		return fmt.Errorf("grow %s: shrinking from %d to %d words", r.name, len(r.words), n)
	}
	if uint64(n)*WordSize > regionStride {
		return fmt.Errorf("grow %s: %d words exceeds reservation", r.name, n)
	}
	grown := make([]uint64, n)
	copy(grown, r.words)
	r.words = grown
	return nil
}

// remap moves r to a fresh reservation with n zeroed words. The old
// contents are discarded.
func (as *addressSpace) remap(r *region, n int) {
	as.unmap(r)
	nr := as.mapRegion(r.name, n)
	*r = *nr
	as.regions[len(as.regions)-1] = r
}

func (as *addressSpace) find(addr uint64) *region {
	if as.last != nil && as.last.contains(addr) {
		return as.last
	}
	for _, r := range as.regions {
		if r.contains(addr) {
			as.last = r
			return r
		}
	}
	return nil
}

func (as *addressSpace) slot(addr uint64) (*region, int) {
	if addr%WordSize != 0 {
		as.fault("misaligned word access at %#x", addr)
		return nil, 0
	}
	r := as.find(addr)
	if r == nil {
		as.fault("access to unmapped address %#x", addr)
		return nil, 0
	}
	return r, int((addr - r.base) / WordSize)
}

func (as *addressSpace) load(addr uint64) uint64 {
	r, i := as.slot(addr)
	return r.words[i]
}

func (as *addressSpace) store(addr uint64, w uint64) {
	r, i := as.slot(addr)
	r.words[i] = w
}

// copyWords moves n words from src to dst. The ranges may be in different
// regions but must not overlap.
func (as *addressSpace) copyWords(dst, src uint64, n int) {
	if n == 0 {
		return
	}
	sr, si := as.slot(src)
	dr, di := as.slot(dst)
	if si+n > len(sr.words) || di+n > len(dr.words) {
		as.fault("copy of %d words from %#x to %#x crosses a region end", n, src, dst)
		return
	}
	copy(dr.words[di:di+n], sr.words[si:si+n])
}

// Bytes are packed little-endian within words.

func (as *addressSpace) loadByte(addr uint64) byte {
	w := as.load(addr &^ (WordSize - 1))
	return byte(w >> ((addr % WordSize) * 8))
}

func (as *addressSpace) storeByte(addr uint64, b byte) {
	base := addr &^ (WordSize - 1)
	shift := (addr % WordSize) * 8
	w := as.load(base)
	w = w&^(0xff<<shift) | uint64(b)<<shift
	as.store(base, w)
}

func (as *addressSpace) loadBytes(addr uint64, n int) []byte {
	out := make([]byte, n)
	var buf [WordSize]byte
	for i := 0; i < n; {
		a := addr + uint64(i)
		base := a &^ (WordSize - 1)
		binary.LittleEndian.PutUint64(buf[:], as.load(base))
		i += copy(out[i:], buf[a-base:])
	}
	return out
}

func (as *addressSpace) storeBytes(addr uint64, b []byte) {
	for i, c := range b {
		as.storeByte(addr+uint64(i), c)
	}
}
