// Package heapdump captures the active space of a heap as a self-contained
// snapshot and serializes it as canonical CBOR.
package heapdump

import (
	"fmt"
	"sort"

	"github.com/chazu/tagheap/heap"
)

// Snapshot is the state of a heap at one point in time.
type Snapshot struct {
	Space   Space    `cbor:"space"`
	Cycles  uint64   `cbor:"cycles"`
	Static  []uint64 `cbor:"static"`
	Stack   []uint64 `cbor:"stack"`
	Objects []Object `cbor:"objects"`
}

// Space records the active semi-space bounds.
type Space struct {
	Begin   uint64 `cbor:"begin"`
	End     uint64 `cbor:"end"`
	Current uint64 `cbor:"current"`
	Words   int    `cbor:"words"`
}

// Object is one heap object. Strings carry Bytes, every other kind Fields.
type Object struct {
	Handle uint64    `cbor:"handle"`
	Kind   heap.Kind `cbor:"kind"`
	Length int       `cbor:"length"`
	Size   uint64    `cbor:"size"`
	Ctor   int64     `cbor:"ctor,omitempty"`
	Name   string    `cbor:"name,omitempty"`
	Fields []uint64  `cbor:"fields,omitempty"`
	Bytes  []byte    `cbor:"bytes,omitempty"`
}

// Capture walks the active space of h. Unreachable objects allocated since
// the last collection are included; collect first for a live-only view.
func Capture(h *heap.Heap) *Snapshot {
	sp := h.Space()
	s := &Snapshot{
		Space:  Space{Begin: sp.Begin, End: sp.End, Current: sp.Current, Words: sp.Words},
		Cycles: h.Stats().Cycles,
	}

	static, stack := h.Roots()
	s.Static = words(static)
	s.Stack = words(stack)

	h.Objects(func(o heap.Object) bool {
		obj := Object{
			Handle: uint64(o.Handle),
			Kind:   o.Kind,
			Length: o.Length,
			Size:   o.Size,
		}
		switch o.Kind {
		case heap.KindString:
			obj.Bytes = []byte(h.StringOf(o.Handle))
		case heap.KindVariant:
			obj.Ctor = o.Ctor
			obj.Name = heap.ConstructorName(o.Ctor)
			obj.Fields = words(h.Words(o.Handle))
		default:
			obj.Fields = words(h.Words(o.Handle))
		}
		s.Objects = append(s.Objects, obj)
		return true
	})
	return s
}

func words(vs []heap.Value) []uint64 {
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = uint64(v)
	}
	return out
}

// LiveBytes sums the sizes of all objects in the snapshot.
func (s *Snapshot) LiveBytes() uint64 {
	var n uint64
	for _, o := range s.Objects {
		n += o.Size
	}
	return n
}

// Find returns the object with the given handle.
func (s *Snapshot) Find(handle uint64) (*Object, bool) {
	i := sort.Search(len(s.Objects), func(i int) bool { return s.Objects[i].Handle >= handle })
	if i < len(s.Objects) && s.Objects[i].Handle == handle {
		return &s.Objects[i], true
	}
	return nil, false
}

func (s *Snapshot) inSpace(w uint64) bool {
	return w&1 == 0 && w >= s.Space.Begin && w < s.Space.End
}

// Verify checks that every in-space reference held by a root or an object
// field names the handle of an object in the snapshot.
func (s *Snapshot) Verify() error {
	check := func(where string, w uint64) error {
		if !s.inSpace(w) {
			return nil
		}
		if _, ok := s.Find(w); !ok {
			return fmt.Errorf("heapdump: %s holds dangling reference %#x", where, w)
		}
		return nil
	}
	for i, w := range s.Static {
		if err := check(fmt.Sprintf("static[%d]", i), w); err != nil {
			return err
		}
	}
	for i, w := range s.Stack {
		if err := check(fmt.Sprintf("stack[%d]", i), w); err != nil {
			return err
		}
	}
	for _, o := range s.Objects {
		for i, w := range o.Fields {
			if err := check(fmt.Sprintf("%s %#x field %d", o.Kind, o.Handle, i), w); err != nil {
				return err
			}
		}
	}
	return nil
}
