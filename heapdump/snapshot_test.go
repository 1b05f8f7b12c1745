package heapdump

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/chazu/tagheap/heap"
)

func newHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(heap.Options{SpaceWords: 64, Stderr: io.Discard, Exit: func(int) {}})
}

func buildSample(h *heap.Heap) {
	name := h.BuildString([]byte("answer"))
	h.Push(name)
	v := h.BuildVariant([]heap.Value{h.Peek(0), heap.FromInt(42)}, h.ConstructorID("Pair"))
	h.Pop()
	h.SetGlobal(0, v)
	h.SetGlobal(1, h.BuildArray([]heap.Value{v, heap.FromInt(1)}))
	h.BuildString([]byte("garbage"))
	h.Collect()
}

func TestCapture(t *testing.T) {
	h := newHeap(t)
	buildSample(h)

	s := Capture(h)

	if len(s.Objects) != 3 {
		t.Fatalf("captured %d objects, want 3", len(s.Objects))
	}
	if s.LiveBytes() != h.UsedBytes() {
		t.Errorf("LiveBytes = %d, want %d", s.LiveBytes(), h.UsedBytes())
	}
	if s.Cycles != 1 {
		t.Errorf("Cycles = %d, want 1", s.Cycles)
	}

	pair, ok := s.Find(s.Static[0])
	if !ok {
		t.Fatalf("static[0] %#x not found", s.Static[0])
	}
	if pair.Kind != heap.KindVariant || pair.Name != "Pair" || len(pair.Fields) != 2 {
		t.Errorf("pair = %+v", pair)
	}
	str, ok := s.Find(pair.Fields[0])
	if !ok || string(str.Bytes) != "answer" {
		t.Errorf("pair field 0 = %+v", str)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyDetectsDanglingReference(t *testing.T) {
	h := newHeap(t)
	buildSample(h)
	s := Capture(h)

	s.Static[0] = s.Space.Begin + 8*heap.WordSize + 8
	if err := s.Verify(); err == nil {
		t.Error("Verify should reject a reference to no object")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	h := newHeap(t)
	buildSample(h)
	s := Capture(h)

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Objects) != len(s.Objects) || got.Space != s.Space {
		t.Errorf("round trip = %+v, want %+v", got, s)
	}
	if err := got.Verify(); err != nil {
		t.Errorf("Verify after round trip: %v", err)
	}

	again, err := Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not stable across a round trip")
	}
}

func TestWriteReadFile(t *testing.T) {
	h := newHeap(t)
	buildSample(h)
	path := filepath.Join(t.TempDir(), "heap.cbor")

	if err := WriteFile(path, Capture(h)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(s.Objects) != 3 {
		t.Errorf("read %d objects, want 3", len(s.Objects))
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("Unmarshal should reject malformed input")
	}
}
