package main

import (
	"io"
	"strings"
	"testing"

	"github.com/chazu/tagheap/heap"
)

func newTestHeap(spaceWords int) *heap.Heap {
	return heap.New(heap.Options{
		SpaceWords: spaceWords,
		Stderr:     io.Discard,
		Exit:       func(int) {},
		Formatter:  heap.FormatterFunc(formatValue),
	})
}

func TestWorkloadRun(t *testing.T) {
	h := newTestHeap(32)
	w := newWorkload(h)

	w.run(5, 30)

	if got, want := len(w.model), 100; got != want {
		t.Errorf("people alive = %d, want %d", got, want)
	}
	st := h.Stats()
	if st.Cycles == 0 || st.Growths == 0 {
		t.Errorf("Cycles/Growths = %d/%d, want both > 0", st.Cycles, st.Growths)
	}
	if h.Depth() != 0 {
		t.Errorf("stack depth = %d after the workload, want 0", h.Depth())
	}
}

func TestWorkloadDetectsCorruption(t *testing.T) {
	h := newTestHeap(1024)
	w := newWorkload(h)
	w.add()
	w.add()

	// Overwrite the newest person's age behind the model's back.
	p := h.ElementAt(h.Global(globalList), 0)
	h.Store(p, 1, heap.FromInt(99))

	defer func() {
		r := recover()
		fe, ok := r.(*heap.FatalError)
		if !ok {
			t.Fatalf("recovered %v, want *heap.FatalError", r)
		}
		if fe.Class != heap.Failure || !strings.Contains(fe.Message, "age 99") {
			t.Errorf("fatal = %v", fe)
		}
	}()
	w.verify()
}

func TestFilterMatchFailure(t *testing.T) {
	h := newTestHeap(1024)
	w := newWorkload(h)
	w.add()
	h.SetGlobal(globalList, h.BuildArray([]heap.Value{heap.FromInt(1)}))

	defer func() {
		fe, ok := recover().(*heap.FatalError)
		if !ok || fe.Class != heap.MatchFailure {
			t.Fatalf("recovered %v, want a match failure", fe)
		}
		if !strings.Contains(fe.Message, "value '[1]'") || !strings.Contains(fe.Message, "workload.go") {
			t.Errorf("message = %q", fe.Message)
		}
	}()
	w.filter(func(int64) bool { return true })
}

func TestFormatValue(t *testing.T) {
	h := newTestHeap(1024)
	s := h.BuildString([]byte("hi"))
	h.Push(s)
	v := h.BuildVariant([]heap.Value{h.Peek(0), heap.FromInt(3)}, h.ConstructorID("Pair"))
	h.Pop()

	tests := []struct {
		v    heap.Value
		want string
	}{
		{heap.FromInt(-7), "-7"},
		{s, `"hi"`},
		{v, `Pair ("hi", 3)`},
		{h.BuildVariant(nil, h.ConstructorID("Nil")), "Nil"},
		{h.BuildClosure(heap.FromInt(5), nil), "<closure 5>"},
	}

	for _, tt := range tests {
		if got := formatValue(h, tt.v); got != tt.want {
			t.Errorf("formatValue = %q, want %q", got, tt.want)
		}
	}
}
