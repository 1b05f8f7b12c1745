package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/chazu/tagheap/heap"
)

// Static slots used by the workload.
const (
	globalList    = 0 // list of Person records, newest first
	globalCounter = 1 // one-element array counting every Person created
	globalTag     = 2 // closure capturing the name prefix string
)

// workload mutates a heap the way compiled code would: every value that
// must survive an allocating call lives in a global or on the heap stack.
// model mirrors the list's ages, newest first, so the heap can be checked.
type workload struct {
	h      *heap.Heap
	cons   heap.Value
	null   heap.Value
	person heap.Value
	model  []int64
	next   int64
}

func newWorkload(h *heap.Heap) *workload {
	w := &workload{
		h:      h,
		cons:   h.ConstructorID("Cons"),
		null:   h.ConstructorID("Nil"),
		person: h.ConstructorID("Person"),
	}
	h.SetGlobal(globalList, h.BuildVariant(nil, w.null))
	h.SetGlobal(globalCounter, h.BuildArray([]heap.Value{heap.FromInt(0)}))
	prefix := h.BuildString([]byte("person-"))
	h.SetGlobal(globalTag, h.BuildClosure(heap.FromInt(1), []heap.Value{prefix}))
	return w
}

// add prepends a new Person to the list.
func (w *workload) add() {
	h := w.h
	age := w.next
	w.next++

	h.Push(w.name(age))
	p := h.BuildVariant([]heap.Value{h.Peek(0), heap.FromInt(age)}, w.person)
	h.Pop()
	cell := h.BuildVariant([]heap.Value{p, h.Global(globalList)}, w.cons)
	h.SetGlobal(globalList, cell)
	w.model = append([]int64{age}, w.model...)

	box := h.Global(globalCounter)
	h.Store(box, heap.StoreSentinel, heap.FromInt(h.ElementAt(box, 0).Int()+1))
}

// name builds "person-<age>" from the prefix captured by the tag closure,
// then capitalizes it in place.
func (w *workload) name(age int64) heap.Value {
	h := w.h
	s := h.CopyString(h.ElementAt(h.Global(globalTag), 1))
	full := h.StringOf(s) + fmt.Sprint(age)
	s = h.BuildString([]byte(full))
	h.Store(s, 0, heap.FromInt('P'))
	return s
}

// filter rebuilds the list keeping the people for which keep is true.
func (w *workload) filter(keep func(age int64) bool) {
	h := w.h

	h.Push(h.Global(globalList))        // cursor
	h.Push(h.BuildVariant(nil, w.null)) // reversed result
	for {
		cur := h.Peek(1)
		if h.TagCheck(cur, w.null, 0) {
			break
		}
		if !h.TagCheck(cur, w.cons, 2) {
			w.matchFail(cur)
		}
		p := h.ElementAt(cur, 0)
		if !h.TagCheck(p, w.person, 2) {
			w.matchFail(p)
		}
		if keep(h.ElementAt(p, 1).Int()) {
			h.Poke(0, h.BuildVariant([]heap.Value{p, h.Peek(0)}, w.cons))
		}
		h.Poke(1, h.ElementAt(h.Peek(1), 1))
	}
	reversed := h.Pop()
	h.Pop()
	h.SetGlobal(globalList, w.reverse(reversed))

	kept := w.model[:0]
	for _, age := range w.model {
		if keep(age) {
			kept = append(kept, age)
		}
	}
	w.model = kept
}

func (w *workload) reverse(list heap.Value) heap.Value {
	h := w.h

	h.Push(list)
	h.Push(h.BuildVariant(nil, w.null))
	for cur := h.Peek(1); h.TagCheck(cur, w.cons, 2); cur = h.Peek(1) {
		h.Poke(0, h.BuildVariant([]heap.Value{h.ElementAt(cur, 0), h.Peek(0)}, w.cons))
		h.Poke(1, h.ElementAt(h.Peek(1), 1))
	}
	out := h.Pop()
	h.Pop()
	return out
}

// verify walks the list and compares it with the model, failing the heap
// on the first mismatch.
func (w *workload) verify() {
	h := w.h

	h.Push(h.Global(globalList))
	for i, age := range w.model {
		cur := h.Peek(0)
		if !h.TagCheck(cur, w.cons, 2) {
			w.matchFail(cur)
		}
		p := h.ElementAt(cur, 0)
		if got := h.ElementAt(p, 1).Int(); got != age {
			h.Fail("element %d: age %d, want %d", i, got, age)
		}
		want := h.BuildString([]byte(fmt.Sprintf("Person-%d", age)))
		name := h.ElementAt(h.ElementAt(h.Peek(0), 0), 0)
		if !h.StringEquality(name, want) {
			h.Fail("element %d: name %q, want %q", i, h.StringOf(name), h.StringOf(want))
		}
		h.Poke(0, h.ElementAt(h.Peek(0), 1))
	}
	if tail := h.Pop(); !h.TagCheck(tail, w.null, 0) {
		h.Fail("list longer than the %d expected elements", len(w.model))
	}

	if got := h.ElementAt(h.Global(globalCounter), 0).Int(); got != w.next {
		h.Fail("counter %d, want %d", got, w.next)
	}
}

// run adds perRound people per round, drops every third age after each
// round and verifies the list.
func (w *workload) run(rounds, perRound int) {
	for r := 0; r < rounds; r++ {
		for i := 0; i < perRound; i++ {
			w.add()
		}
		w.filter(func(age int64) bool { return age%3 != 0 })
		w.verify()
	}
}

// matchFail reports v as unmatched at the caller's source location.
func (w *workload) matchFail(v heap.Value) {
	_, file, line, _ := runtime.Caller(1)
	w.h.MatchFail(v, filepath.Base(file), line, 0)
}
