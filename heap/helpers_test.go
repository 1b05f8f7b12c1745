package heap

import (
	"io"
	"testing"
)

func newTestHeap(t *testing.T, opts Options) *Heap {
	t.Helper()
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Exit == nil {
		opts.Exit = func(int) {}
	}
	return New(opts)
}

// expectFatal runs fn and returns the FatalError it raised.
func expectFatal(t *testing.T, class FailureClass, fn func()) *FatalError {
	t.Helper()
	var got *FatalError
	func() {
		defer func() {
			if r := recover(); r != nil {
				fe, ok := r.(*FatalError)
				if !ok {
					panic(r)
				}
				got = fe
			}
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("expected %s, got none", class)
	}
	if got.Class != class {
		t.Fatalf("fatal class = %s, want %s (%s)", got.Class, class, got.Message)
	}
	return got
}

func ints(ns ...int64) []Value {
	out := make([]Value, len(ns))
	for i, n := range ns {
		out[i] = FromInt(n)
	}
	return out
}
