package heap

import (
	"bytes"
	"strings"
	"testing"
)

func TestFail(t *testing.T) {
	var stderr bytes.Buffer
	status := -1
	h := New(Options{Stderr: &stderr, Exit: func(s int) { status = s }})

	fe := expectFatal(t, Failure, func() { h.Fail("bad thing %d", 7) })

	if status != ExitFailure {
		t.Errorf("exit status = %d, want %d", status, ExitFailure)
	}
	if fe.Message != "bad thing 7" {
		t.Errorf("Message = %q", fe.Message)
	}
	if got := stderr.String(); got != "*** FAILURE: bad thing 7\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestMatchFailUsesFormatter(t *testing.T) {
	var stderr bytes.Buffer
	h := New(Options{
		Stderr: &stderr,
		Exit:   func(int) {},
		Formatter: FormatterFunc(func(h *Heap, v Value) string {
			if v.IsBoxed() && h.KindOf(v) == KindString {
				return h.StringOf(v)
			}
			return v.String()
		}),
	})
	s := h.BuildString([]byte("unexpected"))

	fe := expectFatal(t, MatchFailure, func() { h.MatchFail(s, "main.lama", 12, 3) })

	want := "match failure at main.lama:12:3, value 'unexpected'"
	if fe.Message != want {
		t.Errorf("Message = %q, want %q", fe.Message, want)
	}
	if fe.Status != ExitFailure {
		t.Errorf("Status = %d, want %d", fe.Status, ExitFailure)
	}
	if !strings.Contains(stderr.String(), want) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPlainFormatter(t *testing.T) {
	h := newTestHeap(t, Options{})
	a := h.BuildArray(ints(1, 2))

	tests := []struct {
		v    Value
		want string
	}{
		{FromInt(-3), "-3"},
		{a, "<array/2 " + a.String() + ">"},
		{Value(16), "@0x10"},
	}

	for _, tt := range tests {
		if got := (plainFormatter{}).Format(h, tt.v); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFatalErrorString(t *testing.T) {
	fe := &FatalError{Class: Contract, Status: ExitContract, Message: "x"}
	if got := fe.Error(); got != "contract violation: x" {
		t.Errorf("Error() = %q", got)
	}
}
