package heap

import "fmt"

// Exit statuses for the fatal paths.
const (
	ExitFailure  = 30
	ExitInternal = 254
	ExitContract = 255
)

// FailureClass distinguishes the sources of a fatal error.
type FailureClass int

const (
	// Contract is a representation contract violation: a boxed value where
	// an integer was expected, a non-string where a string was required,
	// an index out of range.
	Contract FailureClass = iota
	// Internal is a broken collector invariant. The heap may be half copied.
	Internal
	// Failure is an explicit Fail call from the program.
	Failure
	// MatchFailure is a pattern match that fell through.
	MatchFailure
)

func (c FailureClass) String() string {
	switch c {
	case Contract:
		return "contract violation"
	case Internal:
		return "internal error"
	case Failure:
		return "failure"
	case MatchFailure:
		return "match failure"
	}
	return fmt.Sprintf("FailureClass(%d)", int(c))
}

// FatalError describes an unrecoverable condition. In production the process
// exits before a FatalError escapes; when Options.Exit returns, the error is
// raised with panic.
type FatalError struct {
	Class   FailureClass
	Status  int
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// Formatter renders a value as text for diagnostics.
type Formatter interface {
	Format(h *Heap, v Value) string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(h *Heap, v Value) string

func (f FormatterFunc) Format(h *Heap, v Value) string { return f(h, v) }

// plainFormatter is used when no Formatter is configured.
type plainFormatter struct{}

func (plainFormatter) Format(h *Heap, v Value) string {
	if v.IsUnboxed() || !h.isHeapAddr(uint64(v)) {
		return v.String()
	}
	return fmt.Sprintf("<%s/%d %s>", h.kindAt(v), h.lengthAt(v), v)
}

// fatal terminates the program. It never returns.
func (h *Heap) fatal(class FailureClass, status int, format string, args ...any) {
	err := &FatalError{Class: class, Status: status, Message: fmt.Sprintf(format, args...)}
	h.log.Criticalf("%s", err)
	if h.opts.Stderr != nil {
		fmt.Fprintf(h.opts.Stderr, "*** FAILURE: %s\n", err.Message)
	}
	h.opts.Exit(status)
	panic(err)
}

func (h *Heap) contractf(format string, args ...any) {
	h.fatal(Contract, ExitContract, format, args...)
}

func (h *Heap) internalf(format string, args ...any) {
	h.fatal(Internal, ExitInternal, format, args...)
}

// Fail reports a program-level failure and terminates.
func (h *Heap) Fail(format string, args ...any) {
	h.fatal(Failure, ExitFailure, format, args...)
}

// MatchFail reports that v matched no pattern at the given source location
// and terminates.
func (h *Heap) MatchFail(v Value, file string, line, col int) {
	text := h.opts.Formatter.Format(h, v)
	h.fatal(MatchFailure, ExitFailure, "match failure at %s:%d:%d, value '%s'", file, line, col, text)
}
