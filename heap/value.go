package heap

import "fmt"

// Value is a tagged machine word.
//
// Encoding scheme:
//   - Unboxed integer: (n << 1) | 1, low bit set
//   - Boxed reference: word-aligned byte address of an object's payload,
//     low bit clear
type Value uint64

// WordSize is the size of a heap word in bytes.
const WordSize = 8

// Inline integer range (63-bit signed).
const (
	MaxInt int64 = (1 << 62) - 1
	MinInt int64 = -(1 << 62)
)

// Unit is the conventional "no value" result, the inline integer zero.
const Unit = Value(1)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsBoxed returns true if v is a heap address.
func (v Value) IsBoxed() bool {
	return v&1 == 0
}

// IsUnboxed returns true if v is an inline integer.
func (v Value) IsUnboxed() bool {
	return v&1 == 1
}

// ---------------------------------------------------------------------------
// Integer operations
// ---------------------------------------------------------------------------

// FromInt encodes n as an inline integer. Bits above the 63-bit range are
// discarded; use TryFromInt to detect overflow.
func FromInt(n int64) Value {
	return Value(uint64(n)<<1 | 1)
}

// TryFromInt encodes n, returning false if it does not fit inline.
func TryFromInt(n int64) (Value, bool) {
	if n > MaxInt || n < MinInt {
		return 0, false
	}
	return FromInt(n), true
}

// Int decodes v with a sign-preserving shift. The result is meaningless for
// boxed values.
func (v Value) Int() int64 {
	return int64(v) >> 1
}

// Addr returns v as a byte address.
func (v Value) Addr() uint64 {
	return uint64(v)
}

// String renders v for debugging. It never dereferences the heap.
func (v Value) String() string {
	if v.IsUnboxed() {
		return fmt.Sprintf("%d", v.Int())
	}
	return fmt.Sprintf("@%#x", uint64(v))
}
