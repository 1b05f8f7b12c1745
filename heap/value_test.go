package heap

import "testing"

func TestIntRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40), MaxInt, MinInt}

	for _, n := range tests {
		v := FromInt(n)
		if !v.IsUnboxed() {
			t.Errorf("FromInt(%d).IsUnboxed() = false, want true", n)
			continue
		}
		if v.IsBoxed() {
			t.Errorf("FromInt(%d).IsBoxed() = true, want false", n)
		}
		if got := v.Int(); got != n {
			t.Errorf("FromInt(%d).Int() = %d, want %d", n, got, n)
		}
	}
}

func TestEncodedRoundTrip(t *testing.T) {
	tests := []Value{1, 3, 0xff, 0x7fffffffffffffff, 0xffffffffffffffff, 0x8000000000000001}

	for _, x := range tests {
		if got := FromInt(x.Int()); got != x {
			t.Errorf("FromInt(%#x.Int()) = %#x, want %#x", uint64(x), uint64(got), uint64(x))
		}
	}
}

func TestTryFromInt(t *testing.T) {
	tests := []struct {
		n  int64
		ok bool
	}{
		{0, true},
		{MaxInt, true},
		{MinInt, true},
		{MaxInt + 1, false},
		{MinInt - 1, false},
	}

	for _, tt := range tests {
		v, ok := TryFromInt(tt.n)
		if ok != tt.ok {
			t.Errorf("TryFromInt(%d) ok = %v, want %v", tt.n, ok, tt.ok)
		}
		if ok && v.Int() != tt.n {
			t.Errorf("TryFromInt(%d) = %d", tt.n, v.Int())
		}
	}
}

func TestBoxedValues(t *testing.T) {
	for _, addr := range []uint64{0, 8, 0x1000000000, 0x1000000008} {
		v := Value(addr)
		if !v.IsBoxed() {
			t.Errorf("Value(%#x).IsBoxed() = false, want true", addr)
		}
		if v.Addr() != addr {
			t.Errorf("Value(%#x).Addr() = %#x", addr, v.Addr())
		}
	}
}

func TestHeaderKindsAreOdd(t *testing.T) {
	for _, k := range []Kind{KindString, KindArray, KindVariant, KindClosure} {
		if k&1 != 1 {
			t.Errorf("%s code %#x is even", k, uint8(k))
		}
		w := packHeader(k, 12345)
		if isForwarded(w) {
			t.Errorf("header for %s looks forwarded", k)
		}
		gk, n := unpackHeader(w)
		if gk != k || n != 12345 {
			t.Errorf("unpackHeader(packHeader(%s, 12345)) = %s, %d", k, gk, n)
		}
	}
}

func TestPackCtor(t *testing.T) {
	for _, id := range []int64{0, 1, -1, 1 << 59, MaxInt, MinInt} {
		w := packCtor(id)
		if w&1 != 0 {
			t.Errorf("packCtor(%d) has low bit set", id)
		}
		if got := unpackCtor(w); got != id {
			t.Errorf("unpackCtor(packCtor(%d)) = %d", id, got)
		}
	}
}
