package heap

import "strings"

// ctorAlphabet maps 6-bit groups to constructor name characters.
const ctorAlphabet = "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789'"

// MaxCtorChars is the number of name characters a constructor id retains.
const MaxCtorChars = 10

// ConstructorID hashes a constructor name into an inline integer. Only the
// first MaxCtorChars characters are significant.
func (h *Heap) ConstructorID(name string) Value {
	id, ok := EncodeConstructor(name)
	if !ok {
		h.contractf("constructor name %q has characters outside %q", name, ctorAlphabet)
	}
	return FromInt(id)
}

// EncodeConstructor packs the first MaxCtorChars characters of name into
// 6-bit groups, most significant first. It returns false if name holds a
// character outside the alphabet.
func EncodeConstructor(name string) (int64, bool) {
	var id int64
	for i := 0; i < len(name) && i < MaxCtorChars; i++ {
		pos := strings.IndexByte(ctorAlphabet, name[i])
		if pos < 0 {
			return 0, false
		}
		id = id<<6 | int64(pos)
	}
	return id, true
}

// ConstructorName decodes a constructor identifier for diagnostics. Leading
// underscores do not survive the round trip.
func ConstructorName(id int64) string {
	var buf [MaxCtorChars + 1]byte
	i := len(buf)
	for u := uint64(id); u != 0 && i > 0; u >>= 6 {
		i--
		buf[i] = ctorAlphabet[u&0x3f]
	}
	return string(buf[i:])
}
