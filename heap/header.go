package heap

import "fmt"

// Kind identifies the layout of a heap object. Codes are odd so a header
// word can never be mistaken for a word-aligned address.
type Kind uint8

const (
	KindString  Kind = 0x1
	KindArray   Kind = 0x3
	KindVariant Kind = 0x5
	KindClosure Kind = 0x7
)

const (
	kindMask    uint64 = 0x7
	lengthShift        = 3
)

// MaxLength is the largest element or byte count a header can carry.
const MaxLength = 1<<(64-lengthShift) - 1

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindVariant:
		return "variant"
	case KindClosure:
		return "closure"
	}
	return fmt.Sprintf("kind(%#x)", uint8(k))
}

func (k Kind) valid() bool {
	switch k {
	case KindString, KindArray, KindVariant, KindClosure:
		return true
	}
	return false
}

// header is the decoded form of an object's one or two header words.
// Variants carry the constructor word immediately before the kind+length
// word; for every other kind ctor is zero.
type header struct {
	kind   Kind
	length int
	ctor   int64
}

func packHeader(kind Kind, length int) uint64 {
	return uint64(kind) | uint64(length)<<lengthShift
}

func unpackHeader(w uint64) (Kind, int) {
	return Kind(w & kindMask), int(w >> lengthShift)
}

// packCtor stores a constructor identifier with its low bit clear. Kind
// headers are always odd, which lets a linear walk tell the two apart.
func packCtor(id int64) uint64 {
	return uint64(id) << 1
}

func unpackCtor(w uint64) int64 {
	return int64(w) >> 1
}

// isForwarded reports whether a kind+length header slot has been replaced
// by a relocated handle.
func isForwarded(w uint64) bool {
	return w&1 == 0
}

// prefixWords is the number of header words preceding the kind+length word.
func (h header) prefixWords() int {
	if h.kind == KindVariant {
		return 1
	}
	return 0
}

// payloadBytes is the size of the object's payload.
func (h header) payloadBytes() uint64 {
	if h.kind == KindString {
		return roundWords(uint64(h.length) + 1)
	}
	return uint64(h.length) * WordSize
}

// totalBytes is the size of the object including all header words.
func (h header) totalBytes() uint64 {
	return uint64(h.prefixWords()+1)*WordSize + h.payloadBytes()
}

// roundWords rounds n bytes up to a whole number of words.
func roundWords(n uint64) uint64 {
	return (n + WordSize - 1) &^ (WordSize - 1)
}
