package typeadapt

import "bytes"

// CompareBytesKey builds a KeyObjectAdapter and ObjectAdapter out of
// nothing but a BinaryKeyAdapter, the same convenience the original ships
// in C-kern/ds/typeadapt/keycomparator.c: given only "how do I get the
// binary key out of an object", derive "how do I compare a key against an
// object" and "how do I compare two objects" via memcmp (here,
// bytes.Compare).
func CompareBytesKey[P any](keys BinaryKeyAdapter[P]) BytesKeyAdapter[P] {
	return BytesKeyAdapter[P]{keys}
}

// BytesKeyAdapter is the adapter CompareBytesKey returns. It implements
// both KeyObjectAdapter[[]byte, P] and ObjectAdapter[P].
type BytesKeyAdapter[P any] struct {
	Keys BinaryKeyAdapter[P]
}

func (a BytesKeyAdapter[P]) CompareKeyObj(k []byte, o P) int {
	return bytes.Compare(k, a.Keys.GetBinaryKey(o))
}

func (a BytesKeyAdapter[P]) CompareObj(x, y P) int {
	return bytes.Compare(a.Keys.GetBinaryKey(x), a.Keys.GetBinaryKey(y))
}

func (a BytesKeyAdapter[P]) GetBinaryKey(o P) []byte {
	return a.Keys.GetBinaryKey(o)
}
