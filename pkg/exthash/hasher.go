package exthash

import (
	stdmaphash "hash/maphash"

	"github.com/dolthub/maphash"
)

// ComparableHasher adapts github.com/dolthub/maphash's generic Hasher
// into a typeadapt.HashAdapter for any comparable key type whose object
// type exposes the same key via keyOf. It is a ready-made hasher for
// tables keyed by ints, strings, and other comparable scalars; New does
// not fall back to it, the caller's adapter supplies the hashing.
type ComparableHasher[K comparable, P any] struct {
	hasher maphash.Hasher[K]
	keyOf  func(P) K
}

// NewComparableHasher builds a ComparableHasher. keyOf extracts the key
// a stored object was indexed under, so HashObj and HashKey agree.
func NewComparableHasher[K comparable, P any](keyOf func(P) K) *ComparableHasher[K, P] {
	return &ComparableHasher[K, P]{hasher: maphash.NewHasher[K](), keyOf: keyOf}
}

func (h *ComparableHasher[K, P]) HashKey(k K) uint64 { return h.hasher.Hash(k) }
func (h *ComparableHasher[K, P]) HashObj(o P) uint64 { return h.hasher.Hash(h.keyOf(o)) }

// BytesHasher hashes []byte keys with the standard library's maphash,
// the natural counterpart for patricia/suffix-tree-style binary keys
// that dolthub/maphash's comparable-only generic can't address.
type BytesHasher[P any] struct {
	seed  stdmaphash.Seed
	keyOf func(P) []byte
}

// NewBytesHasher builds a BytesHasher. keyOf extracts the binary key a
// stored object was indexed under.
func NewBytesHasher[P any](keyOf func(P) []byte) *BytesHasher[P] {
	return &BytesHasher[P]{seed: stdmaphash.MakeSeed(), keyOf: keyOf}
}

func (h *BytesHasher[P]) HashKey(k []byte) uint64 {
	return stdmaphash.Bytes(h.seed, k)
}

func (h *BytesHasher[P]) HashObj(o P) uint64 {
	return stdmaphash.Bytes(h.seed, h.keyOf(o))
}
