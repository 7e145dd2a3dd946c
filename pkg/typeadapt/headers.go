// Package typeadapt is the type-adaptation layer spec.md §3.4/§4.6
// describes: the node headers a stored object embeds, and the capability
// interfaces a caller-supplied adapter implements so that a container can
// compare, hash, extract keys from, and free objects of a type it never
// needs to know concretely.
//
// In the original C, a container reaches an object's embedded node header
// through a byte offset computed at adapter-construction time. Go has no
// need for that: an object type instead implements a small interface that
// hands back a pointer to its embedded header directly (spec.md §9's own
// design note — "in Go, via an interface plus a pointer to the embedded
// struct"). Every header type below is meant to be embedded by value in a
// caller's struct, with one accessor method returning its address.
package typeadapt

// ListHeader is the single "next" pointer spec.md §3.1 describes for the
// circular singly-linked list. P is the pointer-to-object type that embeds
// this header (e.g. *MyElement).
type ListHeader[P any] struct {
	Next P
}

// Color is the red-black color of an LRP node. Spec.md §9 notes that a
// language without pointer tagging should store the color as a plain
// boolean rather than packing it into the parent pointer's low bit; Color
// is that boolean, spelled out for readability at call sites.
type Color bool

const (
	Red   Color = true
	Black Color = false
)

// RBHeader is the left/right/parent header spec.md §3.1 calls the "LRP
// node", used by the red-black tree and, through it, by every extendible
// hash bucket.
type RBHeader[P any] struct {
	Left, Right, Parent P
	Color               Color
}

// PatriciaHeader is the bit_offset/left/right header spec.md §3.1
// describes for the patricia trie.
type PatriciaHeader[P any] struct {
	BitOffset uint
	Left, Right P
}

// ListNode is implemented by any object type that embeds a ListHeader and
// participates in a list.List[P].
type ListNode[P any] interface {
	ListHeader() *ListHeader[P]
}

// RBNode is implemented by any object type that embeds an RBHeader and
// participates in an rbtree.Tree[K, P] (directly, or as an exthash bucket
// element).
type RBNode[P any] interface {
	RBHeader() *RBHeader[P]
}

// PatriciaNode is implemented by any object type that embeds a
// PatriciaHeader and participates in a patricia.Trie[P].
type PatriciaNode[P any] interface {
	PatriciaHeader() *PatriciaHeader[P]
}
