// Package arena provides the byte-granular allocator spec.md §6.1 asks the
// core to consume: Alloc(n) -> bytes | OOM, and Free(bytes).
//
// Unlike the original teacher package this is not a GC-traceable,
// reflect-backed bump allocator: Go objects stored in containers are kept
// alive by ordinary typed pointers, so there is nothing for a raw-memory
// arena to protect against collection. What remains of the concern is the
// bookkeeping structures a container grows on its own — an extendible hash
// directory, a patricia/suffix-tree iterator stack — which is what Arena and
// Recycled exist to serve. See DESIGN.md for why the reflect/finalizer
// machinery was dropped.
package arena

import (
	"errors"

	"github.com/ckern-go/ckern/internal/debug"
)

// ErrOutOfMemory is returned by an Allocator when it cannot satisfy a
// request. The stdlib-backed allocators in this package never return it
// (Go's allocator panics instead of failing), but a caller-supplied
// Allocator backed by a fixed-size pool may.
var ErrOutOfMemory = errors.New("ckern/arena: out of memory")

// Allocator is the external interface spec.md §6.1 describes.
type Allocator interface {
	// Alloc returns a slice of exactly n zeroed bytes, or ErrOutOfMemory.
	Alloc(n int) ([]byte, error)
	// Free returns a previously allocated slice to the allocator. Passing a
	// slice not obtained from Alloc, or passing it twice, is undefined.
	Free(b []byte)
}

// Default is the package-level Allocator used by containers that are not
// given one explicitly. It delegates directly to the Go runtime and never
// reports out-of-memory.
var Default Allocator = stdlib{}

type stdlib struct{}

func (stdlib) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (stdlib) Free([]byte)                 {}

const minChunk = 4096

// Arena is a bump-pointer allocator: it hands out slices carved from
// successively larger chunks and never reclaims individual allocations.
// Reset reclaims everything at once.
type Arena struct {
	chunk []byte
	used  int
}

var _ Allocator = (*Arena)(nil)

// Alloc returns n zeroed bytes from the arena's current chunk, growing it
// first if necessary.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("ckern/arena: negative size")
	}
	if n == 0 {
		return nil, nil
	}

	if a.used+n > len(a.chunk) {
		size := max(minChunk, len(a.chunk)*2, n)
		a.chunk = make([]byte, size)
		a.used = 0
		debug.Log(nil, "arena.grow", "size=%d", size)
	}

	b := a.chunk[a.used : a.used+n : a.used+n]
	a.used += n

	debug.Log(nil, "arena.alloc", "n=%d used=%d/%d", n, a.used, len(a.chunk))

	return b, nil
}

// Free is a no-op: an Arena only reclaims memory on Reset.
func (a *Arena) Free([]byte) {}

// Reset discards the arena's current chunk. Any slice previously returned
// by Alloc must not be used after Reset.
func (a *Arena) Reset() {
	a.chunk = nil
	a.used = 0
}
