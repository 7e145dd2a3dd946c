package arena

import "github.com/ckern-go/ckern/internal/debug"

// Recycled is an Arena that also keeps a per-size-class free list of
// released blocks, so that a sequence of Alloc/Free/Alloc of similarly
// sized requests (the common case for a DFS stack or a directory that
// grows and occasionally shrinks back) does not keep growing the
// underlying chunk.
//
// Unlike the teacher's version, free blocks are ordinary Go slices kept in
// a slice-of-slices per size class rather than threaded through the first
// machine word of the block via unsafe casts — there is no GC-unsafety to
// buy back by doing so once the blocks are plain []byte values.
type Recycled struct {
	Arena

	free [][][]byte
}

var _ Allocator = (*Recycled)(nil)

// Alloc returns size bytes, preferring a recycled block from the matching
// size class before falling back to the embedded Arena.
func (a *Recycled) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return a.Arena.Alloc(size)
	}

	class := sizeClassIndex(SuggestSize(size))
	if class < len(a.free) && len(a.free[class]) > 0 {
		n := len(a.free[class])
		b := a.free[class][n-1]
		a.free[class] = a.free[class][:n-1]
		clear(b)
		debug.Log(nil, "arena.recycle.reuse", "class=%d size=%d", class, size)
		return b[:size], nil
	}

	rounded := SuggestSize(size)
	b, err := a.Arena.Alloc(rounded)
	if err != nil {
		return nil, err
	}
	return b[:size], nil
}

// Free returns b to the free list for its size class, rounded up to the
// nearest power of two that Alloc would have used to satisfy len(b).
func (a *Recycled) Free(b []byte) {
	if len(b) == 0 {
		return
	}

	class := sizeClassIndex(SuggestSize(len(b)))
	for class >= len(a.free) {
		a.free = append(a.free, nil)
	}

	full := b[:cap(b)]
	a.free[class] = append(a.free[class], full)
}

// Reset clears all recycled free lists and the embedded Arena.
func (a *Recycled) Reset() {
	a.free = nil
	a.Arena.Reset()
}
