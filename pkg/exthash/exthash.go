// Package exthash implements extendible hashing (spec.md §4.2): a
// directory of 2^level slots, each either empty, the root of a red-black
// tree bucket, or "shared" with the bucket at the next lower level. An
// insert that resolves through a shared slot unshares it (splits the
// shared content between the two indices that share it); an insert into
// an unshared bucket of 3 or more elements doubles the directory, and once
// the directory has reached its max size the bucket simply keeps
// growing — matching C-kern/ds/inmem/exthash.c exactly, including its
// choice to leave the triggering insert's own table index unchanged
// after doubling the directory.
package exthash

import (
	"fmt"
	"math/bits"

	"github.com/ckern-go/ckern/internal/debug"
	"github.com/ckern-go/ckern/internal/singlethread"
	"github.com/ckern-go/ckern/pkg/arena"
	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/rbtree"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

// Node is the constraint a hash table element's pointer type must
// satisfy: each bucket is a red-black tree, so elements need the same
// embedded header an rbtree.Node needs.
type Node[P any] interface {
	comparable
	typeadapt.RBNode[P]
}

// Adapter combines the capabilities exthash needs from its caller: the
// hashing of keys and objects, and the comparisons each bucket's
// red-black tree needs.
type Adapter[K any, P any] interface {
	typeadapt.HashAdapter[K, P]
	rbtree.Adapter[K, P]
}

type slotKind uint8

const (
	slotOwned slotKind = iota
	slotShared
)

type slot[P any] struct {
	kind slotKind
	root P
}

// bytesPerSlot estimates a directory slot's footprint for the purpose of
// routing growth through an arena.Allocator — a tag byte plus one
// pointer-sized root, rounded up for alignment. It need not be exact: it
// only has to make directory doubling a visible, OOM-observable
// allocator operation, per spec.md §4.2/§7.
const bytesPerSlot = 16

// Table is an extendible hash table over K-keyed P-typed elements.
type Table[K any, P Node[P]] struct {
	dir      []slot[P]
	level    uint
	maxLevel uint
	nrNodes  int
	adapter  Adapter[K, P]
	alloc    arena.Allocator
	guard    singlethread.Guard
}

func log2int(n int) uint {
	return uint(bits.Len(uint(n))) - 1
}

// New returns an empty table whose directory starts at initialSize slots
// (rounded down to a power of two) and may grow up to maxSize slots.
// alloc governs directory growth; a nil alloc defaults to
// arena.Default.
func New[K any, P Node[P]](adapter Adapter[K, P], initialSize, maxSize int, alloc arena.Allocator) (*Table[K, P], error) {
	if initialSize <= 0 || maxSize <= 0 || initialSize > maxSize {
		return nil, ckernerr.ErrInvalidArgument
	}
	if alloc == nil {
		alloc = arena.Default
	}

	level := log2int(initialSize)
	maxLevel := log2int(maxSize)

	t := &Table[K, P]{
		dir:      make([]slot[P], 1<<level),
		level:    level,
		maxLevel: maxLevel,
		adapter:  adapter,
		alloc:    alloc,
	}
	return t, nil
}

// Len returns the number of elements stored.
func (t *Table[K, P]) Len() int { return t.nrNodes }

// IsEmpty reports whether the table holds no elements.
func (t *Table[K, P]) IsEmpty() bool { return t.nrNodes == 0 }

func (t *Table[K, P]) tableIndex(hash uint64) int {
	mask := uint64(len(t.dir) - 1)
	return int(hash & mask)
}

// unsharedTableIndex resolves tabidx to the bucket that actually owns its
// content, following the shared chain down to lower levels by repeatedly
// clearing tabidx's highest set bit. sharedidx is the last shared index
// visited along that chain, the one directly above the owning bucket (0 if
// tabidx itself was not shared).
func (t *Table[K, P]) unsharedTableIndex(hash uint64) (tabidx, sharedidx int) {
	tabidx = t.tableIndex(hash)
	sharedidx = 0

	for t.dir[tabidx].kind == slotShared {
		sharedidx = tabidx
		tabidx ^= 1 << log2int(tabidx)
	}

	return tabidx, sharedidx
}

func (t *Table[K, P]) tree(tabidx int) *rbtree.Tree[K, P] {
	return rbtree.FromRoot[K, P](t.dir[tabidx].root, t.adapter)
}

func (t *Table[K, P]) storeTree(tabidx int, tr *rbtree.Tree[K, P]) {
	t.dir[tabidx] = slot[P]{kind: slotOwned, root: tr.DetachRoot()}
}

// Find looks up key, resolving through shared directory slots.
func (t *Table[K, P]) Find(key K) (P, bool) {
	tabidx, _ := t.unsharedTableIndex(t.adapter.HashKey(key))
	return t.tree(tabidx).Find(key)
}

// doubleTableSize doubles the directory, marking every new slot shared
// with its sibling at the current level. A no-op once level has reached
// maxLevel: buckets beyond that point simply keep growing, exactly as
// the original does. Growth is routed through t.alloc first so an
// exhausted allocator surfaces as ckernerr.ErrOutOfMemory before any
// directory state changes.
func (t *Table[K, P]) doubleTableSize() error {
	if t.level >= t.maxLevel {
		return nil
	}

	newLen := len(t.dir) * 2
	if _, err := t.alloc.Alloc(newLen * bytesPerSlot); err != nil {
		return fmt.Errorf("exthash: grow directory: %w", ckernerr.ErrOutOfMemory)
	}

	old := t.dir
	t.dir = make([]slot[P], newLen)
	copy(t.dir, old)
	for i := len(old); i < len(t.dir); i++ {
		t.dir[i] = slot[P]{kind: slotShared}
	}
	t.level++

	debug.Log(nil, "exthash.double", "level=%d size=%d", t.level, len(t.dir))
	return nil
}

// unshareBucket splits the content shared at tabidx between tabidx and
// the next higher index that shares it, distributing each node by the
// bit the two indices differ on.
func (t *Table[K, P]) unshareBucket(tabidx int) {
	var highbit int
	if tabidx != 0 {
		highbit = 2 << log2int(tabidx)
	} else {
		highbit = 1
	}

	var splitidx int
	for {
		splitidx = tabidx | highbit
		highbit <<= 1
		if t.dir[splitidx].kind == slotShared {
			break
		}
	}
	highbit >>= 1

	src := t.tree(tabidx)
	dst := rbtree.New[K, P](t.adapter)

	var moving []P
	src.Iterate(func(n P) bool {
		if t.adapter.HashObj(n)&uint64(highbit) != 0 {
			moving = append(moving, n)
		}
		return true
	})
	for _, n := range moving {
		src.RemoveNode(n)
		dst.Insert(n)
	}

	t.storeTree(tabidx, src)
	t.storeTree(splitidx, dst)

	debug.Log(nil, "exthash.unshare", "tabidx=%d splitidx=%d moved=%d", tabidx, splitidx, len(moving))
}

// hasAtLeastThree reports whether a bucket whose root is root holds 3 or
// more elements: a red-black tree root with both children present always
// has at least 2 descendants plus itself, matching the original's check
// of hashtable[tabidx]->left && hashtable[tabidx]->right.
func hasAtLeastThree[P Node[P]](root P) bool {
	var zero P
	if root == zero {
		return false
	}
	hdr := root.RBHeader()
	return hdr.Left != zero && hdr.Right != zero
}

// Insert adds new_node to the table, hashed via adapter.HashObj. It
// unshares the target bucket if needed, or doubles the directory once a
// bucket that is not shared grows to 3 or more elements, mirroring
// insert_exthash exactly: after doubling, the triggering insert still
// targets the same (now definitely unshared) table index it started
// with.
func (t *Table[K, P]) Insert(newNode P) error {
	t.guard.Enter("exthash.Table")
	hash := t.adapter.HashObj(newNode)
	tabidx, sharedidx := t.unsharedTableIndex(hash)

	switch {
	case sharedidx != 0:
		t.unshareBucket(tabidx)
		if t.dir[sharedidx].kind != slotShared {
			// sharedidx became unshared as a side effect of the split:
			// it was the higher-level bucket the new node's full hash
			// actually resolves to.
			tabidx = sharedidx
		}
	case hasAtLeastThree(t.dir[tabidx].root):
		if err := t.doubleTableSize(); err != nil {
			return err
		}
	}

	tr := t.tree(tabidx)
	if err := tr.Insert(newNode); err != nil {
		return err
	}
	t.storeTree(tabidx, tr)

	t.nrNodes++
	debug.Log(nil, "exthash.insert", "tabidx=%d nrNodes=%d", tabidx, t.nrNodes)

	return nil
}

// Remove locates the element keyed by key, hashed via adapter.HashKey,
// unlinks it from its bucket and returns it.
func (t *Table[K, P]) Remove(key K) (P, error) {
	t.guard.Enter("exthash.Table")
	tabidx, _ := t.unsharedTableIndex(t.adapter.HashKey(key))

	tr := t.tree(tabidx)
	removed, err := tr.Remove(key)
	if err != nil {
		var zero P
		return zero, err
	}
	t.storeTree(tabidx, tr)

	t.nrNodes--
	debug.Log(nil, "exthash.remove", "tabidx=%d nrNodes=%d", tabidx, t.nrNodes)

	return removed, nil
}

// RemoveAll empties every bucket, invoking Delete on every element if
// adapter implements typeadapt.LifetimeAdapter[P]. It clears every slot
// (owned or shared) and continues past a bucket's error, returning the
// first one encountered.
func (t *Table[K, P]) RemoveAll() error {
	t.guard.Enter("exthash.Table")
	var firstErr error

	for i := range t.dir {
		if t.dir[i].kind == slotOwned {
			tr := t.tree(i)
			if err := tr.RemoveAll(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		var zero P
		t.dir[i] = slot[P]{kind: slotOwned, root: zero}
	}

	t.nrNodes = 0

	return firstErr
}

// Iterate calls yield for every element in the table, bucket by bucket,
// skipping the duplicate pass a shared slot would otherwise cause.
func (t *Table[K, P]) Iterate(yield func(P) bool) {
	for i := range t.dir {
		if t.dir[i].kind != slotOwned {
			continue
		}
		tr := t.tree(i)
		stop := false
		tr.Iterate(func(n P) bool {
			if !yield(n) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// CheckInvariant verifies every owned bucket's red-black invariants and
// that every shared slot eventually resolves, by index, to an owned one.
func (t *Table[K, P]) CheckInvariant() error {
	for i := range t.dir {
		switch t.dir[i].kind {
		case slotOwned:
			tr := t.tree(i)
			if err := tr.CheckInvariant(); err != nil {
				return fmt.Errorf("exthash: bucket %d: %w", i, err)
			}
		case slotShared:
			idx := i
			for t.dir[idx].kind == slotShared {
				idx ^= 1 << log2int(idx)
			}
		}
	}
	return nil
}
