// Package rbtree implements the red-black tree of spec.md §4.1: an
// ordered set keyed via a type-adapter, supporting insert/find/remove and
// bidirectional iteration in O(log n).
package rbtree

import (
	"fmt"

	"github.com/ckern-go/ckern/internal/debug"
	"github.com/ckern-go/ckern/internal/singlethread"
	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

// Node is the constraint an element's pointer type must satisfy to be
// stored in a Tree: comparable (so the tree can test a node against the
// zero value standing in for "no node") and an embedder of
// typeadapt.RBHeader.
type Node[P any] interface {
	comparable
	typeadapt.RBNode[P]
}

// Adapter is the capability a Tree's type-adapter must provide: an
// object-object comparator (to preserve R5 while rebalancing) and a
// key-object comparator (to drive Find/Remove from a bare key). Both are
// "Required by red-black tree" per spec.md §3.4.
type Adapter[K, P any] interface {
	typeadapt.ObjectAdapter[P]
	typeadapt.KeyObjectAdapter[K, P]
}

// Tree is the container of spec.md §3.2: { root, adapter }.
type Tree[K any, P Node[P]] struct {
	root    P
	adapter Adapter[K, P]
	guard   singlethread.Guard
}

// New returns an empty tree that uses adapter to compare keys and
// objects.
func New[K any, P Node[P]](adapter Adapter[K, P]) *Tree[K, P] {
	return &Tree[K, P]{adapter: adapter}
}

// FromRoot wraps an already-built root pointer in a Tree, mirroring the
// original's redblacktree_INIT: it trusts root (including the zero value,
// meaning empty) to already satisfy the red-black invariants under
// adapter rather than rebuilding or checking it. exthash uses this to
// treat one of its directory slots as a tree for the duration of a single
// operation.
func FromRoot[K any, P Node[P]](root P, adapter Adapter[K, P]) *Tree[K, P] {
	return &Tree[K, P]{root: root, adapter: adapter}
}

// DetachRoot returns the tree's current root pointer and resets the Tree
// to empty, mirroring getinistate_redblacktree. exthash uses this to pull
// the root back out of a FromRoot-wrapped Tree into its directory slot
// once the operation is done.
func (t *Tree[K, P]) DetachRoot() P {
	root := t.root
	var zero P
	t.root = zero
	return root
}

func rb[P Node[P]](n P) *typeadapt.RBHeader[P] { return n.RBHeader() }

func isNil[P Node[P]](n P) bool {
	var zero P
	return n == zero
}

func colorOf[P Node[P]](n P) typeadapt.Color {
	if isNil(n) {
		return typeadapt.Black
	}
	return rb(n).Color
}

// Root returns the tree's root node, or the zero value and false if
// empty. Exposed for diagnostics and for exthash's bucket-sharing logic,
// which needs to walk a bucket's nodes directly.
func (t *Tree[K, P]) Root() (P, bool) {
	if isNil(t.root) {
		var zero P
		return zero, false
	}
	return t.root, true
}

// IsEmpty reports whether the tree has no elements.
func (t *Tree[K, P]) IsEmpty() bool { return isNil(t.root) }

func (t *Tree[K, P]) rotateLeft(n P) {
	r := rb(n).Right
	rb(n).Right = rb(r).Left
	if !isNil(rb(r).Left) {
		rb(rb(r).Left).Parent = n
	}
	rb(r).Parent = rb(n).Parent
	switch {
	case isNil(rb(n).Parent):
		t.root = r
	case rb(rb(n).Parent).Left == n:
		rb(rb(n).Parent).Left = r
	default:
		rb(rb(n).Parent).Right = r
	}
	rb(r).Left = n
	rb(n).Parent = r
}

func (t *Tree[K, P]) rotateRight(n P) {
	l := rb(n).Left
	rb(n).Left = rb(l).Right
	if !isNil(rb(l).Right) {
		rb(rb(l).Right).Parent = n
	}
	rb(l).Parent = rb(n).Parent
	switch {
	case isNil(rb(n).Parent):
		t.root = l
	case rb(rb(n).Parent).Left == n:
		rb(rb(n).Parent).Left = l
	default:
		rb(rb(n).Parent).Right = l
	}
	rb(l).Right = n
	rb(n).Parent = l
}

// Find returns the node whose key compares equal to key, or the zero
// value and false.
func (t *Tree[K, P]) Find(key K) (P, bool) {
	cur := t.root
	for !isNil(cur) {
		c := t.adapter.CompareKeyObj(key, cur)
		switch {
		case c < 0:
			cur = rb(cur).Left
		case c > 0:
			cur = rb(cur).Right
		default:
			return cur, true
		}
	}
	var zero P
	return zero, false
}

// Insert attaches n to the tree, keyed by whatever the adapter's
// CompareObj extracts from it. It returns ckernerr.ErrAlreadyExists,
// leaving the tree unchanged, if a node with an equal key is already
// present. Inserting a node that is already linked into this or another
// container is undefined, per spec.md §3.3.
func (t *Tree[K, P]) Insert(n P) error {
	t.guard.Enter("rbtree.Tree")
	var zero P
	rb(n).Left, rb(n).Right, rb(n).Parent = zero, zero, zero
	rb(n).Color = typeadapt.Red

	if isNil(t.root) {
		rb(n).Color = typeadapt.Black
		t.root = n
		debug.Log(nil, "rbtree.insert", "n=%v (root)", n)
		return nil
	}

	cur := t.root
	var parent P
	goLeft := false
	for !isNil(cur) {
		parent = cur
		c := t.adapter.CompareObj(n, cur)
		switch {
		case c < 0:
			goLeft = true
			cur = rb(cur).Left
		case c > 0:
			goLeft = false
			cur = rb(cur).Right
		default:
			return fmt.Errorf("rbtree: insert: %w", ckernerr.ErrAlreadyExists)
		}
	}

	rb(n).Parent = parent
	if goLeft {
		rb(parent).Left = n
	} else {
		rb(parent).Right = n
	}

	t.insertFixup(n)
	debug.Log(nil, "rbtree.insert", "n=%v parent=%v", n, parent)

	return nil
}

func (t *Tree[K, P]) insertFixup(z P) {
	for !isNil(rb(z).Parent) && colorOf(rb(z).Parent) == typeadapt.Red {
		parent := rb(z).Parent
		grand := rb(parent).Parent

		if parent == rb(grand).Left {
			uncle := rb(grand).Right
			if colorOf(uncle) == typeadapt.Red {
				rb(parent).Color = typeadapt.Black
				rb(uncle).Color = typeadapt.Black
				rb(grand).Color = typeadapt.Red
				z = grand
				continue
			}
			if z == rb(parent).Right {
				z = parent
				t.rotateLeft(z)
			}
			parent = rb(z).Parent
			grand = rb(parent).Parent
			rb(parent).Color = typeadapt.Black
			rb(grand).Color = typeadapt.Red
			t.rotateRight(grand)
		} else {
			uncle := rb(grand).Left
			if colorOf(uncle) == typeadapt.Red {
				rb(parent).Color = typeadapt.Black
				rb(uncle).Color = typeadapt.Black
				rb(grand).Color = typeadapt.Red
				z = grand
				continue
			}
			if z == rb(parent).Left {
				z = parent
				t.rotateRight(z)
			}
			parent = rb(z).Parent
			grand = rb(parent).Parent
			rb(parent).Color = typeadapt.Black
			rb(grand).Color = typeadapt.Red
			t.rotateLeft(grand)
		}
	}
	rb(t.root).Color = typeadapt.Black
}

func (t *Tree[K, P]) minimum(n P) P {
	for !isNil(rb(n).Left) {
		n = rb(n).Left
	}
	return n
}

func (t *Tree[K, P]) maximum(n P) P {
	for !isNil(rb(n).Right) {
		n = rb(n).Right
	}
	return n
}

func (t *Tree[K, P]) transplant(u, v P) {
	up := rb(u).Parent
	switch {
	case isNil(up):
		t.root = v
	case rb(up).Left == u:
		rb(up).Left = v
	default:
		rb(up).Right = v
	}
	if !isNil(v) {
		rb(v).Parent = up
	}
}

// Remove locates the node keyed by key, unlinks it and returns it. It
// returns ckernerr.ErrNotFound, leaving the tree unchanged, if no such
// node exists. The returned node has its headers zeroed, per spec.md
// §3.3, so it may be safely re-inserted.
func (t *Tree[K, P]) Remove(key K) (P, error) {
	var zero P

	z, ok := t.Find(key)
	if !ok {
		return zero, fmt.Errorf("rbtree: remove: %w", ckernerr.ErrNotFound)
	}

	return t.RemoveNode(z), nil
}

// RemoveNode unlinks a node already known to be in the tree and returns
// it with its headers zeroed, per spec.md §3.3, so it may be safely
// re-inserted. Unlike Remove it addresses the node directly rather than
// by key, the way the original's remove_redblacktree does — exthash uses
// this to move a node between buckets without re-deriving its key.
func (t *Tree[K, P]) RemoveNode(z P) P {
	t.guard.Enter("rbtree.Tree")
	var zero P

	removed := z
	y := z
	yOriginalColor := colorOf(y)
	var x, xParent P

	switch {
	case isNil(rb(z).Left):
		x = rb(z).Right
		xParent = rb(z).Parent
		t.transplant(z, rb(z).Right)
	case isNil(rb(z).Right):
		x = rb(z).Left
		xParent = rb(z).Parent
		t.transplant(z, rb(z).Left)
	default:
		y = t.minimum(rb(z).Right)
		yOriginalColor = colorOf(y)
		x = rb(y).Right

		if rb(y).Parent == z {
			xParent = y
		} else {
			xParent = rb(y).Parent
			t.transplant(y, rb(y).Right)
			rb(y).Right = rb(z).Right
			rb(rb(y).Right).Parent = y
		}

		t.transplant(z, y)
		rb(y).Left = rb(z).Left
		rb(rb(y).Left).Parent = y
		rb(y).Color = rb(z).Color
	}

	if yOriginalColor == typeadapt.Black {
		t.deleteFixup(x, xParent)
	}

	rb(removed).Left, rb(removed).Right, rb(removed).Parent = zero, zero, zero
	rb(removed).Color = typeadapt.Black

	debug.Log(nil, "rbtree.remove", "n=%v", removed)

	return removed
}

func (t *Tree[K, P]) deleteFixup(x, xParent P) {
	var zero P

	for x != t.root && colorOf(x) == typeadapt.Black {
		if isNil(xParent) {
			break
		}

		if x == rb(xParent).Left {
			w := rb(xParent).Right
			if colorOf(w) == typeadapt.Red {
				rb(w).Color = typeadapt.Black
				rb(xParent).Color = typeadapt.Red
				t.rotateLeft(xParent)
				w = rb(xParent).Right
			}
			if colorOf(rb(w).Left) == typeadapt.Black && colorOf(rb(w).Right) == typeadapt.Black {
				rb(w).Color = typeadapt.Red
				x = xParent
				xParent = rb(x).Parent
			} else {
				if colorOf(rb(w).Right) == typeadapt.Black {
					rb(rb(w).Left).Color = typeadapt.Black
					rb(w).Color = typeadapt.Red
					t.rotateRight(w)
					w = rb(xParent).Right
				}
				rb(w).Color = rb(xParent).Color
				rb(xParent).Color = typeadapt.Black
				rb(rb(w).Right).Color = typeadapt.Black
				t.rotateLeft(xParent)
				x = t.root
				xParent = zero
			}
		} else {
			w := rb(xParent).Left
			if colorOf(w) == typeadapt.Red {
				rb(w).Color = typeadapt.Black
				rb(xParent).Color = typeadapt.Red
				t.rotateRight(xParent)
				w = rb(xParent).Left
			}
			if colorOf(rb(w).Right) == typeadapt.Black && colorOf(rb(w).Left) == typeadapt.Black {
				rb(w).Color = typeadapt.Red
				x = xParent
				xParent = rb(x).Parent
			} else {
				if colorOf(rb(w).Left) == typeadapt.Black {
					rb(rb(w).Right).Color = typeadapt.Black
					rb(w).Color = typeadapt.Red
					t.rotateLeft(w)
					w = rb(xParent).Left
				}
				rb(w).Color = rb(xParent).Color
				rb(xParent).Color = typeadapt.Black
				rb(rb(w).Left).Color = typeadapt.Black
				t.rotateRight(xParent)
				x = t.root
				xParent = zero
			}
		}
	}

	if !isNil(x) {
		rb(x).Color = typeadapt.Black
	}
}

// RemoveAll empties the tree. If adapter implements
// typeadapt.LifetimeAdapter[P], Delete is invoked for every removed node;
// the tree is fully cleared even if a Delete call fails, and the first
// error encountered is returned.
func (t *Tree[K, P]) RemoveAll() error {
	t.guard.Enter("rbtree.Tree")
	var firstErr error

	t.postorder(t.root, func(n P) {
		if err := typeadapt.Lifetime(t.adapter, n); err != nil && firstErr == nil {
			firstErr = err
		}
	})

	var zero P
	t.root = zero

	return firstErr
}

func (t *Tree[K, P]) postorder(n P, visit func(P)) {
	if isNil(n) {
		return
	}
	t.postorder(rb(n).Left, visit)
	t.postorder(rb(n).Right, visit)
	visit(n)
}

// IterateFirst returns the minimum element, or ok=false if the tree is
// empty.
func (t *Tree[K, P]) IterateFirst() (n P, ok bool) {
	if isNil(t.root) {
		return n, false
	}
	return t.minimum(t.root), true
}

// IterateLast returns the maximum element, or ok=false if the tree is
// empty.
func (t *Tree[K, P]) IterateLast() (n P, ok bool) {
	if isNil(t.root) {
		return n, false
	}
	return t.maximum(t.root), true
}

// IterateNext returns the in-order successor of n. Removing n itself
// before calling IterateNext is permitted, per spec.md §4.1, as long as
// the caller obtained the successor (or cached it) before the removal;
// IterateNext does not tolerate being called on a node that has already
// been unlinked.
func (t *Tree[K, P]) IterateNext(n P) (next P, ok bool) {
	if !isNil(rb(n).Right) {
		return t.minimum(rb(n).Right), true
	}
	cur := n
	p := rb(cur).Parent
	for !isNil(p) && cur == rb(p).Right {
		cur = p
		p = rb(p).Parent
	}
	if isNil(p) {
		return next, false
	}
	return p, true
}

// IteratePrev returns the in-order predecessor of n.
func (t *Tree[K, P]) IteratePrev(n P) (prev P, ok bool) {
	if !isNil(rb(n).Left) {
		return t.maximum(rb(n).Left), true
	}
	cur := n
	p := rb(cur).Parent
	for !isNil(p) && cur == rb(p).Left {
		cur = p
		p = rb(p).Parent
	}
	if isNil(p) {
		return prev, false
	}
	return p, true
}

// Iterate visits every element in ascending order, stopping early if
// yield returns false. Removing the currently visited element is safe:
// the successor is resolved before yield is called.
func (t *Tree[K, P]) Iterate(yield func(P) bool) {
	n, ok := t.IterateFirst()
	for ok {
		next, nextOK := t.IterateNext(n)
		if !yield(n) {
			return
		}
		n, ok = next, nextOK
	}
}

// IterateReverse visits every element in descending order.
func (t *Tree[K, P]) IterateReverse(yield func(P) bool) {
	n, ok := t.IterateLast()
	for ok {
		prev, prevOK := t.IteratePrev(n)
		if !yield(n) {
			return
		}
		n, ok = prev, prevOK
	}
}

// CheckInvariant verifies R1-R5 of spec.md §3.2: every node is red or
// black (trivially true of the Color type), the root is black, a red
// node's children are black, every root-to-leaf path has the same
// black-height, and parent pointers plus in-order key ordering are
// consistent with the adapter's object comparator. It is intended for
// tests, per spec.md §4.1.
func (t *Tree[K, P]) CheckInvariant() error {
	if isNil(t.root) {
		return nil
	}
	if rb(t.root).Color != typeadapt.Black {
		return fmt.Errorf("rbtree: root is not black: %w", ckernerr.ErrInvariantViolation)
	}
	var zero P
	if !isNil(rb(t.root).Parent) {
		return fmt.Errorf("rbtree: root has non-nil parent: %w", ckernerr.ErrInvariantViolation)
	}
	_, err := t.checkNode(t.root, zero)
	return err
}

func (t *Tree[K, P]) checkNode(n, parent P) (blackHeight int, err error) {
	if isNil(n) {
		return 0, nil
	}

	if rb(n).Parent != parent {
		return 0, fmt.Errorf("rbtree: node %v has wrong parent pointer: %w", n, ckernerr.ErrInvariantViolation)
	}

	if rb(n).Color == typeadapt.Red {
		if colorOf(rb(n).Left) == typeadapt.Red || colorOf(rb(n).Right) == typeadapt.Red {
			return 0, fmt.Errorf("rbtree: red node %v has a red child: %w", n, ckernerr.ErrInvariantViolation)
		}
	}

	if !isNil(rb(n).Left) && t.adapter.CompareObj(rb(n).Left, n) >= 0 {
		return 0, fmt.Errorf("rbtree: left child of %v is not strictly smaller: %w", n, ckernerr.ErrInvariantViolation)
	}
	if !isNil(rb(n).Right) && t.adapter.CompareObj(rb(n).Right, n) <= 0 {
		return 0, fmt.Errorf("rbtree: right child of %v is not strictly greater: %w", n, ckernerr.ErrInvariantViolation)
	}

	lh, err := t.checkNode(rb(n).Left, n)
	if err != nil {
		return 0, err
	}
	rh, err := t.checkNode(rb(n).Right, n)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("rbtree: unequal black-height at %v (%d vs %d): %w", n, lh, rh, ckernerr.ErrInvariantViolation)
	}

	height := lh
	if rb(n).Color == typeadapt.Black {
		height++
	}
	return height, nil
}
