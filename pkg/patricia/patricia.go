// Package patricia implements the crit-bit trie of spec.md §4.3: a
// binary trie over variable-length byte keys where every node tests one
// bit, following C-kern/ds/inmem/patriciatrie.c's encoding of
// "back-edges" — a child whose bit_offset is not strictly greater than
// its parent's is not a descendant but the terminal key reached along
// that path, usually the node's own self-loop.
package patricia

import (
	"fmt"

	"github.com/ckern-go/ckern/internal/debug"
	"github.com/ckern-go/ckern/internal/singlethread"
	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

// Node is the constraint an element's pointer type must satisfy:
// comparable, and an embedder of typeadapt.PatriciaHeader.
type Node[P any] interface {
	comparable
	typeadapt.PatriciaNode[P]
}

// Adapter is the capability a Trie's type-adapter must provide: the
// binary key extractor every patricia operation consults.
type Adapter[P any] interface {
	typeadapt.BinaryKeyAdapter[P]
}

// Trie is the container of spec.md §3.2: { root, adapter }.
type Trie[P Node[P]] struct {
	root    P
	adapter Adapter[P]
	guard   singlethread.Guard
}

// New returns an empty trie that uses adapter to extract each stored
// object's binary key.
func New[P Node[P]](adapter Adapter[P]) *Trie[P] {
	return &Trie[P]{adapter: adapter}
}

func ph[P Node[P]](n P) *typeadapt.PatriciaHeader[P] { return n.PatriciaHeader() }

func isNil[P Node[P]](n P) bool {
	var zero P
	return n == zero
}

// IsEmpty reports whether the trie has no elements.
func (t *Trie[P]) IsEmpty() bool { return isNil(t.root) }

// getBit returns the bit of key at bitOffset, MSB-first, treating the
// byte immediately past key's end as a virtual 0xFF marker and every
// byte beyond that as 0, per spec.md §4.3.
func getBit(key []byte, bitOffset uint) int {
	byteOffset := bitOffset / 8
	switch {
	case int(byteOffset) < len(key):
		if key[byteOffset]&(0x80>>(bitOffset%8)) != 0 {
			return 1
		}
		return 0
	case int(byteOffset) == len(key):
		return 1
	default:
		return 0
	}
}

// firstDifferentBit returns the bit offset of the first bit that differs
// between key1 and key2 under the virtual-0xFF-marker convention. ok is
// false if the keys are identical.
func firstDifferentBit(key1, key2 []byte) (bitOffset uint, ok bool) {
	length := len(key1)
	if len(key2) < length {
		length = len(key2)
	}

	i := 0
	for i < length && key1[i] == key2[i] {
		i++
	}

	var b1, b2 byte
	var result uint

	switch {
	case i < length:
		b1, b2 = key1[i], key2[i]
		result = uint(8 * i)
	case len(key1) == len(key2):
		return 0, false
	case len(key1) < len(key2):
		b1, b2, result = scanVirtualMarker(key2[i:], i)
	default:
		b2, b1, result = scanVirtualMarker(key1[i:], i)
	}

	diff := b1 ^ b2
	var mask byte = 0x80
	for mask != 0 && diff&mask == 0 {
		result++
		mask >>= 1
	}
	return result, true
}

// scanVirtualMarker walks the extra tail (rest) of the longer key past
// where the shorter key ended at byte offset start, comparing it against
// the shorter key's virtual 0xFF marker followed by implicit zero
// padding. It returns the two differing bytes (shorter-key's implied
// byte, longer-key's real byte) and the bit offset at which they are
// found to differ.
func scanVirtualMarker(rest []byte, start int) (shortByte, longByte byte, bitOffset uint) {
	if rest[0] != 0xFF {
		return 0xFF, rest[0], uint(8 * start)
	}

	j := 1
	for j < len(rest) && rest[j] == 0 {
		j++
	}
	if j == len(rest) {
		return 0x00, 0xFF, uint(8 * (start + len(rest)))
	}
	return 0x00, rest[j], uint(8 * (start + j))
}

// descend follows the trie from the root to the candidate node for key:
// the node reached when a step would not increase the bit offset. It
// also returns that candidate's parent (equal to the candidate itself if
// the trie has only one node). ok is false for an empty trie.
func (t *Trie[P]) descend(key []byte) (parent, node P, ok bool) {
	if isNil(t.root) {
		return parent, node, false
	}

	node = t.root
	for {
		parent = node
		if getBit(key, ph(parent).BitOffset) != 0 {
			node = ph(parent).Right
		} else {
			node = ph(parent).Left
		}
		if ph(node).BitOffset <= ph(parent).BitOffset {
			break
		}
	}
	return parent, node, true
}

// Find looks up key, returning the stored object and true if present.
func (t *Trie[P]) Find(key []byte) (P, bool) {
	var zero P

	_, node, ok := t.descend(key)
	if !ok {
		return zero, false
	}
	if !keyEquals(t.adapter.GetBinaryKey(node), key) {
		return zero, false
	}
	return node, true
}

func keyEquals(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Insert adds newNode, keyed by adapter.GetBinaryKey(newNode). It
// returns ckernerr.ErrAlreadyExists, leaving the trie unchanged, if an
// object with the same key (or newNode itself) is already present.
func (t *Trie[P]) Insert(newNode P) error {
	t.guard.Enter("patricia.Trie")
	insertKey := t.adapter.GetBinaryKey(newNode)

	if isNil(t.root) {
		hdr := ph(newNode)
		hdr.BitOffset = 0
		hdr.Left, hdr.Right = newNode, newNode
		t.root = newNode
		debug.Log(nil, "patricia.insert", "n=%v (first)", newNode)
		return nil
	}

	parent, node, _ := t.descend(insertKey)
	if node == newNode {
		return fmt.Errorf("patricia: insert: %w", ckernerr.ErrAlreadyExists)
	}

	nodeKey := t.adapter.GetBinaryKey(node)
	newBitOffset, distinct := firstDifferentBit(nodeKey, insertKey)
	if !distinct {
		return fmt.Errorf("patricia: insert: %w", ckernerr.ErrAlreadyExists)
	}

	// Redescend if the split point lies above where the first descent
	// stopped, exactly as insert_patriciatrie does: the first descent
	// only tells us *a* candidate, not where newBitOffset belongs.
	if ph(parent).BitOffset > newBitOffset {
		node = t.root
		var zero P
		parent = zero
		for ph(node).BitOffset < newBitOffset {
			parent = node
			if getBit(insertKey, ph(node).BitOffset) != 0 {
				node = ph(node).Right
			} else {
				node = ph(node).Left
			}
		}
	}

	newHdr := ph(newNode)
	nodeHdr := ph(node)

	if nodeHdr.Left == node && nodeHdr.Right == node {
		// node is a self-loop leaf at the bottom of the trie: repaint it
		// into an interior node testing newBitOffset, and place newNode
		// as its new self-loop leaf on the branch newBitOffset selects.
		newHdr.BitOffset = 0
		newHdr.Left, newHdr.Right = newNode, newNode

		nodeHdr.BitOffset = newBitOffset
		if getBit(insertKey, newBitOffset) != 0 {
			nodeHdr.Right = newNode
		} else {
			nodeHdr.Left = newNode
		}
		debug.Log(nil, "patricia.insert", "n=%v split-leaf=%v offset=%d", newNode, node, newBitOffset)
		return nil
	}

	newHdr.BitOffset = newBitOffset
	if getBit(insertKey, newBitOffset) != 0 {
		newHdr.Right = newNode
		newHdr.Left = node
	} else {
		newHdr.Right = node
		newHdr.Left = newNode
	}

	var zero P
	if parent != zero {
		if getBit(insertKey, ph(parent).BitOffset) != 0 {
			ph(parent).Right = newNode
		} else {
			ph(parent).Left = newNode
		}
	} else {
		t.root = newNode
	}

	debug.Log(nil, "patricia.insert", "n=%v above=%v offset=%d", newNode, node, newBitOffset)
	return nil
}

// Remove locates the object keyed by key, unlinks it and returns it. It
// returns ckernerr.ErrNotFound, leaving the trie unchanged, if no such
// key exists.
func (t *Trie[P]) Remove(key []byte) (P, error) {
	t.guard.Enter("patricia.Trie")
	var zero P

	parent, node, ok := t.descend(key)
	if !ok || !keyEquals(t.adapter.GetBinaryKey(node), key) {
		return zero, fmt.Errorf("patricia: remove: %w", ckernerr.ErrNotFound)
	}

	delNode := node
	var replacedNode, replacedWith P
	hasReplacedNode := false

	nodeHdr := ph(node)
	parentHdr := ph(parent)

	switch {
	case nodeHdr.Left == node && nodeHdr.Right == node:
		// Self-loop leaf at the bottom of the trie.
		switch {
		case node == parent:
			t.root = zero
		case parentHdr.Left == parent || parentHdr.Right == parent:
			// parent becomes the new leaf.
			parentHdr.BitOffset = 0
			parentHdr.Left, parentHdr.Right = parent, parent
		default:
			replacedNode = parent
			if parentHdr.Left == node {
				replacedWith = parentHdr.Right
			} else {
				replacedWith = parentHdr.Left
			}
			hasReplacedNode = true
			parentHdr.BitOffset = 0
			parentHdr.Left, parentHdr.Right = parent, parent
		}

	case nodeHdr.Left == node || nodeHdr.Right == node:
		// node has exactly one real child (the other side self-loops);
		// node itself is removable.
		replacedNode = node
		if nodeHdr.Left == node {
			replacedWith = nodeHdr.Right
		} else {
			replacedWith = nodeHdr.Left
		}
		hasReplacedNode = true

	default:
		// node has two real children: splice in its in-path predecessor
		// (the node whose back-edge targets it) in its place.
		replacedNode = node
		replacedWith = parent
		hasReplacedNode = true

		// Continue descending past node itself, along node's own key,
		// into node's two real subtrees: the back-edge that records
		// node's own key loops back up to exactly replacedWith (parent).
		search := node
		var searchParent P
		for search != replacedWith {
			searchParent = search
			if getBit(key, ph(search).BitOffset) != 0 {
				search = ph(search).Right
			} else {
				search = ph(search).Left
			}
		}

		other := ph(search).Left
		if other == replacedNode {
			other = ph(search).Right
		}
		if ph(searchParent).Left == search {
			ph(searchParent).Left = other
		} else {
			ph(searchParent).Right = other
		}

		ph(search).BitOffset = nodeHdr.BitOffset
		ph(search).Left = nodeHdr.Left
		ph(search).Right = nodeHdr.Right
	}

	if hasReplacedNode {
		if t.root == replacedNode {
			t.root = replacedWith
		} else {
			search := t.root
			var searchParent P
			for search != replacedNode {
				searchParent = search
				if getBit(key, ph(search).BitOffset) != 0 {
					search = ph(search).Right
				} else {
					search = ph(search).Left
				}
			}
			if ph(searchParent).Left == replacedNode {
				ph(searchParent).Left = replacedWith
			} else {
				ph(searchParent).Right = replacedWith
			}
		}
	}

	delHdr := ph(delNode)
	delHdr.BitOffset = 0
	delHdr.Left, delHdr.Right = zero, zero

	debug.Log(nil, "patricia.remove", "n=%v", delNode)

	return delNode, nil
}

// RemoveAll empties the trie. If adapter implements
// typeadapt.LifetimeAdapter[P], Delete is invoked for every removed
// element; the trie is fully cleared even if a Delete call fails, and
// the first error encountered is returned.
func (t *Trie[P]) RemoveAll() error {
	t.guard.Enter("patricia.Trie")
	var firstErr error

	t.visitSubtree(t.root, func(n P) bool {
		if err := typeadapt.Lifetime(t.adapter, n); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	var zero P
	t.root = zero

	return firstErr
}

// isDown reports whether the edge from parent to child is a genuine
// descent (child's bit_offset strictly exceeds parent's) rather than a
// back-edge terminating the path at child, per spec.md §4.3/§9.
func isDown[P Node[P]](child, parent P) bool {
	return ph(child).BitOffset > ph(parent).BitOffset
}

// visitSubtree walks every key reachable below node in byte-lex order.
// node is itself a self-loop leaf only at the very bottom of the trie
// (both children point to itself), which is visited exactly once rather
// than through both of its self-referencing child slots.
func (t *Trie[P]) visitSubtree(node P, visit func(P) bool) bool {
	hdr := ph(node)
	if hdr.Left == node && hdr.Right == node {
		return visit(node)
	}

	if isDown(hdr.Left, node) {
		if !t.visitSubtree(hdr.Left, visit) {
			return false
		}
	} else if !visit(hdr.Left) {
		return false
	}

	if isDown(hdr.Right, node) {
		if !t.visitSubtree(hdr.Right, visit) {
			return false
		}
	} else if !visit(hdr.Right) {
		return false
	}

	return true
}

// visitSubtreeReverse is visitSubtree with left/right swapped, walking
// keys in descending byte-lex order.
func (t *Trie[P]) visitSubtreeReverse(node P, visit func(P) bool) bool {
	hdr := ph(node)
	if hdr.Left == node && hdr.Right == node {
		return visit(node)
	}

	if isDown(hdr.Right, node) {
		if !t.visitSubtreeReverse(hdr.Right, visit) {
			return false
		}
	} else if !visit(hdr.Right) {
		return false
	}

	if isDown(hdr.Left, node) {
		if !t.visitSubtreeReverse(hdr.Left, visit) {
			return false
		}
	} else if !visit(hdr.Left) {
		return false
	}

	return true
}

// Iterate calls yield for every element, in ascending byte-lex order of
// keys.
func (t *Trie[P]) Iterate(yield func(P) bool) {
	if isNil(t.root) {
		return
	}
	t.visitSubtree(t.root, yield)
}

// IterateReverse calls yield for every element, in descending byte-lex
// order of keys.
func (t *Trie[P]) IterateReverse(yield func(P) bool) {
	if isNil(t.root) {
		return
	}
	t.visitSubtreeReverse(t.root, yield)
}

// IteratePrefix calls yield for every element whose key starts with
// prefix, in ascending byte-lex order. Keys sharing a prefix form a
// contiguous run of the full byte-lex order, so this is Iterate with a
// prefix filter rather than a direct port of the original's
// higher_branch_parent bookkeeping, which existed only to avoid
// revisiting the whole trie on O(1)-extra-space C hardware.
func (t *Trie[P]) IteratePrefix(prefix []byte, yield func(P) bool) {
	t.Iterate(func(n P) bool {
		if !hasPrefix(t.adapter.GetBinaryKey(n), prefix) {
			return true
		}
		return yield(n)
	})
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	return keyEquals(key[:len(prefix)], prefix)
}

// CheckInvariant walks the trie the way Iterate does and reports
// ErrInvariantViolation if any element is reached more than once. It does
// not compare bit offsets along each path, and it does not check the
// stored keys' bits against the offsets their ancestors test.
func (t *Trie[P]) CheckInvariant() error {
	if isNil(t.root) {
		return nil
	}

	seen := map[P]bool{}
	var firstErr error
	t.visitSubtree(t.root, func(n P) bool {
		if seen[n] {
			firstErr = fmt.Errorf("patricia: %w: node %v visited twice", ckernerr.ErrInvariantViolation, n)
			return false
		}
		seen[n] = true
		return true
	})
	return firstErr
}
