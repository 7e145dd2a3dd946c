// Package suffixtree implements a Ukkonen-built suffix tree over a single
// byte string (spec.md §4.4): on-line per-character construction with
// suffix links, supporting substring containment, match-all, and a
// human-readable dump.
//
// The original's leaf/internal layout shares one struct with a
// reserved leaf-flag bit in str_size, capping input length at
// SIZE_MAX/2. Here leaf and internal are a tagged variant (two concrete
// types behind a small node interface), per spec.md §9's redesign note:
// the reserved bit and the length cap both disappear.
package suffixtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ckern-go/ckern/internal/debug"
	"github.com/ckern-go/ckern/internal/nodestack"
	"github.com/ckern-go/ckern/internal/singlethread"
	"github.com/ckern-go/ckern/pkg/arena"
	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/suffixtreefile"
)

// node is implemented by *leaf and *internal.
type node interface {
	header() *nodeHeader
}

// nodeHeader is the common leaf layout of spec.md §3.1: a pointer into
// the input (strStart) and a length, here expressed as an end index
// (strEnd) so a leaf created mid-construction can share a single
// "current input length" cell with every other leaf (Ukkonen's classic
// optimization); sibling threads the single-linked child list a parent
// internal node keeps.
type nodeHeader struct {
	strStart int
	strEnd   *int
	sibling  node
}

func (h *nodeHeader) header() *nodeHeader { return h }

// leaf is a terminal edge: only the common header (start, end, and the
// sibling link to the next child of the same parent), since a leaf has no
// children of its own.
type leaf struct {
	nodeHeader
}

// internal extends the leaf layout with a child list and a suffix link,
// exactly as spec.md §3.1 describes.
type internal struct {
	nodeHeader
	childs     node
	suffixLink *internal
}

func edgeLength(n node) int {
	h := n.header()
	return *h.strEnd - h.strStart + 1
}

// Tree is the container of spec.md §3.2: { childs, max_length }, with
// the input buffer it indexes (not copied — the caller must keep it
// alive for the tree's lifetime, per spec.md §5).
type Tree struct {
	root      *internal
	input     []byte
	maxLength int
	alloc     arena.Allocator
	source    *suffixtreefile.MappedInput
	guard     singlethread.Guard

	// construction state, live only during Build.
	globalEnd            int
	remainingSuffixCount int
	activeNode           *internal
	activeEdge           int
	activeLength         int
	lastNewInternal      *internal
}

// New returns an empty tree. alloc governs the iterator stacks Dump and
// MatchAll use to walk the tree; a nil alloc defaults to arena.Default.
func New(alloc arena.Allocator) *Tree {
	if alloc == nil {
		alloc = arena.Default
	}
	return &Tree{alloc: alloc}
}

// IsEmpty reports whether the tree has never been built, or was cleared.
func (t *Tree) IsEmpty() bool { return t.root == nil }

// Clear discards the tree, returning it to its initial empty state. The
// input buffer is released (the tree holds no more references to it).
func (t *Tree) Clear() {
	t.root = nil
	t.input = nil
	t.maxLength = 0
	if t.source != nil {
		t.source.Close()
		t.source = nil
	}
	debug.Log(nil, "suffixtree.clear", "")
}

// charAt returns the value of the conceptual input at pos: the real byte
// if pos is within input, or 256 (the end-marker of spec.md §4.4, "value
// 256, outside the byte alphabet") for the one position immediately
// past it. Every suffix is guaranteed to end at an explicit leaf only
// because this marker cannot collide with any real byte.
func (t *Tree) charAt(pos int) int {
	if pos < len(t.input) {
		return int(t.input[pos])
	}
	return 256
}

func (t *Tree) getChild(n *internal, c int) (node, node) {
	var prev node
	for cur := n.childs; cur != nil; cur = cur.header().sibling {
		if t.charAt(cur.header().strStart) == c {
			return cur, prev
		}
		prev = cur
	}
	return nil, nil
}

// realLabel returns the portion of n's incoming edge that lies within
// the real input, omitting the trailing end-marker an edge reaching
// globalEnd's final value conceptually carries (which cannot be sliced
// out of t.input since it is not one of its bytes).
func (t *Tree) realLabel(n node) []byte {
	h := n.header()
	length := edgeLength(n)
	if h.strStart+length > len(t.input) {
		length = len(t.input) - h.strStart
	}
	return t.input[h.strStart : h.strStart+length]
}

func (t *Tree) addChild(n *internal, child node) {
	child.header().sibling = n.childs
	n.childs = child
}

// replaceChild swaps old for replacement in n's child list, preserving
// old's position. prev is old's predecessor in the list, or nil if old
// was the head (as returned by getChild).
func (t *Tree) replaceChild(n *internal, old, prev, replacement node) {
	replacement.header().sibling = old.header().sibling
	if prev == nil {
		n.childs = replacement
	} else {
		prev.header().sibling = replacement
	}
}

// Build constructs the tree over input via Ukkonen's on-line algorithm,
// implicitly clearing any previously built tree first. input is not
// copied and must outlive the tree.
func (t *Tree) Build(input []byte) error {
	t.guard.Enter("suffixtree.Tree")
	if len(input) == 0 {
		return fmt.Errorf("suffixtree: build: %w", ckernerr.ErrInvalidArgument)
	}

	t.Clear()
	t.input = input
	t.maxLength = len(input)

	t.globalEnd = -1
	t.root = &internal{}
	t.activeNode = t.root
	t.activeEdge = 0
	t.activeLength = 0
	t.remainingSuffixCount = 0

	for i := 0; i <= len(input); i++ {
		if err := t.extend(i); err != nil {
			return err
		}
	}

	t.finalizeLeafLengths(t.root)

	debug.Log(nil, "suffixtree.build", "len=%d", len(input))
	return nil
}

// BuildFromFile is Build fed by suffixtreefile's file-backed source
// (spec.md §1's out-of-scope-but-consumed "memory-mapped file source"):
// it opens path, keeps the returned MappedInput alive for the tree's
// lifetime, and builds over its bytes.
func (t *Tree) BuildFromFile(path string) error {
	in, err := suffixtreefile.Open(path)
	if err != nil {
		return fmt.Errorf("suffixtree: build from file: %w", err)
	}
	if err := t.Build(in.Bytes()); err != nil {
		in.Close()
		return err
	}
	t.source = in
	return nil
}

// extend runs one phase of Ukkonen's algorithm, consuming input[pos].
func (t *Tree) extend(pos int) error {
	t.globalEnd = pos
	t.remainingSuffixCount++
	t.lastNewInternal = nil

	for t.remainingSuffixCount > 0 {
		if t.activeLength == 0 {
			t.activeEdge = pos
		}

		c := t.charAt(t.activeEdge)
		child, prev := t.getChild(t.activeNode, c)

		if child == nil {
			newLeaf := &leaf{nodeHeader{strStart: pos, strEnd: &t.globalEnd}}
			t.addChild(t.activeNode, newLeaf)
			if t.lastNewInternal != nil {
				t.lastNewInternal.suffixLink = t.activeNode
				t.lastNewInternal = nil
			}
		} else {
			edgeLen := edgeLength(child)
			if in, isInternal := child.(*internal); isInternal && t.activeLength >= edgeLen {
				t.activeEdge += edgeLen
				t.activeLength -= edgeLen
				t.activeNode = in
				continue
			}

			h := child.header()
			if t.charAt(h.strStart+t.activeLength) == t.charAt(pos) {
				t.activeLength++
				if t.lastNewInternal != nil {
					t.lastNewInternal.suffixLink = t.activeNode
					t.lastNewInternal = nil
				}
				break
			}

			splitEnd := h.strStart + t.activeLength - 1
			splitNode := &internal{nodeHeader: nodeHeader{strStart: h.strStart, strEnd: &splitEnd}}
			t.replaceChild(t.activeNode, child, prev, splitNode)

			newLeaf := &leaf{nodeHeader{strStart: pos, strEnd: &t.globalEnd}}
			t.addChild(splitNode, newLeaf)

			h.strStart += t.activeLength
			t.addChild(splitNode, child)

			if t.lastNewInternal != nil {
				t.lastNewInternal.suffixLink = splitNode
			}
			t.lastNewInternal = splitNode
		}

		t.remainingSuffixCount--

		if t.activeNode == t.root && t.activeLength > 0 {
			t.activeLength--
			t.activeEdge = pos - t.remainingSuffixCount + 1
		} else if t.activeNode != t.root {
			if t.activeNode.suffixLink != nil {
				t.activeNode = t.activeNode.suffixLink
			} else {
				t.activeNode = t.root
			}
		}
	}

	return nil
}

// finalizeLeafLengths bakes each leaf's final length in once
// construction is done: a leaf's strEnd pointed at the tree's shared
// globalEnd cell during construction (so every existing leaf
// automatically "grew" each phase); after Build returns no further
// phases will run, so every leaf gets its own dedicated end cell,
// matching spec.md §4.4's "the leaf's length is set to the remaining
// suffix at leaf creation."
func (t *Tree) finalizeLeafLengths(n node) {
	in, ok := n.(*internal)
	if !ok {
		l := n.(*leaf)
		end := *l.strEnd
		l.strEnd = &end
		return
	}
	for c := in.childs; c != nil; c = c.header().sibling {
		t.finalizeLeafLengths(c)
	}
}

// findLocus descends from the root matching needle, returning the node
// whose subtree holds exactly the occurrences of needle and depth, the
// full structural depth from the root to locus (inclusive of locus's own
// incoming edge). ok is false if needle does not occur.
func (t *Tree) findLocus(needle []byte) (locus node, depth int, ok bool) {
	if t.root == nil {
		return nil, 0, false
	}
	if len(needle) == 0 {
		return t.root, 0, true
	}

	cur := node(t.root)
	pos := 0
	depth = 0

	for pos < len(needle) {
		in, isInternal := cur.(*internal)
		if !isInternal {
			return nil, 0, false
		}
		child, _ := t.getChild(in, int(needle[pos]))
		if child == nil {
			return nil, 0, false
		}

		// trueLen is the edge's full length as construction tracked it
		// (may run one past label when child is a leaf whose content
		// reaches the end-marker); label is only the real-byte prefix,
		// safe to slice out of t.input and compare needle against.
		trueLen := edgeLength(child)
		label := t.realLabel(child)
		matchLen := 0
		for matchLen < len(label) && pos < len(needle) && label[matchLen] == needle[pos] {
			matchLen++
			pos++
		}

		if matchLen < trueLen {
			if pos == len(needle) {
				return child, depth + trueLen, true
			}
			return nil, 0, false
		}

		depth += trueLen
		cur = child
	}

	return cur, depth, true
}

// Contains reports whether needle occurs anywhere in the built input.
// The empty needle trivially occurs.
func (t *Tree) Contains(needle []byte) bool {
	if len(needle) == 0 {
		return !t.IsEmpty()
	}
	_, _, ok := t.findLocus(needle)
	return ok
}

type frame struct {
	n           node
	depthToSelf int
}

// MatchAll returns the total number of occurrences of needle in the
// built input, and up to max start offsets after skipping the first
// skip of them (sorted ascending). max < 0 means unlimited.
func (t *Tree) MatchAll(needle []byte, skip, max int) (total int, positions []int) {
	if len(needle) == 0 || t.root == nil {
		return 0, nil
	}

	locus, depth, ok := t.findLocus(needle)
	if !ok {
		return 0, nil
	}

	var all []int
	stack := nodestack.New[frame](t.alloc)
	_ = stack.Push(frame{n: locus, depthToSelf: depth})
	for !stack.Empty() {
		fr, _ := stack.Pop()
		switch v := fr.n.(type) {
		case *leaf:
			depthToParent := fr.depthToSelf - edgeLength(v)
			all = append(all, v.strStart-depthToParent)
		case *internal:
			for c := v.childs; c != nil; c = c.header().sibling {
				_ = stack.Push(frame{n: c, depthToSelf: fr.depthToSelf + edgeLength(c)})
			}
		}
	}

	sort.Ints(all)
	total = len(all)

	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return total, nil
	}
	end := len(all)
	if max >= 0 && skip+max < end {
		end = skip + max
	}
	return total, append([]int(nil), all[skip:end]...)
}

// Dump produces a human-readable multi-line representation: for each
// internal node, its address, its label, its suffix-link target, and a
// line per child showing the child's whole label and its address.
func (t *Tree) Dump() string {
	if t.root == nil {
		return ""
	}

	var buf strings.Builder
	stack := nodestack.New[*internal](t.alloc)
	_ = stack.Push(t.root)

	for !stack.Empty() {
		n, _ := stack.Pop()
		fmt.Fprintf(&buf, "%p %q suffix_link=%p\n", n, t.label(n), n.suffixLink)
		for c := n.childs; c != nil; c = c.header().sibling {
			fmt.Fprintf(&buf, "  child %q -> %p\n", t.label(c), c)
			if in, ok := c.(*internal); ok {
				_ = stack.Push(in)
			}
		}
	}

	return buf.String()
}

// label is realLabel plus the root's no-incoming-edge special case, kept
// separate since realLabel is also called from findLocus on children that
// are never the root.
func (t *Tree) label(n node) []byte {
	if n == node(t.root) {
		return nil
	}
	return t.realLabel(n)
}
