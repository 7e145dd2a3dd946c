// Package suffixtreefile supplements spec.md §1's out-of-scope-but-consumed
// note ("a memory-mapped file source... beyond the interface the core
// consumes") with a narrow safe wrapper around a file's contents, grounded
// on the teacher's pkg/untrust style of hiding an OS resource behind a
// small panic-free API.
//
// No example in the retrieved pack wires a real mmap library (no
// golang.org/x/sys/unix, no edsrzf/mmap-go import anywhere in
// _examples/), so MappedInput falls back to a plain os.ReadFile read: the
// file's entire contents loaded once into a stable, never-mutated []byte.
// That is the stdlib fallback this package documents rather than invents
// an mmap dependency the rest of the module never needed.
package suffixtreefile

import (
	"fmt"
	"os"
)

// MappedInput is a file's contents held as a stable byte slice, safe to
// pass to suffixtree.Tree.Build (the tree keeps a reference to it rather
// than copying, per spec.md §5).
type MappedInput struct {
	path string
	data []byte
}

func (MappedInput) GoString() string { return "MappedInput" }

// Open reads path's entire contents into a MappedInput.
func Open(path string) (*MappedInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suffixtreefile: open %s: %w", path, err)
	}
	return &MappedInput{path: path, data: data}, nil
}

// Bytes returns the file's contents. The caller must not mutate the
// returned slice: it may be shared with a suffixtree.Tree built from it.
func (m *MappedInput) Bytes() []byte { return m.data }

// Len returns the number of bytes read from the file.
func (m *MappedInput) Len() int { return len(m.data) }

// Path returns the path MappedInput was opened from.
func (m *MappedInput) Path() string { return m.path }

// Close releases m's reference to its contents. Since the backing store is
// a plain heap slice rather than an OS mapping, Close has no syscall to
// make; it exists so callers written against a true mmap source's
// lifecycle (open/close) port without change.
func (m *MappedInput) Close() error {
	m.data = nil
	return nil
}
