// Package ckernerr names the error taxonomy spec.md §7 describes at
// concept level: not-found, already-exists, invalid-argument,
// out-of-memory, invariant-violation. Every container in this module
// returns one of these sentinels (wrapped with context via fmt.Errorf's
// %w) instead of inventing its own per-package error values, so callers
// can use errors.Is uniformly across rbtree, exthash, patricia and
// suffixtree.
package ckernerr

import "errors"

var (
	// ErrNotFound is returned by a lookup or remove on an absent key.
	// The container is left unchanged.
	ErrNotFound = errors.New("ckern: not found")

	// ErrAlreadyExists is returned by an insert of a duplicate key.
	// The container is left unchanged.
	ErrAlreadyExists = errors.New("ckern: already exists")

	// ErrInvalidArgument is returned for a key that is too long, a nil key
	// with non-zero declared length, a node-offset out of range, or an
	// adapter missing a capability a container requires.
	ErrInvalidArgument = errors.New("ckern: invalid argument")

	// ErrOutOfMemory is returned when an Allocator fails to satisfy an
	// internal allocation (directory growth, iterator stack growth).
	ErrOutOfMemory = errors.New("ckern: out of memory")

	// ErrInvariantViolation is returned only from check-invariant paths; it
	// indicates a bug in the container implementation or in an adapter, not
	// a user error.
	ErrInvariantViolation = errors.New("ckern: invariant violation")
)
