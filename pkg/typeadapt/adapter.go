package typeadapt

// ObjectAdapter compares two stored objects against each other. Required
// by the red-black tree (to keep R5's in-order invariant while
// rebalancing) and by the extendible hash table's invariant check.
type ObjectAdapter[P any] interface {
	CompareObj(a, b P) int
}

// KeyObjectAdapter compares a caller-supplied key against a stored
// object's key. Required by the red-black tree's find/insert/remove and
// by the extendible hash table's find/insert/remove.
type KeyObjectAdapter[K, P any] interface {
	CompareKeyObj(k K, o P) int
}

// BinaryKeyAdapter extracts the binary key of a stored object. Required
// by the patricia trie, including its insert path, which must consult an
// already-stored object's key at split time.
type BinaryKeyAdapter[P any] interface {
	GetBinaryKey(o P) []byte
}

// HashAdapter hashes a caller-supplied key and a stored object; the two
// must agree on keys materially present in objects. Required by the
// extendible hash table.
type HashAdapter[K, P any] interface {
	HashKey(k K) uint64
	HashObj(o P) uint64
}

// LifetimeAdapter frees a stored object. Used by free/remove-all/clear
// paths; a container whose adapter does not implement LifetimeAdapter
// simply does not touch contained objects on teardown, per spec.md §3.4.
type LifetimeAdapter[P any] interface {
	Delete(o P) error
}

// Lifetime performs a best-effort capability check for LifetimeAdapter
// and invokes Delete if the adapter implements it. It returns nil if the
// adapter has no lifetime capability.
func Lifetime[P any](adapter any, o P) error {
	if d, ok := adapter.(LifetimeAdapter[P]); ok {
		return d.Delete(o)
	}
	return nil
}

// HasLifetime reports whether adapter implements LifetimeAdapter[P].
func HasLifetime[P any](adapter any) bool {
	_, ok := adapter.(LifetimeAdapter[P])
	return ok
}
