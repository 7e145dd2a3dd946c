//go:build debug

// Package singlethread asserts spec.md §5's "single-threaded per
// container" contract in debug builds: each container remembers the
// goroutine id of its first caller and panics if a later call arrives
// from a different goroutine, per SPEC_FULL.md §2.2. It never takes a
// lock — the containers it guards have no internal synchronization by
// design.
package singlethread

import (
	"fmt"
	"sync/atomic"

	"github.com/timandy/routine"
)

// Guard binds a container to the first goroutine that enters one of its
// exported methods. The zero value is ready to use.
type Guard struct {
	owner atomic.Int64
}

const unowned = 0

// Enter panics if called from a goroutine other than the one that made
// the first Enter call on g.
func (g *Guard) Enter(container string) {
	id := routine.Goid()
	if g.owner.CompareAndSwap(unowned, id) {
		return
	}
	if owner := g.owner.Load(); owner != id {
		panic(fmt.Sprintf("%s: accessed from goroutine %d, owned by goroutine %d", container, id, owner))
	}
}

// Release forgets the bound goroutine, letting a different goroutine
// take ownership on the next Enter. Intended for containers that are
// handed off between goroutines under external synchronization the
// container itself cannot see.
func (g *Guard) Release() {
	g.owner.Store(unowned)
}
