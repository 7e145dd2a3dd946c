package typeadapt

import (
	"fmt"

	"github.com/ckern-go/ckern/pkg/ckernerr"
)

// maxOffset is the 16-bit limit spec.md §3.4 places on a node offset: "all
// offsets must fit in 16 bits".
const maxOffset = 1<<16 - 1

// Member is the analogue of the original's typeadapt_member_t, which
// paired an adapter with the node offset of one particular container
// instance (spec.md §4.6). It holds no adapter itself.
//
// Go's generic RBNode/PatriciaNode/ListNode interfaces make the runtime
// offset unnecessary — the header accessor method *is* the offset — so
// Member carries only a descriptive Name plus the historical Offset for
// diagnostics and for parity with the original's nodeoffset.c validation.
// It is not consulted by any container's hot path.
type Member struct {
	Name   string
	Offset int
}

// NewMember validates offset against spec.md §3.4's 16-bit limit and
// returns a Member, or ErrInvalidArgument-wrapping error if it does not
// fit.
func NewMember(name string, offset int) (Member, error) {
	if offset < 0 || offset > maxOffset {
		return Member{}, fmt.Errorf("typeadapt: node offset %d for %q does not fit in 16 bits: %w", offset, name, ckernerr.ErrInvalidArgument)
	}
	return Member{Name: name, Offset: offset}, nil
}

// Validate re-checks the 16-bit bound, e.g. after a Member is
// deserialized or constructed by hand.
func (m Member) Validate() error {
	if m.Offset < 0 || m.Offset > maxOffset {
		return fmt.Errorf("typeadapt: node offset %d for %q does not fit in 16 bits: %w", m.Offset, m.Name, ckernerr.ErrInvalidArgument)
	}
	return nil
}
