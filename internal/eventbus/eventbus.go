// Package eventbus specifies the cross-technique event channel: engines
// poll it for newly learned invariants and newly resolved properties, and
// publish their own property status transitions through it. The bus's own
// transport and synchronization across concurrently running techniques is
// an external concern (spec.md §1); this package owns only the interface
// plus a minimal in-process reference implementation.
package eventbus

import (
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// Events is one non-blocking poll's worth of updates.
type Events struct {
	NewInvariants []*term.Term
	NewValids     []string         // property names proven Invariant elsewhere
	NewFalsifieds []string         // property names proven False elsewhere
	NewKTrue      map[string]int64 // property name -> highest k reached as KTrue, from a companion BMC-style technique
}

// Bus is the pluggable channel engines consume. Recv never blocks; it
// returns whatever has accumulated since the last call, possibly nothing.
type Bus interface {
	Recv() Events

	// PropStatus publishes a property's new status. trans lets a listener
	// correlate the status with the transition system the property belongs
	// to, mirroring spec.md §6's `prop_status(status, trans, name)`.
	PropStatus(status transys.Status, trans transys.System, name string)
}
