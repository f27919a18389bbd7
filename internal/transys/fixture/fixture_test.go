package fixture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/solver/memsolver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys/fixture"
)

// TestTwoBitCounter_ReachesThree confirms the fixture's own transition
// relation actually wraps 00 -> 01 -> 10 -> 11, independent of anything
// IC3IA/kind do with it: this is what makes "counter never equals 3" a
// genuinely false property for those engines' end-to-end tests.
func TestTwoBitCounter_ReachesThree(t *testing.T) {
	store := term.NewStore()
	counter := fixture.NewTwoBitCounter(store, 3)
	sv := memsolver.New(store)
	counter.DeclareAndDefineOfBounds(sv, 0, 3)

	sv.AssertTerm(counter.InitOfBound(0))
	for k := int64(1); k <= 3; k++ {
		sv.AssertTerm(counter.TransOfBound(k))
	}

	b1_3 := store.VarTerm(statevar.At(counter.B1(), 3))
	b0_3 := store.VarTerm(statevar.At(counter.B0(), 3))
	reachesThree := store.And(b1_3, b0_3)

	res := sv.CheckSatAssuming([]*term.Term{reachesThree}, nil, nil)
	require.Equal(t, solver.Sat, res, "counter must reach (1,1) by offset 3")
}

// TestSharedBuffer_MutualExclusionHolds confirms the fixture structurally
// enforces "at most one accept", which is what makes n=2 a genuine
// IC3IA Invariant scenario rather than an accidentally-false one.
func TestSharedBuffer_MutualExclusionHolds(t *testing.T) {
	store := term.NewStore()
	buf := fixture.NewSharedBuffer(store, 2)
	sv := memsolver.New(store)
	buf.DeclareAndDefineOfBounds(sv, 0, 2)

	sv.AssertTerm(buf.InitOfBound(0))
	for k := int64(1); k <= 2; k++ {
		sv.AssertTerm(buf.TransOfBound(k))
	}

	a0_2 := store.VarTerm(statevar.At(buf.Accepted(0), 2))
	a1_2 := store.VarTerm(statevar.At(buf.Accepted(1), 2))
	bothAccepted := store.And(a0_2, a1_2)

	res := sv.CheckSatAssuming([]*term.Term{bothAccepted}, nil, nil)
	require.Equal(t, solver.Unsat, res, "both producers holding the slot at once must be unreachable")
}
