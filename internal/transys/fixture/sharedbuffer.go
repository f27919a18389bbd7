package fixture

import (
	"fmt"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// SharedBuffer builds the spec.md §8 scenario 4 fixture: n producers
// contend for one shared buffer slot; at most one may have its "accept"
// flag set at any instant. grant[i] is an uninterpreted input a scheduler
// asserts nondeterministically; accepted[i] latches once granted and stays
// latched (an idealized single-writer handshake), and the invariant is
// that at most one accepted[i] is ever true.
type SharedBuffer struct {
	store    *term.Store
	n        int
	grant    []*statevar.StateVar
	accepted []*statevar.StateVar
}

// NewSharedBuffer builds a fixture with n producers.
func NewSharedBuffer(store *term.Store, n int) *SharedBuffer {
	sb := &SharedBuffer{store: store, n: n}
	for i := 0; i < n; i++ {
		sb.grant = append(sb.grant, statevar.New(fmt.Sprintf("grant%d", i), []string{"buf"}, statevar.Bool).Input())
		sb.accepted = append(sb.accepted, statevar.New(fmt.Sprintf("accepted%d", i), []string{"buf"}, statevar.Bool))
	}
	return sb
}

func (sb *SharedBuffer) InitOfBound(k int64) *term.Term {
	s := sb.store
	lits := make([]*term.Term, sb.n)
	for i, a := range sb.accepted {
		lits[i] = s.Not(s.VarTerm(statevar.At(a, k)))
	}
	return s.And(lits...)
}

// TransOfBound enforces mutual exclusion structurally: grant[i] can only
// fire if no other producer already holds the slot, and accepted[i] latches
// once granted (never released, to keep the fixture small) unless it was
// already held by someone else this step.
func (sb *SharedBuffer) TransOfBound(k int64) *term.Term {
	s := sb.store
	var conj []*term.Term
	for i := 0; i < sb.n; i++ {
		gi := s.VarTerm(statevar.At(sb.grant[i], k))
		aiPrev := s.VarTerm(statevar.At(sb.accepted[i], k-1))
		aiNext := s.VarTerm(statevar.At(sb.accepted[i], k))

		var othersHeld []*term.Term
		for j := 0; j < sb.n; j++ {
			if j == i {
				continue
			}
			othersHeld = append(othersHeld, s.VarTerm(statevar.At(sb.accepted[j], k-1)))
			// A lower-index producer granted on the same step wins the
			// slot, so two producers never accept simultaneously.
			if j < i {
				othersHeld = append(othersHeld, s.VarTerm(statevar.At(sb.grant[j], k)))
			}
		}
		noOtherHolds := s.Not(s.Or(othersHeld...))
		effectiveGrant := s.And(gi, noOtherHolds)
		nextVal := s.Or(aiPrev, effectiveGrant)
		conj = append(conj, s.Eq(aiNext, nextVal))
	}
	return s.And(conj...)
}

func (sb *SharedBuffer) PropsListOfBound0() []transys.Property {
	s := sb.store
	var pairwise []*term.Term
	for i := 0; i < sb.n; i++ {
		for j := i + 1; j < sb.n; j++ {
			ai := s.VarTerm(statevar.At(sb.accepted[i], 0))
			aj := s.VarTerm(statevar.At(sb.accepted[j], 0))
			pairwise = append(pairwise, s.Not(s.And(ai, aj)))
		}
	}
	return []transys.Property{{Name: "at_most_one_accept", Term: s.And(pairwise...)}}
}

func (sb *SharedBuffer) GetLogic() string { return "QF_UF" }

func (sb *SharedBuffer) DeclareAndDefineOfBounds(s solver.Solver, lo, hi int64) {
	for k := lo; k <= hi; k++ {
		for _, g := range sb.grant {
			s.DeclareFun(statevar.At(g, k))
		}
		for _, a := range sb.accepted {
			s.DeclareFun(statevar.At(a, k))
		}
	}
}

func (sb *SharedBuffer) PathFromModel(m solver.Model, k int64) transys.Trace {
	type step struct {
		Grant, Accepted []bool
	}
	steps := make([]step, 0, k+1)
	for i := int64(0); i <= k; i++ {
		var st step
		for _, g := range sb.grant {
			st.Grant = append(st.Grant, m.TermValue(sb.store.VarTerm(statevar.At(g, i))))
		}
		for _, a := range sb.accepted {
			st.Accepted = append(st.Accepted, m.TermValue(sb.store.VarTerm(statevar.At(a, i))))
		}
		steps = append(steps, st)
	}
	return steps
}

// N reports the producer count.
func (sb *SharedBuffer) N() int { return sb.n }

// Accepted exposes the accepted[i] state variable for predicate seeding.
func (sb *SharedBuffer) Accepted(i int) *statevar.StateVar { return sb.accepted[i] }
