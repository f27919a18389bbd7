// Package fixture builds small, hand-written transys.System instances
// used by this module's own tests and by spec.md §8's end-to-end
// scenarios. Parsing these out of a dataflow language is out of scope; the
// declarative builder-function shape here (a sequence of Declare/Define
// calls) follows the teacher's symbol-table initialization style.
package fixture

import (
	"fmt"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
	"github.com/funvibe/mcheck/internal/transys"
)

// TwoBitCounter builds the canonical two-bit wrap-around counter from
// spec.md §8 scenario 3: two boolean bits encode counter in {0,1,2,3},
// incrementing and wrapping from 3 back to 0, no inputs.
//
// Bits are (b1 b0) = binary counter value, b1 most significant.
type TwoBitCounter struct {
	store    *term.Store
	b1, b0   *statevar.StateVar
	propName string
	propVal  int // counter value the property asserts "never equals"
}

// NewTwoBitCounter builds the fixture. neverEquals selects the disallowed
// counter value (spec.md §8 uses 3, which the counter does reach, making
// the property false).
func NewTwoBitCounter(store *term.Store, neverEquals int) *TwoBitCounter {
	return &TwoBitCounter{
		store:    store,
		b1:       statevar.New("b1", []string{"counter"}, statevar.Bool),
		b0:       statevar.New("b0", []string{"counter"}, statevar.Bool),
		propName: fmt.Sprintf("counter_never_%d", neverEquals),
		propVal:  neverEquals,
	}
}

func (c *TwoBitCounter) bitsAt(k int64) (b1, b0 *term.Term) {
	return c.store.VarTerm(statevar.At(c.b1, k)), c.store.VarTerm(statevar.At(c.b0, k))
}

func (c *TwoBitCounter) InitOfBound(k int64) *term.Term {
	b1, b0 := c.bitsAt(k)
	return c.store.And(c.store.Not(b1), c.store.Not(b0))
}

// TransOfBound encodes a 2-bit binary increment with wraparound between
// offsets k-1 and k: (b1',b0') = (b1,b0) + 1 mod 4.
func (c *TwoBitCounter) TransOfBound(k int64) *term.Term {
	s := c.store
	b1p, b0p := c.bitsAt(k - 1)
	b1n, b0n := c.bitsAt(k)
	// next b0 = not b0
	nextB0 := s.Eq(b0n, s.Not(b0p))
	// next b1 = b1 xor b0, encoded as (b1 <-> not b0n's carry): b1' = b1 != b0
	// i.e. b1' holds iff exactly one of b1,b0 holds (xor).
	xor := s.Or(s.And(b1p, s.Not(b0p)), s.And(s.Not(b1p), b0p))
	nextB1 := s.Eq(b1n, xor)
	return s.And(nextB0, nextB1)
}

func (c *TwoBitCounter) valueTerm(k int64, n int) *term.Term {
	s := c.store
	b1, b0 := c.bitsAt(k)
	want1 := n&2 != 0
	want0 := n&1 != 0
	l1 := b1
	if !want1 {
		l1 = s.Not(b1)
	}
	l0 := b0
	if !want0 {
		l0 = s.Not(b0)
	}
	return s.And(l1, l0)
}

func (c *TwoBitCounter) PropsListOfBound0() []transys.Property {
	s := c.store
	neq := s.Not(c.valueTerm(0, c.propVal))
	return []transys.Property{{Name: c.propName, Term: neq}}
}

func (c *TwoBitCounter) GetLogic() string { return "QF_UF" }

func (c *TwoBitCounter) DeclareAndDefineOfBounds(s solver.Solver, lo, hi int64) {
	for k := lo; k <= hi; k++ {
		s.DeclareFun(statevar.At(c.b1, k))
		s.DeclareFun(statevar.At(c.b0, k))
	}
}

// PathFromModel returns the per-offset (b1,b0) valuations as a plain
// structure; this module owns no external witness format.
func (c *TwoBitCounter) PathFromModel(m solver.Model, k int64) transys.Trace {
	type step struct{ B1, B0 bool }
	steps := make([]step, 0, k+1)
	for i := int64(0); i <= k; i++ {
		steps = append(steps, step{
			B1: m.TermValue(c.store.VarTerm(statevar.At(c.b1, i))),
			B0: m.TermValue(c.store.VarTerm(statevar.At(c.b0, i))),
		})
	}
	return steps
}

// B1 and B0 expose the fixture's underlying state variables so tests/IC3IA
// can seed predicates directly over them if desired.
func (c *TwoBitCounter) B1() *statevar.StateVar { return c.b1 }
func (c *TwoBitCounter) B0() *statevar.StateVar { return c.b0 }
