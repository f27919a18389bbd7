package memsolver

import (
	"testing"

	"github.com/funvibe/mcheck/internal/solver"
	"github.com/funvibe/mcheck/internal/statevar"
	"github.com/funvibe/mcheck/internal/term"
)

func TestCheckSatAssumingBasic(t *testing.T) {
	st := term.NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	y := statevar.New("y", nil, statevar.Bool)
	vx := st.VarTerm(statevar.At(x, 0))
	vy := st.VarTerm(statevar.At(y, 0))

	s := New(st)
	s.DeclareFun(statevar.At(x, 0))
	s.DeclareFun(statevar.At(y, 0))
	s.AssertTerm(st.Implies(vx, vy))

	res := s.CheckSatAssuming([]*term.Term{vx}, nil, nil)
	if res != solver.Sat {
		t.Fatalf("expected sat, got %v", res)
	}

	s2 := New(st)
	s2.AssertTerm(st.And(vx, st.Not(vy)))
	s2.AssertTerm(st.Implies(vx, vy))
	if got := s2.CheckSatAssuming(nil, nil, nil); got != solver.Unsat {
		t.Fatalf("expected unsat for contradictory assertions, got %v", got)
	}
}

func TestCheckSatAssumingAndGetValues(t *testing.T) {
	st := term.NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	vx := st.VarTerm(statevar.At(x, 0))

	s := New(st)
	s.AssertTerm(vx)

	var got bool
	res := s.CheckSatAssumingAndGetValues(nil, func(m solver.Model) {
		got = m.TermValue(vx)
	}, nil, []*term.Term{vx})
	if res != solver.Sat || !got {
		t.Fatalf("expected sat with x=true, got res=%v x=%v", res, got)
	}
}

func TestInterpolationSequence(t *testing.T) {
	st := term.NewStore()
	x := statevar.New("x", nil, statevar.Bool)
	y := statevar.New("y", nil, statevar.Bool)
	z := statevar.New("z", nil, statevar.Bool)
	vx := st.VarTerm(statevar.At(x, 0))
	vy := st.VarTerm(statevar.At(y, 0))
	vz := st.VarTerm(statevar.At(z, 0))

	s := New(st)
	s.Push()
	s.AssertNamedTerm("A0", vx)
	s.AssertNamedTerm("A1", st.Implies(vx, st.Not(vy)))
	s.AssertNamedTerm("A2", vy)

	res := s.CheckSatAssuming(nil, nil, nil)
	if res != solver.Unsat {
		t.Fatalf("expected the interpolation sequence's conjunction to be unsat, got %v", res)
	}
	itps, err := s.GetInterpolants([]string{"A0", "A1", "A2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(itps) != 2 {
		t.Fatalf("expected 2 interpolants for 3 partitions, got %d", len(itps))
	}
	s.Pop()
	_ = vz
}
